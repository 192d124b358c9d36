// Package pool provides sync.Pool wrappers for the per-row scratch buffers.
package pool

import "sync"

const (
	// ColumnsCapacity fits one MRCONSO row without growing.
	ColumnsCapacity = 32
	maxColumnsCap   = 256
	maxByteCap      = 65536
)

var columnsPool = sync.Pool{
	New: func() any {
		s := make([][]byte, 0, ColumnsCapacity)
		return &s
	},
}

// AcquireColumns gets an empty column slice from the pool.
func AcquireColumns() *[][]byte {
	s := columnsPool.Get().(*[][]byte)
	*s = (*s)[:0]
	return s
}

// ReleaseColumns returns a column slice to the pool.
// References to the line it borrowed from are dropped.
func ReleaseColumns(s *[][]byte) {
	if s == nil {
		return
	}
	if cap(*s) > maxColumnsCap {
		return
	}
	clear((*s)[:cap(*s)])
	*s = (*s)[:0]
	columnsPool.Put(s)
}

var byteSlicePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// AcquireByteSlice gets a byte slice from the pool.
func AcquireByteSlice() *[]byte {
	b := byteSlicePool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// ReleaseByteSlice returns a byte slice to the pool.
func ReleaseByteSlice(b *[]byte) {
	if b == nil {
		return
	}
	if cap(*b) <= maxByteCap {
		byteSlicePool.Put(b)
	}
}
