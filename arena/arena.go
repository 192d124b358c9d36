// Package arena provides a region-based bump allocator for record text.
//
// # Memory Management
//
// An Arena hands out byte ranges from a list of regions. A region is never
// resized or moved, so a byte slice returned by Bytes stays valid until the
// arena is released. When the current region cannot satisfy a request a new
// one is reserved, sized to the larger of the preferred region size and the
// request.
//
// # References
//
// Allocations are addressed by Ref values rather than pointers. A Ref carries
// the arena generation it was issued in; Release and Free bump the generation
// so references issued before are detected as stale instead of aliasing
// reused memory.
//
// # Concurrency Model
//
// Allocation, Release and Free must not be called concurrently. Once a
// document has finished loading, any number of goroutines may read through
// Bytes and String.
package arena

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

var (
	// ErrAllocationFailed is returned when a request cannot be satisfied.
	ErrAllocationFailed = errors.New("arena: allocation failed")
	// ErrStaleRef is returned when a reference predates the last Release or Free.
	ErrStaleRef = errors.New("arena: stale reference")
)

const (
	// DefaultRegionSize is the preferred size of a region (4 KiB).
	DefaultRegionSize = 4096
	// DefaultAlignment is the alignment of every allocation (8 bytes).
	DefaultAlignment = 8
	// MaxRegionSize bounds a single region so offsets fit in a Ref.
	MaxRegionSize = math.MaxUint32
)

// Ref is a generation-checked reference to an allocation.
// The zero Ref is the empty allocation and is valid in every generation.
type Ref struct {
	Gen    uint32
	Region uint32
	Offset uint32
	Len    uint32
}

// IsZero reports whether r refers to no bytes.
func (r Ref) IsZero() bool {
	return r.Len == 0
}

// Size returns the referenced length in bytes.
func (r Ref) Size() int {
	return int(r.Len)
}

// Slice returns a reference to r[off:off+n]. It panics if the range is out of bounds.
func (r Ref) Slice(off, n int) Ref {
	if off < 0 || n < 0 || off+n > int(r.Len) {
		panic(fmt.Sprintf("arena: slice [%d:%d] out of range for ref of length %d", off, off+n, r.Len))
	}
	if n == 0 {
		return Ref{}
	}
	return Ref{Gen: r.Gen, Region: r.Region, Offset: r.Offset + uint32(off), Len: uint32(n)} //nolint:gosec // bounded by r.Len
}

// Stats reports arena memory usage.
//
//   - BytesReserved: bytes held in regions
//   - BytesUsed: bytes requested by allocations
//   - BytesWasted: alignment padding
type Stats struct {
	Regions       int
	BytesReserved uint64
	BytesUsed     uint64
	BytesWasted   uint64
	Allocs        uint64
	Generation    uint32
}

// Arena is a region-based bump allocator.
type Arena struct {
	regionSize int
	alignment  int
	maxBytes   int64

	regions    [][]byte
	offset     int // cursor into the last region
	generation uint32

	reserved uint64
	used     uint64
	wasted   uint64
	allocs   uint64
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithAlignment sets the allocation alignment. It must be a power of two.
func WithAlignment(align int) Option {
	return func(a *Arena) {
		if align > 0 && align&(align-1) == 0 {
			a.alignment = align
		}
	}
}

// WithMaxBytes caps the total bytes the arena may reserve. Zero means unlimited.
func WithMaxBytes(limit int64) Option {
	return func(a *Arena) {
		if limit >= 0 {
			a.maxBytes = limit
		}
	}
}

// New creates an Arena and reserves its first region.
func New(regionSize int, opts ...Option) (*Arena, error) {
	if regionSize <= 0 {
		regionSize = DefaultRegionSize
	}
	if regionSize > MaxRegionSize {
		return nil, fmt.Errorf("%w: region size %d exceeds %d", ErrAllocationFailed, regionSize, MaxRegionSize)
	}

	a := &Arena{
		regionSize: regionSize,
		alignment:  DefaultAlignment,
		generation: 1, // zero is reserved so a zeroed Ref with a length is always stale
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.reserve(regionSize); err != nil {
		return nil, err
	}
	return a, nil
}

// Generation returns the current generation.
func (a *Arena) Generation() uint32 {
	return a.generation
}

func (a *Arena) reserve(size int) error {
	if size > MaxRegionSize {
		return fmt.Errorf("%w: request of %d bytes exceeds region limit", ErrAllocationFailed, size)
	}
	if len(a.regions) >= math.MaxUint32 {
		return fmt.Errorf("%w: region count exhausted", ErrAllocationFailed)
	}
	if a.maxBytes > 0 && int64(a.reserved)+int64(size) > a.maxBytes { //nolint:gosec // reserved is bounded by maxBytes
		return fmt.Errorf("%w: reserving %d bytes would exceed limit of %d", ErrAllocationFailed, size, a.maxBytes)
	}

	a.regions = append(a.regions, make([]byte, size))
	a.offset = 0
	a.reserved += uint64(size) //nolint:gosec // size > 0
	return nil
}

// Allocate reserves size bytes and returns a reference to them.
// Allocate(0) returns the zero Ref and succeeds.
func (a *Arena) Allocate(size int) (Ref, error) {
	ref, _, err := a.Alloc(size)
	return ref, err
}

// Alloc reserves size bytes and returns both the reference and the writable slice.
// The slice is not zeroed after a Release.
func (a *Arena) Alloc(size int) (Ref, []byte, error) {
	if size == 0 {
		return Ref{}, nil, nil
	}
	if size < 0 {
		return Ref{}, nil, fmt.Errorf("%w: negative size %d", ErrAllocationFailed, size)
	}

	mask := a.alignment - 1
	start := (a.offset + mask) &^ mask

	if len(a.regions) == 0 || start+size > len(a.regions[len(a.regions)-1]) {
		if err := a.reserve(max(size, a.regionSize)); err != nil {
			return Ref{}, nil, err
		}
		start = 0
	} else {
		a.wasted += uint64(start - a.offset) //nolint:gosec // start >= offset
	}

	idx := len(a.regions) - 1
	end := start + size
	a.offset = end
	a.used += uint64(size) //nolint:gosec // size > 0
	a.allocs++

	ref := Ref{
		Gen:    a.generation,
		Region: uint32(idx),   //nolint:gosec // bounded in reserve
		Offset: uint32(start), //nolint:gosec // bounded by MaxRegionSize
		Len:    uint32(size),  //nolint:gosec // bounded by MaxRegionSize
	}
	return ref, a.regions[idx][start:end:end], nil
}

// Copy allocates len(data) bytes and copies data into them.
func (a *Arena) Copy(data []byte) (Ref, error) {
	ref, buf, err := a.Alloc(len(data))
	if err != nil {
		return Ref{}, err
	}
	copy(buf, data)
	return ref, nil
}

// Lookup returns the bytes behind ref, or ErrStaleRef if ref is not valid in
// the current generation.
func (a *Arena) Lookup(ref Ref) ([]byte, error) {
	if ref.Len == 0 {
		return nil, nil
	}
	if ref.Gen != a.generation || int(ref.Region) >= len(a.regions) {
		return nil, ErrStaleRef
	}
	region := a.regions[ref.Region]
	end := int(ref.Offset) + int(ref.Len)
	if end > len(region) {
		return nil, ErrStaleRef
	}
	return region[ref.Offset:end:end], nil
}

// Bytes returns the bytes behind ref, or nil if ref is stale.
func (a *Arena) Bytes(ref Ref) []byte {
	b, err := a.Lookup(ref)
	if err != nil {
		return nil
	}
	return b
}

// String returns the bytes behind ref as a string without copying.
// The string must not be used after the arena is released.
func (a *Arena) String(ref Ref) string {
	b := a.Bytes(ref)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b)) //nolint:gosec // arena regions are never mutated after a record is built
}

// Valid reports whether ref can be dereferenced.
func (a *Arena) Valid(ref Ref) bool {
	_, err := a.Lookup(ref)
	return err == nil
}

// Release returns the arena to its first region and invalidates all references.
func (a *Arena) Release() {
	if len(a.regions) > 1 {
		clear(a.regions[1:])
		a.regions = a.regions[:1]
	}
	a.offset = 0
	a.generation++
	a.reserved = 0
	if len(a.regions) == 1 {
		a.reserved = uint64(len(a.regions[0]))
	}
	a.used, a.wasted, a.allocs = 0, 0, 0
}

// Free drops every region and invalidates all references.
// The arena may be reused; the next allocation reserves a fresh region.
func (a *Arena) Free() {
	clear(a.regions)
	a.regions = nil
	a.offset = 0
	a.generation++
	a.reserved, a.used, a.wasted, a.allocs = 0, 0, 0, 0
}

// Stats returns current usage.
func (a *Arena) Stats() Stats {
	return Stats{
		Regions:       len(a.regions),
		BytesReserved: a.reserved,
		BytesUsed:     a.used,
		BytesWasted:   a.wasted,
		Allocs:        a.allocs,
		Generation:    a.generation,
	}
}
