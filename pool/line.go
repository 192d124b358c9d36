package pool

import (
	"strconv"
	"sync"
)

// LineBuilder assembles one delimited output line without intermediate strings.
type LineBuilder struct {
	buf    []byte
	delim  byte
	fields int
}

var lineBuilderPool = sync.Pool{
	New: func() any {
		return &LineBuilder{buf: make([]byte, 0, 256)}
	},
}

// AcquireLineBuilder gets a LineBuilder from the pool.
// Call Release() when done.
func AcquireLineBuilder(delim byte) *LineBuilder {
	lb := lineBuilderPool.Get().(*LineBuilder)
	lb.delim = delim
	lb.Reset()
	return lb
}

// Release returns the LineBuilder to the pool.
func (b *LineBuilder) Release() {
	if b == nil {
		return
	}
	if cap(b.buf) <= 4096 {
		lineBuilderPool.Put(b)
	}
}

// Reset clears the line without deallocating.
func (b *LineBuilder) Reset() {
	b.buf = b.buf[:0]
	b.fields = 0
}

// Len returns the current length of the line in bytes.
func (b *LineBuilder) Len() int {
	return len(b.buf)
}

// Fields returns the number of fields written.
func (b *LineBuilder) Fields() int {
	return b.fields
}

func (b *LineBuilder) sep() {
	if b.fields > 0 {
		b.buf = append(b.buf, b.delim)
	}
	b.fields++
}

// Field appends a string field.
func (b *LineBuilder) Field(s string) {
	b.sep()
	b.buf = append(b.buf, s...)
}

// FieldBytes appends a byte field.
func (b *LineBuilder) FieldBytes(p []byte) {
	b.sep()
	b.buf = append(b.buf, p...)
}

// FieldInt appends a decimal integer field.
func (b *LineBuilder) FieldInt(n int) {
	b.sep()
	b.buf = strconv.AppendInt(b.buf, int64(n), 10)
}

// End terminates the line with '\n'.
func (b *LineBuilder) End() {
	b.buf = append(b.buf, '\n')
}

// String returns the line as a string.
func (b *LineBuilder) String() string {
	return string(b.buf)
}

// Bytes returns the underlying buffer (no copy).
// It is only valid until the next modification.
func (b *LineBuilder) Bytes() []byte {
	return b.buf
}

// JoinFields joins fields with delim.
func JoinFields(delim byte, fields ...string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}

	lb := AcquireLineBuilder(delim)
	defer lb.Release()
	for _, f := range fields {
		lb.Field(f)
	}
	return lb.String()
}
