package source

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const lineBufferSize = 64 * 1024

// Lines reads '\n' terminated lines. Line terminators ("\n" or "\r\n") are
// stripped. The slice returned by Next is only valid until the next call.
type Lines struct {
	r      *bufio.Reader
	closer io.Closer
	long   []byte
	n      uint64
}

// NewLines reads lines from r. If r is an io.Closer, Close closes it.
func NewLines(r io.Reader) *Lines {
	l := &Lines{r: bufio.NewReaderSize(r, lineBufferSize)}
	if c, ok := r.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Next returns the next line or io.EOF.
func (l *Lines) Next() ([]byte, error) {
	line, err := l.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		l.long = append(l.long[:0], line...)
		for errors.Is(err, bufio.ErrBufferFull) {
			line, err = l.r.ReadSlice('\n')
			l.long = append(l.long, line...)
		}
		line = l.long
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(line) == 0 && errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	l.n++
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, nil
}

// Count returns the number of lines returned so far.
func (l *Lines) Count() uint64 {
	return l.n
}

// Close closes the underlying reader.
func (l *Lines) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
