package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies an input encoding.
type Compression uint8

const (
	// None is uncompressed input.
	None Compression = iota
	// Gzip is RFC 1952 gzip.
	Gzip
	// Zstd is a Zstandard frame.
	Zstd
	// LZ4 is an LZ4 frame.
	LZ4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Detect returns the compression indicated by the leading bytes of a stream.
func Detect(magic []byte) Compression {
	switch {
	case bytes.HasPrefix(magic, zstdMagic):
		return Zstd
	case bytes.HasPrefix(magic, lz4Magic):
		return LZ4
	case bytes.HasPrefix(magic, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// decompressor wraps a stream and closes both layers.
type decompressor struct {
	io.Reader
	closeFn func() error
	under   io.Closer
}

func (d *decompressor) Close() error {
	var err error
	if d.closeFn != nil {
		err = d.closeFn()
	}
	if cerr := d.under.Close(); err == nil {
		err = cerr
	}
	return err
}

// Decompress sniffs rc and returns a reader over the decoded bytes.
// Closing the result closes rc.
func Decompress(rc io.ReadCloser) (io.ReadCloser, Compression, error) {
	br := bufio.NewReaderSize(rc, 64*1024)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, None, err
	}

	switch c := Detect(magic); c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, err
		}
		return &decompressor{Reader: zr, closeFn: zr.Close, under: rc}, c, nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, err
		}
		return &decompressor{Reader: dec, closeFn: func() error { dec.Close(); return nil }, under: rc}, c, nil
	case LZ4:
		return &decompressor{Reader: lz4.NewReader(br), under: rc}, c, nil
	default:
		return &decompressor{Reader: br, under: rc}, None, nil
	}
}
