package export

import (
	"bufio"
	"io"
	"iter"
	"strings"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/mesh"
	"github.com/gofhir/termsmap/pool"
	"github.com/gofhir/termsmap/source"
	"github.com/gofhir/termsmap/xref"
)

// Output file suffixes appended to the input name.
const (
	CSVSuffix  = ".out.csv"
	FHIRSuffix = ".out.json"
)

// OutputPath derives the output location for input. Without dir the
// suffix is appended to input itself; otherwise the file is placed in dir.
func OutputPath(input, dir, suffix string) (string, error) {
	if _, err := source.Parse(input); err != nil {
		return "", err
	}
	base := source.Base(input)
	if strings.HasSuffix(input, "/") || base == "" || base == "." || base == "/" || base == ".." {
		return "", tm.NewError(tm.StatusInvalidArguments, "bad filepath @ %s", input)
	}
	if dir == "" {
		return input + suffix, nil
	}
	return source.Join(dir, base+suffix), nil
}

// WriteMesh writes one "uid|name|parent|type|category|modifier" line per
// entry, with the enums as ordinals. It returns the number of lines.
func WriteMesh(w io.Writer, entries iter.Seq[mesh.Entry], delim byte) (int, error) {
	bw := bufio.NewWriter(w)
	lb := pool.AcquireLineBuilder(delim)
	defer lb.Release()

	n := 0
	for e := range entries {
		lb.Reset()
		lb.Field(e.UID)
		lb.Field(e.Name)
		lb.Field(e.ParentUID)
		lb.FieldInt(int(e.Kind))
		lb.FieldInt(int(e.Category))
		lb.FieldInt(int(e.Modifier))
		lb.End()
		if _, err := bw.Write(lb.Bytes()); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// WriteXref writes one "uid|source|target" line per entry and returns the
// number of lines.
func WriteXref(w io.Writer, entries iter.Seq[xref.Entry], delim byte) (int, error) {
	bw := bufio.NewWriter(w)
	lb := pool.AcquireLineBuilder(delim)
	defer lb.Release()

	n := 0
	for e := range entries {
		lb.Reset()
		lb.Field(e.UID)
		lb.Field(e.Source)
		lb.Field(e.Target)
		lb.End()
		if _, err := bw.Write(lb.Bytes()); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}
