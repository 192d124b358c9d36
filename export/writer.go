package export

import (
	"context"
	"io"
	"iter"
	"time"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/mesh"
	"github.com/gofhir/termsmap/xref"
)

// Creator opens a location for writing. *source.Opener satisfies it.
type Creator interface {
	Create(ctx context.Context, uri string) (io.WriteCloser, error)
}

// MeshSource is a loaded MeSH document.
type MeshSource interface {
	Records() iter.Seq[mesh.Entry]
}

// XrefSource is a loaded cross-reference document.
type XrefSource interface {
	Records() iter.Seq[xref.Entry]
}

// Writer writes documents in every format requested by the options.
type Writer struct {
	create Creator
	opts   *tm.Options
}

// NewWriter creates a Writer that opens outputs with create.
func NewWriter(create Creator, opts ...tm.Option) *Writer {
	return &Writer{create: create, opts: tm.NewOptions(opts...)}
}

// WriteMesh writes doc, which was loaded from input, and returns the
// output locations.
func (w *Writer) WriteMesh(ctx context.Context, input string, doc MeshSource) ([]string, error) {
	var outputs []string
	if w.opts.HasFormat(tm.FormatCSV) {
		path, err := w.write(ctx, input, CSVSuffix, tm.FormatCSV, func(out io.Writer) (int, error) {
			return WriteMesh(out, doc.Records(), tm.DefaultDelimiter)
		})
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	if w.opts.HasFormat(tm.FormatFHIR) {
		path, err := w.write(ctx, input, FHIRSuffix, tm.FormatFHIR, func(out io.Writer) (int, error) {
			cs := MeshCodeSystem(doc.Records())
			return writeResource(out, "CodeSystem", cs, len(cs.Concept))
		})
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

// WriteXref writes doc, which was loaded from input, and returns the
// output locations. names supplies ConceptMap displays and may be nil.
func (w *Writer) WriteXref(ctx context.Context, input string, doc XrefSource, names Namer) ([]string, error) {
	var outputs []string
	if w.opts.HasFormat(tm.FormatCSV) {
		path, err := w.write(ctx, input, CSVSuffix, tm.FormatCSV, func(out io.Writer) (int, error) {
			return WriteXref(out, doc.Records(), tm.DefaultDelimiter)
		})
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	if w.opts.HasFormat(tm.FormatFHIR) {
		path, err := w.write(ctx, input, FHIRSuffix, tm.FormatFHIR, func(out io.Writer) (int, error) {
			cm := XrefConceptMap(doc.Records(), names)
			n := 0
			for _, g := range cm.Group {
				n += len(g.Element)
			}
			return writeResource(out, "ConceptMap", cm, n)
		})
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

func (w *Writer) write(ctx context.Context, input, suffix string, format tm.Format, fn func(io.Writer) (int, error)) (string, error) {
	path, err := OutputPath(input, w.opts.OutputDir, suffix)
	if err != nil {
		return "", err
	}
	start := time.Now()

	out, err := w.create.Create(ctx, path)
	if err != nil {
		return "", err
	}
	n, err := fn(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &tm.Error{Status: tm.StatusFileInit, Message: "failed writing " + path, Err: err}
	}

	w.opts.Metrics.RecordStage("export."+string(format), time.Since(start), n)
	w.opts.Logger.Info("output written", "path", path, "format", format, "records", n)
	return path, nil
}

func writeResource(out io.Writer, resourceType string, resource any, records int) (int, error) {
	data, err := MarshalResource(resourceType, resource)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	if _, err := out.Write(data); err != nil {
		return 0, err
	}
	return records, nil
}
