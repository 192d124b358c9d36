// Package builder runs a full build: load the MeSH document, write it, then
// load every cross-reference file against it and write those.
//
// The MeSH document is optional. When present it is fully loaded before any
// cross-reference load starts and is only read afterwards, so the xref
// loads share it without locking.
package builder

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/export"
	"github.com/gofhir/termsmap/mesh"
	"github.com/gofhir/termsmap/pipeline"
	"github.com/gofhir/termsmap/source"
	"github.com/gofhir/termsmap/worker"
	"github.com/gofhir/termsmap/xref"
)

var tracer = otel.Tracer("github.com/gofhir/termsmap/builder")

// Request names the inputs of a build.
type Request struct {
	// MeshPath is the MeSH descriptor XML. Optional.
	MeshPath string

	// XrefPaths are MRCONSO extracts. At least one is required.
	XrefPaths []string
}

// Validate checks the request.
func (r Request) Validate() error {
	if len(r.XrefPaths) == 0 {
		return tm.NewError(tm.StatusInvalidArguments, "expected non-empty xref target")
	}
	for _, p := range r.XrefPaths {
		if p == "" {
			return tm.NewError(tm.StatusInvalidArguments, "expected non-empty xref target")
		}
	}
	return nil
}

// DocumentSummary describes one loaded and written document.
type DocumentSummary struct {
	Path     string
	Records  int
	Pruned   int
	Rows     pipeline.Stats
	LoadTime time.Duration
	Outputs  []string
}

// Summary describes a finished build.
type Summary struct {
	RunID    string
	Mesh     *DocumentSummary
	Xrefs    []DocumentSummary
	Duration time.Duration
}

// Outputs returns every written location, MeSH first.
func (s *Summary) Outputs() []string {
	var out []string
	if s.Mesh != nil {
		out = append(out, s.Mesh.Outputs...)
	}
	for _, x := range s.Xrefs {
		out = append(out, x.Outputs...)
	}
	return out
}

// Builder runs builds with one configuration.
type Builder struct {
	opener *source.Opener
	opts   []tm.Option
	o      *tm.Options
}

// New creates a Builder. A nil opener reads and writes local files only.
func New(opener *source.Opener, opts ...tm.Option) *Builder {
	if opener == nil {
		opener = source.NewOpener()
	}
	return &Builder{opener: opener, opts: opts, o: tm.NewOptions(opts...)}
}

// Run builds req with a local-only Builder.
func Run(ctx context.Context, req Request, opts ...tm.Option) (*Summary, error) {
	return New(nil, opts...).Run(ctx, req)
}

// Run executes a build. The first failing load or write aborts it; the
// returned Summary then covers what completed.
func (b *Builder) Run(ctx context.Context, req Request) (summary *Summary, err error) {
	summary = &Summary{RunID: uuid.NewString()}
	start := time.Now()
	log := b.o.Logger.With(slog.String("run_id", summary.RunID))

	ctx, span := tracer.Start(ctx, "builder.Run", trace.WithAttributes(
		attribute.String("builder.run_id", summary.RunID),
		attribute.String("builder.mesh", req.MeshPath),
		attribute.StringSlice("builder.xrefs", req.XrefPaths),
	))
	defer span.End()
	defer func() {
		summary.Duration = time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, tm.StatusOf(err).String())
			log.Error("build failed", "status", tm.StatusOf(err), "error", err)
			return
		}
		log.Info("build finished", "xrefs", len(summary.Xrefs), "duration", summary.Duration)
	}()

	if err := req.Validate(); err != nil {
		return summary, err
	}

	opts := append(slices.Clone(b.opts), tm.WithLogger(log))
	writer := export.NewWriter(b.opener, opts...)

	var (
		ids   xref.Identifiers
		names export.Namer
	)
	if req.MeshPath != "" {
		doc, err := mesh.Load(ctx, b.opener, req.MeshPath, opts...)
		if err != nil {
			return summary, err
		}
		defer doc.Close()

		outputs, err := writer.WriteMesh(ctx, req.MeshPath, doc)
		if err != nil {
			return summary, err
		}
		summary.Mesh = &DocumentSummary{
			Path:     req.MeshPath,
			Records:  doc.Len(),
			LoadTime: doc.LoadTime(),
			Outputs:  outputs,
		}
		ids, names = doc, doc
	}

	pool := worker.NewPool(func(ctx context.Context, job worker.Job) (DocumentSummary, error) {
		return b.xref(ctx, job.Input, ids, names, writer, opts)
	}, b.o.Workers, worker.WithFailFast())

	batch := pool.Run(ctx, worker.Jobs(req.XrefPaths...))
	for _, r := range batch.Results {
		if r.Err == nil {
			summary.Xrefs = append(summary.Xrefs, r.Value)
		}
	}
	return summary, firstError(batch)
}

// firstError returns the earliest load failure, preferring real failures
// over jobs skipped because of one.
func firstError[T any](batch *worker.BatchResult[T]) error {
	var skipped error
	for _, r := range batch.Results {
		switch {
		case r.Err == nil:
		case errors.Is(r.Err, context.Canceled):
			if skipped == nil {
				skipped = r.Err
			}
		default:
			return r.Err
		}
	}
	return skipped
}

func (b *Builder) xref(ctx context.Context, path string, ids xref.Identifiers, names export.Namer, w *export.Writer, opts []tm.Option) (DocumentSummary, error) {
	doc, err := xref.Load(ctx, b.opener, path, ids, opts...)
	if err != nil {
		return DocumentSummary{}, err
	}
	defer doc.Close()

	outputs, err := w.WriteXref(ctx, path, doc, names)
	if err != nil {
		return DocumentSummary{}, err
	}
	return DocumentSummary{
		Path:     path,
		Records:  doc.Len(),
		Pruned:   doc.Pruned(),
		Rows:     doc.Stats(),
		LoadTime: doc.LoadTime(),
		Outputs:  outputs,
	}, nil
}
