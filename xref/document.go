// Package xref loads UMLS MRCONSO cross-reference rows into an arena-backed
// multimap and prunes uid groups that do not pair MeSH with SNOMED CT.
//
// Rows are streamed through a pipeline.Pipeline: rows in other languages,
// suppressed rows, short rows and rows from other vocabularies are skipped
// silently. When a MeSH document is supplied, MeSH rows must point at a
// known MeSH identifier.
package xref

import (
	"context"
	"io"
	"iter"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
	"github.com/gofhir/termsmap/pipeline"
	"github.com/gofhir/termsmap/source"
)

var tracer = otel.Tracer("github.com/gofhir/termsmap/xref")

// Opener opens a location for reading.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Document is a loaded cross-reference file. It owns its arena; entries
// obtained from it are valid until Close. The MeSH identifiers it was
// filtered against must outlive the load.
type Document struct {
	path     string
	arena    *arena.Arena
	store    *Store
	stats    pipeline.Stats
	pruned   int
	loadTime time.Duration
}

// Load opens path with open (a default source.Opener when nil) and reads it.
// mesh may be nil to skip MeSH cross-validation.
func Load(ctx context.Context, open Opener, path string, mesh Identifiers, opts ...tm.Option) (*Document, error) {
	if open == nil {
		open = source.NewOpener()
	}
	o := tm.NewOptions(opts...)

	rc, err := open.Open(ctx, path)
	if err != nil {
		o.Metrics.RecordLoad(0, false)
		return nil, err
	}
	defer rc.Close()

	return read(ctx, source.NewLines(rc), path, mesh, o)
}

// Parse reads cross-reference rows from r.
func Parse(ctx context.Context, r io.Reader, mesh Identifiers, opts ...tm.Option) (*Document, error) {
	return read(ctx, source.NewLines(r), "", mesh, tm.NewOptions(opts...))
}

func read(ctx context.Context, lines pipeline.LineReader, path string, mesh Identifiers, o *tm.Options) (doc *Document, err error) {
	_, span := tracer.Start(ctx, "xref.Load")
	defer span.End()
	span.SetAttributes(
		attribute.String("xref.path", path),
		attribute.Bool("xref.mesh_filter", mesh != nil),
	)

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		o.Metrics.RecordLoad(elapsed, err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, tm.StatusOf(err).String())
			return
		}
		doc.loadTime = elapsed
		o.Metrics.RecordStage("xref", elapsed, doc.Len())
		span.SetAttributes(
			attribute.Int("xref.records", doc.Len()),
			attribute.Int("xref.pruned_groups", doc.pruned),
		)
	}()

	a, err := arena.New(o.ArenaRegionSize, arena.WithMaxBytes(o.ArenaMaxBytes))
	if err != nil {
		return nil, &tm.Error{Status: tm.StatusAllocation, Message: err.Error(), Err: err}
	}
	doc = &Document{path: path, arena: a, store: NewStore(a)}

	o.Logger.Debug("xref load started", "path", path, "mesh_filter", mesh != nil)

	p := pipeline.New(a, pipeline.BuilderFunc[Record](buildRecord),
		pipeline.WithDelimiter(o.Delimiter),
		pipeline.WithFilter(NewConsoFilter(mesh)),
		pipeline.WithSelector(Selected),
		pipeline.WithTester(doc.store),
	)
	defer p.Close()

	err = p.Run(lines, func(rec Record) error {
		doc.store.Insert(rec)
		return nil
	})
	doc.stats = p.Stats()
	o.Metrics.RecordRows(doc.stats.Lines, doc.stats.Empty, doc.stats.Filtered, doc.stats.Duplicate, doc.stats.Built)
	if err != nil {
		doc.Close()
		return nil, err
	}

	if !o.SkipConsistency {
		doc.pruned = Prune(doc.store)
		o.Metrics.RecordPruned(doc.pruned)
	}
	doc.store.sort()

	st := a.Stats()
	o.Metrics.RecordArena(st.BytesReserved, st.BytesUsed)
	o.Logger.Info("xref document loaded",
		"path", path,
		"lines", doc.stats.Lines,
		"records", doc.Len(),
		"pruned_groups", doc.pruned,
		"regions", st.Regions,
		"bytes_reserved", st.BytesReserved,
		"duration", time.Since(start))
	return doc, nil
}

// Path returns the location the document was loaded from.
func (d *Document) Path() string { return d.path }

// LoadTime returns how long reading and pruning took.
func (d *Document) LoadTime() time.Duration { return d.loadTime }

// Result reports the load outcome. A Document only exists after a
// successful load.
func (d *Document) Result() tm.Result { return tm.Success() }

// Ok reports whether the document is loaded and not yet closed.
func (d *Document) Ok() bool { return d != nil && d.arena != nil }

// Store returns the record store.
func (d *Document) Store() *Store { return d.store }

// Stats returns the row outcome counts of the load.
func (d *Document) Stats() pipeline.Stats { return d.stats }

// Pruned returns the number of uid groups removed by the consistency pass.
func (d *Document) Pruned() int { return d.pruned }

// Len returns the number of surviving records.
func (d *Document) Len() int { return d.store.Len() }

// Lookup returns the records of one uid in key order.
func (d *Document) Lookup(uid string) []Entry { return d.store.Lookup(uid) }

// Records yields every surviving record in key order.
func (d *Document) Records() iter.Seq[Entry] {
	if !d.Ok() {
		return func(func(Entry) bool) {}
	}
	return d.store.All()
}

// ArenaStats returns memory usage of the document's arena.
func (d *Document) ArenaStats() arena.Stats {
	if !d.Ok() {
		return arena.Stats{}
	}
	return d.arena.Stats()
}

// Close frees the document's memory. Entries obtained earlier become invalid.
func (d *Document) Close() {
	if d == nil || d.arena == nil {
		return
	}
	d.store.Reset()
	d.arena.Free()
	d.arena = nil
}
