// Package mesh loads the NLM MeSH descriptor XML into an arena-backed store.
//
// Each DescriptorRecord becomes a record, followed by its concepts and
// allowable qualifiers (parented to the descriptor) and each concept's terms
// (parented to the concept). Any malformed record aborts the whole load:
// a Document either holds every record of the file or does not exist.
package mesh

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
	"github.com/gofhir/termsmap/source"
	"github.com/gofhir/termsmap/xmltree"
)

var tracer = otel.Tracer("github.com/gofhir/termsmap/mesh")

// Opener opens a location for reading.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Document is a loaded MeSH file. It owns its arena; entries obtained from
// it are valid until Close.
type Document struct {
	path     string
	arena    *arena.Arena
	store    *Store
	loadTime time.Duration
}

// Load opens path with open (a default source.Opener when nil) and parses it.
func Load(ctx context.Context, open Opener, path string, opts ...tm.Option) (*Document, error) {
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

	doc, err := parse(ctx, rc, path, o)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse reads a MeSH document from r.
func Parse(ctx context.Context, r io.Reader, opts ...tm.Option) (*Document, error) {
	return parse(ctx, r, "", tm.NewOptions(opts...))
}

func parse(ctx context.Context, r io.Reader, path string, o *tm.Options) (doc *Document, err error) {
	_, span := tracer.Start(ctx, "mesh.Load")
	defer span.End()
	span.SetAttributes(attribute.String("mesh.path", path))

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
		o.Metrics.RecordStage("mesh", elapsed, doc.Len())
		o.Metrics.RecordMeshRecords(doc.Len())
		span.SetAttributes(attribute.Int("mesh.records", doc.Len()))
	}()

	a, err := arena.New(o.ArenaRegionSize, arena.WithMaxBytes(o.ArenaMaxBytes))
	if err != nil {
		return nil, &tm.Error{Status: tm.StatusAllocation, Message: err.Error(), Err: err}
	}

	doc = &Document{path: path, arena: a, store: NewStore(a)}
	if err := doc.read(r); err != nil {
		doc.Close()
		return nil, err
	}

	st := a.Stats()
	o.Metrics.RecordArena(st.BytesReserved, st.BytesUsed)
	o.Logger.Info("mesh document loaded",
		"path", path,
		"records", doc.Len(),
		"regions", st.Regions,
		"bytes_reserved", st.BytesReserved,
		"duration", time.Since(start))
	return doc, nil
}

func (d *Document) read(r io.Reader) error {
	xr := xmltree.NewReader(r)
	if err := xr.Root(RootTag); err != nil {
		return err
	}

	w := &walker{store: d.store}
	for {
		n, err := xr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n.Name() != RecordTag {
			continue
		}
		if err := w.walk(n, KindDescriptorRecord, arena.Ref{}); err != nil {
			return err
		}
	}
}

// Path returns the location the document was loaded from.
func (d *Document) Path() string { return d.path }

// LoadTime returns how long parsing took.
func (d *Document) LoadTime() time.Duration { return d.loadTime }

// Result reports the load outcome. A Document only exists after a
// successful load.
func (d *Document) Result() tm.Result { return tm.Success() }

// Ok reports whether the document is loaded and not yet closed.
func (d *Document) Ok() bool { return d != nil && d.arena != nil }

// Store returns the record store.
func (d *Document) Store() *Store { return d.store }

// Len returns the number of records.
func (d *Document) Len() int { return d.store.Len() }

// HasIdentifier reports whether uid is a known descriptor, qualifier,
// concept or term.
func (d *Document) HasIdentifier(uid string) bool { return d.store.HasIdentifier(uid) }

// Lookup returns the records with the given uid.
func (d *Document) Lookup(uid string) []Entry { return d.store.Lookup(uid) }

// Records yields every record in document order.
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
