// Package termsmap builds cross-reference tables between MeSH and SNOMED CT
// from the NLM MeSH descriptor XML and the UMLS MRCONSO.RRF concept file.
//
// The root package holds the pieces shared by every stage: the Status and
// Error types returned across package boundaries, functional Options,
// lock-free Metrics with a Prometheus Collector, and the CodingSystem
// identities used when exporting FHIR resources.
//
// # Quick Start
//
//	import (
//	    tm "github.com/gofhir/termsmap"
//	    "github.com/gofhir/termsmap/builder"
//	)
//
//	summary, err := builder.Run(ctx, builder.Request{
//	    MeshPath:  "desc2024.xml",
//	    XrefPaths: []string{"MRCONSO.RRF"},
//	}, tm.WithWorkers(4), tm.WithFormats(tm.FormatCSV, tm.FormatFHIR))
//	if err != nil {
//	    log.Fatal(tm.ResultOf(err).Description())
//	}
//
// # Packages
//
//   - arena: region-based bump allocator with generation-checked references
//   - pipeline: split, filter, select, test and build rows from delimited lines
//   - source: local or S3 inputs with transparent decompression
//   - xmltree: streaming access to the direct children of an XML root
//   - mesh: MeSH descriptor walker and record store
//   - xref: MRCONSO row policies, cross-reference store and consistency pass
//   - export: CSV and FHIR R4 writers plus FHIRPath queries
//   - builder: orchestrates a MeSH load followed by concurrent xref loads
//   - config: YAML configuration for the termsmap command
//   - cache, pool, worker: generic LRU, sync.Pool helpers and an errgroup job pool
//   - pkg/logger: log/slog construction from level and format names
//
// # Memory
//
// Record text lives in arena regions owned by the document that loaded it.
// Records hold arena references rather than Go strings, so a document can be
// released in one step and stale references are detected on access.
package termsmap
