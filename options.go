package termsmap

import (
	"log/slog"
	"runtime"
	"slices"
)

// DefaultDelimiter separates columns in MRCONSO-style extracts.
const DefaultDelimiter = '|'

// DefaultArenaRegionSize is the preferred arena region size in bytes.
const DefaultArenaRegionSize = 4096

// Format names an output serialisation produced by the builder.
type Format string

// Supported output formats.
const (
	// FormatCSV writes one pipe-delimited line per record to <input>.out.csv.
	FormatCSV Format = "csv"
	// FormatFHIR writes FHIR R4 JSON (a CodeSystem for MeSH, a ConceptMap for xrefs).
	FormatFHIR Format = "fhir"
)

// IsValid reports whether f is a supported format.
func (f Format) IsValid() bool {
	return f == FormatCSV || f == FormatFHIR
}

// Option configures a load or build.
type Option func(*Options)

// Options holds all configuration shared by the documents and the builder.
type Options struct {
	// Delimiter is the single column separator byte.
	Delimiter byte

	// ArenaRegionSize is the preferred size of each arena region.
	ArenaRegionSize int

	// ArenaMaxBytes caps the bytes an arena may reserve (0 = unlimited).
	ArenaMaxBytes int64

	// SkipConsistency keeps unpaired xref uid groups.
	SkipConsistency bool

	// Workers bounds concurrent xref loads in the builder.
	Workers int

	// OutputDir receives output files. Empty means next to each input.
	OutputDir string

	// Formats lists the output serialisations to produce.
	Formats []Format

	// ExpressionCacheSize bounds the compiled FHIRPath expression cache.
	ExpressionCacheSize int

	Logger  *slog.Logger
	Metrics *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Delimiter:           DefaultDelimiter,
		ArenaRegionSize:     DefaultArenaRegionSize,
		ArenaMaxBytes:       0, // unlimited
		Workers:             runtime.NumCPU(),
		Formats:             []Format{FormatCSV},
		ExpressionCacheSize: 256,
		Logger:              slog.New(slog.DiscardHandler),
	}
}

// NewOptions applies opts over DefaultOptions.
func NewOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// HasFormat reports whether f was requested.
func (o *Options) HasFormat(f Format) bool {
	return slices.Contains(o.Formats, f)
}

// WithDelimiter sets the column delimiter.
func WithDelimiter(delim byte) Option {
	return func(o *Options) {
		if delim != 0 && delim != '\n' {
			o.Delimiter = delim
		}
	}
}

// WithArenaRegionSize sets the preferred arena region size.
func WithArenaRegionSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ArenaRegionSize = size
		}
	}
}

// WithArenaMaxBytes caps arena reservations. Use 0 for unlimited.
func WithArenaMaxBytes(limit int64) Option {
	return func(o *Options) {
		if limit >= 0 {
			o.ArenaMaxBytes = limit
		}
	}
}

// WithConsistencyPass enables or disables pruning of xref uid groups
// that do not pair MeSH with SNOMED CT. Enabled by default.
func WithConsistencyPass(enabled bool) Option {
	return func(o *Options) {
		o.SkipConsistency = !enabled
	}
}

// WithWorkers sets the number of concurrent xref loads.
// Defaults to runtime.NumCPU().
func WithWorkers(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.Workers = count
		}
	}
}

// WithOutputDir sets the output directory.
func WithOutputDir(dir string) Option {
	return func(o *Options) {
		o.OutputDir = dir
	}
}

// WithFormats replaces the output formats. Unknown formats are ignored.
func WithFormats(formats ...Format) Option {
	return func(o *Options) {
		valid := make([]Format, 0, len(formats))
		for _, f := range formats {
			if f.IsValid() && !slices.Contains(valid, f) {
				valid = append(valid, f)
			}
		}
		if len(valid) > 0 {
			o.Formats = valid
		}
	}
}

// WithExpressionCache sets the FHIRPath expression cache size.
func WithExpressionCache(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ExpressionCacheSize = size
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.Logger = logger
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}
