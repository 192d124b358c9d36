package termsmap

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, byte('|'), opts.Delimiter)
	assert.Equal(t, DefaultArenaRegionSize, opts.ArenaRegionSize)
	assert.Zero(t, opts.ArenaMaxBytes)
	assert.Equal(t, runtime.NumCPU(), opts.Workers)
	assert.Equal(t, []Format{FormatCSV}, opts.Formats)
	assert.NotNil(t, opts.Logger)
	assert.Nil(t, opts.Metrics)
}

func TestNewOptions(t *testing.T) {
	m := NewMetrics()
	logger := slog.Default()

	opts := NewOptions(
		WithDelimiter('\t'),
		WithArenaRegionSize(8192),
		WithArenaMaxBytes(1<<20),
		WithWorkers(3),
		WithOutputDir("/tmp/out"),
		WithFormats(FormatFHIR, FormatCSV, FormatFHIR),
		WithExpressionCache(10),
		WithLogger(logger),
		WithMetrics(m),
		WithConsistencyPass(false),
		nil,
	)

	assert.Equal(t, byte('\t'), opts.Delimiter)
	assert.Equal(t, 8192, opts.ArenaRegionSize)
	assert.Equal(t, int64(1<<20), opts.ArenaMaxBytes)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, "/tmp/out", opts.OutputDir)
	assert.Equal(t, []Format{FormatFHIR, FormatCSV}, opts.Formats)
	assert.Equal(t, 10, opts.ExpressionCacheSize)
	assert.Same(t, logger, opts.Logger)
	assert.Same(t, m, opts.Metrics)
	assert.True(t, opts.SkipConsistency)
}

func TestOptions_IgnoresInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		check func(t *testing.T, o *Options)
	}{
		{"zero delimiter", WithDelimiter(0), func(t *testing.T, o *Options) { assert.Equal(t, byte('|'), o.Delimiter) }},
		{"newline delimiter", WithDelimiter('\n'), func(t *testing.T, o *Options) { assert.Equal(t, byte('|'), o.Delimiter) }},
		{"negative region", WithArenaRegionSize(-1), func(t *testing.T, o *Options) { assert.Equal(t, DefaultArenaRegionSize, o.ArenaRegionSize) }},
		{"negative limit", WithArenaMaxBytes(-5), func(t *testing.T, o *Options) { assert.Zero(t, o.ArenaMaxBytes) }},
		{"zero workers", WithWorkers(0), func(t *testing.T, o *Options) { assert.Equal(t, runtime.NumCPU(), o.Workers) }},
		{"unknown format", WithFormats("xml"), func(t *testing.T, o *Options) { assert.Equal(t, []Format{FormatCSV}, o.Formats) }},
		{"nil logger", WithLogger(nil), func(t *testing.T, o *Options) { require.NotNil(t, o.Logger) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, NewOptions(tt.opt))
		})
	}
}

func TestOptions_HasFormat(t *testing.T) {
	opts := NewOptions(WithFormats(FormatFHIR))
	assert.True(t, opts.HasFormat(FormatFHIR))
	assert.False(t, opts.HasFormat(FormatCSV))
}
