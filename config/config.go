// Package config loads the YAML configuration of the termsmap command.
//
// A minimal file:
//
//	mesh: /data/desc2024.xml
//	xref:
//	  - /data/MRCONSO.RRF
//	output:
//	  dir: /data/out
//	  formats: [csv, fhir]
//
// Every field is optional in the file; command-line flags override it and
// Validate runs on the merged result.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/pkg/logger"
	"github.com/gofhir/termsmap/source"
)

// Config is the on-disk configuration.
type Config struct {
	Mesh      string   `yaml:"mesh"`
	Xref      []string `yaml:"xref"`
	Delimiter string   `yaml:"delimiter"`
	Workers   int      `yaml:"workers"`

	// Consistency toggles pruning of unpaired xref groups. Unset means on.
	Consistency *bool `yaml:"consistency"`

	Output  Output           `yaml:"output"`
	Arena   Arena            `yaml:"arena"`
	Log     Log              `yaml:"log"`
	Metrics Metrics          `yaml:"metrics"`
	S3      *source.S3Config `yaml:"s3"`
}

// Output configures where and how results are written.
type Output struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// Arena configures record storage.
type Arena struct {
	RegionSize int   `yaml:"region_size"`
	MaxBytes   int64 `yaml:"max_bytes"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Delimiter: string(tm.DefaultDelimiter),
		Output:    Output{Formats: []string{string(tm.FormatCSV)}},
		Arena:     Arena{RegionSize: tm.DefaultArenaRegionSize},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads path over Default. A missing file is StatusFileNotFound.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &tm.Error{Status: tm.StatusFileNotFound, Message: path, Err: err}
		}
		return nil, &tm.Error{Status: tm.StatusFileInit, Message: path, Err: err}
	}
	return Parse(data)
}

// Parse decodes YAML over Default. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &tm.Error{Status: tm.StatusInvalidArguments, Message: "failed to parse config", Err: err}
	}
	return cfg, nil
}

// Validate checks the values that flags and the file can get wrong.
// Input presence is checked by the command that needs it.
func (c *Config) Validate() error {
	if len(c.Delimiter) != 1 || c.Delimiter == "\n" {
		return tm.NewError(tm.StatusInvalidArguments, "delimiter must be a single byte, got %q", c.Delimiter)
	}
	if c.Workers < 0 {
		return tm.NewError(tm.StatusInvalidArguments, "workers must not be negative")
	}
	if c.Arena.RegionSize < 0 || c.Arena.MaxBytes < 0 {
		return tm.NewError(tm.StatusInvalidArguments, "arena sizes must not be negative")
	}
	for _, f := range c.Output.Formats {
		if !tm.Format(f).IsValid() {
			return tm.NewError(tm.StatusInvalidArguments, "unknown output format %q", f)
		}
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return tm.WrapError(tm.StatusInvalidArguments, err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return tm.WrapError(tm.StatusInvalidArguments, err)
	}
	if c.S3 != nil && c.S3.Endpoint == "" {
		return tm.NewError(tm.StatusInvalidArguments, "s3 endpoint is required")
	}
	return nil
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := logger.ParseLevel(c.Log.Level)
	format, _ := logger.ParseFormat(c.Log.Format)
	return logger.New(w, level, format)
}

// Options converts the configuration to load and build options.
func (c *Config) Options() []tm.Option {
	formats := make([]tm.Format, 0, len(c.Output.Formats))
	for _, f := range c.Output.Formats {
		formats = append(formats, tm.Format(f))
	}
	opts := []tm.Option{
		tm.WithArenaRegionSize(c.Arena.RegionSize),
		tm.WithArenaMaxBytes(c.Arena.MaxBytes),
		tm.WithWorkers(c.Workers),
		tm.WithOutputDir(c.Output.Dir),
		tm.WithFormats(formats...),
	}
	if len(c.Delimiter) == 1 {
		opts = append(opts, tm.WithDelimiter(c.Delimiter[0]))
	}
	if c.Consistency != nil {
		opts = append(opts, tm.WithConsistencyPass(*c.Consistency))
	}
	return opts
}

// Opener builds the source opener, with S3 support when configured.
func (c *Config) Opener() (*source.Opener, error) {
	if c.S3 == nil {
		return source.NewOpener(), nil
	}
	client, err := source.NewS3Client(*c.S3)
	if err != nil {
		return nil, tm.WrapError(tm.StatusFileInit, err)
	}
	return source.NewOpener(source.WithS3Client(client)), nil
}
