package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/config"
	"github.com/gofhir/termsmap/pkg/logger"
	"github.com/gofhir/termsmap/source"
)

// app holds the state shared by every command after flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	mesh        string
	delimiter   string
	outputDir   string
	formats     []string
	workers     int
	noPrune     bool
	logLevel    string
	logFormat   string
	metricsAddr string

	cfg     *config.Config
	log     *slog.Logger
	metrics *tm.Metrics
	opener  *source.Opener
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "termsmap",
		Short:         "Build MeSH to SNOMED CT cross-reference tables",
		Long:          "termsmap loads a MeSH descriptor XML file and UMLS MRCONSO extracts,\nand writes their records as pipe-delimited tables or FHIR R4 resources.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, none")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text, json")

	root.AddCommand(
		newBuildCmd(a),
		newMeshCmd(a),
		newXrefCmd(a),
		newQueryCmd(a),
		newVersionCmd(a),
	)
	return root
}

// addLoadFlags registers the flags shared by the commands that load inputs.
func (a *app) addLoadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.delimiter, "delimiter", "d", "", "column delimiter byte (default \"|\")")
	f.StringVarP(&a.outputDir, "output-dir", "o", "", "directory for output files (default: next to each input)")
	f.StringSliceVarP(&a.formats, "format", "f", nil, "output formats: csv, fhir")
}

// setup loads the configuration file, applies flag overrides and builds
// the logger, metrics and opener.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mesh") {
		cfg.Mesh = a.mesh
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = a.delimiter
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = a.outputDir
	}
	if flags.Changed("format") {
		cfg.Output.Formats = a.formats
	}
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("no-prune") {
		enabled := !a.noPrune
		cfg.Consistency = &enabled
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opener, err := cfg.Opener()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = cfg.Logger(a.stderr)
	logger.SetDefault(a.log)
	a.metrics = tm.NewMetrics()
	a.opener = opener
	return nil
}

// options returns the load options for the current configuration.
func (a *app) options() []tm.Option {
	return append(a.cfg.Options(),
		tm.WithLogger(a.log),
		tm.WithMetrics(a.metrics),
	)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the termsmap version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(a.stdout, "termsmap v"+tm.Version+"\n")
			return err
		},
	}
}
