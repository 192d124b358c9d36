package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/builder"
	"github.com/gofhir/termsmap/export"
	"github.com/gofhir/termsmap/mesh"
	"github.com/gofhir/termsmap/xref"
)

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [xref-file...]",
		Short: "Load MeSH and every xref file, then write all outputs",
		Example: `  termsmap build --mesh desc2024.xml MRCONSO.RRF
  termsmap build -c termsmap.yaml --format csv,fhir --output-dir out/
  termsmap build --mesh s3://nlm/desc2024.xml.gz s3://umls/MRCONSO.RRF.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(cmd.Context(), args)
		},
	}
	a.addLoadFlags(cmd)
	f := cmd.Flags()
	f.StringVarP(&a.mesh, "mesh", "m", "", "MeSH descriptor XML file")
	f.IntVarP(&a.workers, "workers", "w", 0, "concurrent xref loads (default: number of CPUs)")
	f.BoolVar(&a.noPrune, "no-prune", false, "keep xref groups that do not pair MeSH with SNOMED CT")
	f.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while building")
	return cmd
}

func (a *app) build(ctx context.Context, args []string) error {
	req := builder.Request{MeshPath: a.cfg.Mesh, XrefPaths: a.cfg.Xref}
	if len(args) > 0 {
		req.XrefPaths = args
	}

	if a.cfg.Metrics.Addr != "" {
		stop, err := serveMetrics(a.cfg.Metrics.Addr, a.metrics, a.log)
		if err != nil {
			return err
		}
		defer stop()
	}

	summary, err := builder.New(a.opener, a.options()...).Run(ctx, req)
	if err != nil {
		return err
	}
	return a.printSummary(summary)
}

func (a *app) printSummary(s *builder.Summary) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tRECORDS\tFILTERED\tDUPLICATE\tPRUNED\tLOAD TIME")
	if s.Mesh != nil {
		fmt.Fprintf(tw, "%s\t%d\t-\t-\t-\t%s\n", s.Mesh.Path, s.Mesh.Records, s.Mesh.LoadTime.Round(time.Millisecond))
	}
	for _, x := range s.Xrefs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			x.Path, x.Records, x.Rows.Filtered, x.Rows.Duplicate, x.Pruned, x.LoadTime.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, out := range s.Outputs() {
		fmt.Fprintf(a.stdout, "wrote %s\n", out)
	}
	return nil
}

func newMeshCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mesh <descriptor-file>",
		Short: "Load a MeSH descriptor file and write its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeMesh(cmd.Context(), args[0])
		},
	}
	a.addLoadFlags(cmd)
	return cmd
}

func (a *app) writeMesh(ctx context.Context, path string) error {
	opts := a.options()
	doc, err := mesh.Load(ctx, a.opener, path, opts...)
	if err != nil {
		return err
	}
	defer doc.Close()

	outputs, err := export.NewWriter(a.opener, opts...).WriteMesh(ctx, path, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s: %d records\n", path, doc.Len())
	for _, out := range outputs {
		fmt.Fprintf(a.stdout, "wrote %s\n", out)
	}
	return nil
}

func newXrefCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xref <mrconso-file>...",
		Short: "Load xref files one by one and write their records",
		Long: "Load MRCONSO extracts one at a time and write their records. With --mesh,\n" +
			"MSH rows are kept only when the descriptor file defines their code; the\n" +
			"MeSH output itself is not written.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeXrefs(cmd.Context(), args)
		},
	}
	a.addLoadFlags(cmd)
	f := cmd.Flags()
	f.StringVarP(&a.mesh, "mesh", "m", "", "MeSH descriptor XML file to check MSH codes against")
	f.BoolVar(&a.noPrune, "no-prune", false, "keep xref groups that do not pair MeSH with SNOMED CT")
	return cmd
}

func (a *app) writeXrefs(ctx context.Context, paths []string) error {
	opts := a.options()
	var (
		ids   xref.Identifiers
		names export.Namer
	)
	if a.cfg.Mesh != "" {
		doc, err := mesh.Load(ctx, a.opener, a.cfg.Mesh, opts...)
		if err != nil {
			return err
		}
		defer doc.Close()
		ids, names = doc, doc
	}

	w := export.NewWriter(a.opener, opts...)
	for _, path := range paths {
		if err := a.writeXref(ctx, w, path, ids, names, opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) writeXref(ctx context.Context, w *export.Writer, path string, ids xref.Identifiers, names export.Namer, opts []tm.Option) error {
	doc, err := xref.Load(ctx, a.opener, path, ids, opts...)
	if err != nil {
		return err
	}
	defer doc.Close()

	outputs, err := w.WriteXref(ctx, path, doc, names)
	if err != nil {
		return err
	}
	st := doc.Stats()
	fmt.Fprintf(a.stdout, "%s: %d records (%d filtered, %d duplicate, %d pruned)\n",
		path, doc.Len(), st.Filtered, st.Duplicate, doc.Pruned())
	for _, out := range outputs {
		fmt.Fprintf(a.stdout, "wrote %s\n", out)
	}
	return nil
}
