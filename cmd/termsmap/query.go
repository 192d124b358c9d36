package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/export"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		exprs  []string
		asBool bool
	)
	cmd := &cobra.Command{
		Use:   "query -e <expression> <resource.json>...",
		Short: "Evaluate FHIRPath expressions against exported FHIR resources",
		Example: `  termsmap query -e "concept.count()" desc2024.xml.out.json
  termsmap query -e "group.element.where(code = 'D000001').target.code" MRCONSO.RRF.out.json
  termsmap query --bool -e "group.exists()" MRCONSO.RRF.out.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(exprs) == 0 {
				return tm.NewError(tm.StatusInvalidArguments, "at least one --expression is required")
			}
			return a.query(cmd.Context(), exprs, args, asBool)
		},
	}
	cmd.Flags().StringArrayVarP(&exprs, "expression", "e", nil, "FHIRPath expression (repeatable)")
	cmd.Flags().BoolVar(&asBool, "bool", false, "print each result as a FHIRPath boolean")
	return cmd
}

func (a *app) query(ctx context.Context, exprs, paths []string, asBool bool) error {
	ev := export.NewEvaluator(a.options()...)
	for _, path := range paths {
		data, err := a.readAll(ctx, path)
		if err != nil {
			return err
		}
		for _, expr := range exprs {
			if len(paths) > 1 || len(exprs) > 1 {
				fmt.Fprintf(a.stdout, "# %s: %s\n", path, expr)
			}
			if asBool {
				ok, err := ev.Bool(expr, data)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, ok)
				continue
			}
			values, err := ev.Strings(expr, data)
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(a.stdout, v)
			}
		}
	}
	return nil
}

func (a *app) readAll(ctx context.Context, path string) ([]byte, error) {
	rc, err := a.opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &tm.Error{Status: tm.StatusFileInit, Message: path, Err: err}
	}
	return data, nil
}
