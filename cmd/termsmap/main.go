// Package main implements the termsmap CLI: it loads a MeSH descriptor
// file and UMLS MRCONSO extracts and writes the MeSH to SNOMED CT
// cross-reference tables.
package main

import (
	"fmt"
	"io"
	"os"

	tm "github.com/gofhir/termsmap"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if tm.IsStatus(err, tm.StatusInvalidArguments) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}
