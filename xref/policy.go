package xref

import (
	"bytes"
	"errors"

	"github.com/dlclark/regexp2"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
	"github.com/gofhir/termsmap/pipeline"
)

// MRCONSO.RRF layout.
const (
	ColumnCount    = 18
	ColumnCUI      = 0
	ColumnLanguage = 1
	ColumnSource   = 11
	ColumnTarget   = 13
	ColumnSuppress = 16
)

// CodingPattern matches the source abbreviations that take part in the
// cross-reference: any SNOMED edition except veterinary ones, and MeSH.
const CodingPattern = `^(SNOMED(?!.*?VET$))|^(MSH)`

var (
	codingPattern = regexp2.MustCompile(CodingPattern, regexp2.None)

	english    = []byte("ENG")
	obsolete   = []byte("O")
	meshSource = []byte(tm.MeSH)
)

// Identifiers is the lookup-only view of a loaded MeSH document.
type Identifiers interface {
	HasIdentifier(uid string) bool
}

// ConsoFilter rejects MRCONSO rows that cannot contribute a cross-reference.
type ConsoFilter struct {
	mesh Identifiers
}

// NewConsoFilter creates the row filter. mesh may be nil, in which case
// MeSH rows are not cross-checked.
func NewConsoFilter(mesh Identifiers) *ConsoFilter {
	return &ConsoFilter{mesh: mesh}
}

// Reject implements pipeline.Filter.
func (f *ConsoFilter) Reject(cols [][]byte) bool {
	if len(cols) < ColumnCount {
		return true
	}
	if !bytes.Equal(cols[ColumnLanguage], english) || bytes.Equal(cols[ColumnSuppress], obsolete) {
		return true
	}

	sab, code := cols[ColumnSource], cols[ColumnTarget]
	if len(sab) < 1 || len(code) < 3 {
		return true
	}

	matched := MatchesCoding(sab)
	if f.mesh == nil {
		return !matched
	}
	if !matched {
		return true
	}
	if bytes.HasPrefix(sab, meshSource) {
		return !f.mesh.HasIdentifier(string(code))
	}
	return false
}

// MatchesCoding reports whether a source abbreviation is a SNOMED (non-VET)
// or MeSH source.
func MatchesCoding(sab []byte) bool {
	ok, err := codingPattern.MatchString(string(sab))
	return err == nil && ok
}

// Selected is the column projection applied before building records.
var Selected = pipeline.ColumnSelector{Indices: []int{ColumnCUI, ColumnSource, ColumnTarget}}

var errFieldCount = errors.New("xref: expected uid, source and target fields")

// buildRecord packs the selected columns into a Record.
func buildRecord(ref arena.Ref, fields [][]byte) (Record, error) {
	if len(fields) != 3 {
		return Record{}, tm.WrapError(tm.StatusPolicy, errFieldCount)
	}
	return Record{
		buf:    ref,
		uidLen: uint32(len(fields[0])), //nolint:gosec // bounded by arena region size
		srcLen: uint32(len(fields[1])), //nolint:gosec // bounded by arena region size
		trgLen: uint32(len(fields[2])), //nolint:gosec // bounded by arena region size
	}, nil
}
