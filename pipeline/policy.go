package pipeline

import (
	"bytes"
	"slices"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
)

// Splitter turns a raw line into columns.
type Splitter interface {
	Split(line []byte, row *Row)
}

// SplitterFunc adapts a function to Splitter.
type SplitterFunc func(line []byte, row *Row)

// Split implements Splitter.
func (f SplitterFunc) Split(line []byte, row *Row) { f(line, row) }

// Filter decides whether a row is dropped. Reject returns true to drop.
type Filter interface {
	Reject(cols [][]byte) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(cols [][]byte) bool

// Reject implements Filter.
func (f FilterFunc) Reject(cols [][]byte) bool { return f(cols) }

// Selector projects a row onto the columns a record needs.
type Selector interface {
	Select(row *Row)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(row *Row)

// Select implements Selector.
func (f SelectorFunc) Select(row *Row) { f(row) }

// Tester reports whether the selected columns are already stored.
type Tester interface {
	Exists(cols [][]byte) bool
}

// TesterFunc adapts a function to Tester.
type TesterFunc func(cols [][]byte) bool

// Exists implements Tester.
func (f TesterFunc) Exists(cols [][]byte) bool { return f(cols) }

// Builder turns a packed row into a record. ref covers the whole packed
// buffer; fields alias it and exclude the terminators. Builders must not
// retain the fields slice itself.
type Builder[R any] interface {
	Build(ref arena.Ref, fields [][]byte) (R, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc[R any] func(ref arena.Ref, fields [][]byte) (R, error)

// Build implements Builder.
func (f BuilderFunc[R]) Build(ref arena.Ref, fields [][]byte) (R, error) { return f(ref, fields) }

// DelimiterSplitter splits on a single byte and stops at '\n'.
// Text after the last delimiter is not a column.
type DelimiterSplitter struct {
	Delim byte
}

// Split implements Splitter.
func (s DelimiterSplitter) Split(line []byte, row *Row) {
	delim := s.Delim
	if delim == 0 {
		delim = tm.DefaultDelimiter
	}
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	start := 0
	for i, c := range line {
		if c != delim {
			continue
		}
		col := line[start:i:i]
		row.Cols = append(row.Cols, col)
		row.Size += len(col) + 1
		start = i + 1
	}

	if len(row.Cols) == 0 || row.Size == 0 {
		row.Status = tm.StatusNoRowData
		return
	}
	row.Status = tm.StatusSuccessful
}

// ColumnSelector keeps the columns whose index is listed, in input order.
type ColumnSelector struct {
	Indices []int
}

// Select implements Selector.
func (s ColumnSelector) Select(row *Row) {
	kept := row.Cols[:0]
	size := 0
	for i, col := range row.Cols {
		if !slices.Contains(s.Indices, i) {
			continue
		}
		kept = append(kept, col)
		size += len(col) + 1
	}
	clear(row.Cols[len(kept):])
	row.Cols = kept
	row.Size = size
}

// AcceptAll is a Filter that keeps every row.
var AcceptAll Filter = FilterFunc(func([][]byte) bool { return false })
