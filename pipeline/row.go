package pipeline

import (
	tm "github.com/gofhir/termsmap"
)

// Row is one split input line. Columns borrow the line buffer and are only
// valid until the next line is read.
type Row struct {
	// Cols holds the columns in input order.
	Cols [][]byte

	// Size is the byte size of the packed record: the sum of the column
	// lengths plus one terminator per column.
	Size int

	// Status is StatusSuccessful or StatusNoRowData.
	Status tm.Status
}

// Ok reports whether the row produced data.
func (r *Row) Ok() bool {
	return r.Status == tm.StatusSuccessful
}

// Reset clears the row for reuse, keeping the column capacity.
func (r *Row) Reset() {
	clear(r.Cols)
	r.Cols = r.Cols[:0]
	r.Size = 0
	r.Status = tm.StatusNoRowData
}

// Col returns column i, or nil when the row is shorter.
func (r *Row) Col(i int) []byte {
	if i < 0 || i >= len(r.Cols) {
		return nil
	}
	return r.Cols[i]
}

// PackedSize returns the packed byte size of cols.
func PackedSize(cols [][]byte) int {
	n := 0
	for _, c := range cols {
		n += len(c) + 1
	}
	return n
}
