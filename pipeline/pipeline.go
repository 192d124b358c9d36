// Package pipeline turns delimited lines into arena-backed records.
//
// Every line passes the same stages in a fixed order:
//
//  1. Split the line into columns
//  2. Filter: drop the row if the predicate rejects it
//  3. Select the columns the record needs
//  4. Test: drop the row if an equal record is already stored
//  5. Build: pack the columns into one arena allocation and build the record
//
// Empty, filtered and duplicate rows are normal outcomes, not errors.
// Only allocation and builder failures abort a run.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
	"github.com/gofhir/termsmap/pool"
)

// Outcome classifies what happened to one line.
type Outcome uint8

const (
	// OutcomeEmpty means the line split into no columns.
	OutcomeEmpty Outcome = iota
	// OutcomeFiltered means the filter rejected the row.
	OutcomeFiltered
	// OutcomeDuplicate means the tester found an equal record.
	OutcomeDuplicate
	// OutcomeBuilt means a record was produced.
	OutcomeBuilt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeBuilt:
		return "built"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Stats counts line outcomes.
type Stats struct {
	Lines     uint64
	Empty     uint64
	Filtered  uint64
	Duplicate uint64
	Built     uint64
}

func (s *Stats) record(o Outcome) {
	switch o {
	case OutcomeEmpty:
		s.Empty++
	case OutcomeFiltered:
		s.Filtered++
	case OutcomeDuplicate:
		s.Duplicate++
	case OutcomeBuilt:
		s.Built++
	}
}

// Option configures the optional stages.
type Option func(*stages)

type stages struct {
	splitter Splitter
	filter   Filter
	selector Selector
	tester   Tester
}

// WithSplitter replaces the default '|' splitter.
func WithSplitter(s Splitter) Option {
	return func(st *stages) {
		if s != nil {
			st.splitter = s
		}
	}
}

// WithDelimiter uses a DelimiterSplitter on delim.
func WithDelimiter(delim byte) Option {
	return WithSplitter(DelimiterSplitter{Delim: delim})
}

// WithFilter sets the row filter.
func WithFilter(f Filter) Option {
	return func(st *stages) { st.filter = f }
}

// WithSelector sets the column selector.
func WithSelector(s Selector) Option {
	return func(st *stages) { st.selector = s }
}

// WithTester enables the uniqueness stage.
func WithTester(t Tester) Option {
	return func(st *stages) { st.tester = t }
}

// Pipeline runs lines through the stages. It is not safe for concurrent use;
// run one Pipeline per document.
type Pipeline[R any] struct {
	arena   *arena.Arena
	builder Builder[R]
	stages

	row    Row
	cols   *[][]byte
	fields [][]byte
	stats  Stats
}

// New creates a Pipeline that allocates from a and builds records with b.
func New[R any](a *arena.Arena, b Builder[R], opts ...Option) *Pipeline[R] {
	p := &Pipeline[R]{
		arena:   a,
		builder: b,
		stages: stages{
			splitter: DelimiterSplitter{Delim: tm.DefaultDelimiter},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&p.stages)
		}
	}
	p.cols = pool.AcquireColumns()
	p.row.Cols = *p.cols
	return p
}

// Close returns pooled buffers. The pipeline must not be used afterwards.
func (p *Pipeline[R]) Close() {
	if p.cols == nil {
		return
	}
	*p.cols = p.row.Cols
	pool.ReleaseColumns(p.cols)
	p.cols = nil
	p.row.Cols = nil
}

// Stats returns the outcome counts so far.
func (p *Pipeline[R]) Stats() Stats {
	return p.stats
}

// Process runs one line through all stages.
// A record is returned only with OutcomeBuilt.
func (p *Pipeline[R]) Process(line []byte) (R, Outcome, error) {
	var zero R
	p.stats.Lines++

	rec, outcome, err := p.process(line)
	if err != nil {
		return zero, outcome, err
	}
	p.stats.record(outcome)
	return rec, outcome, nil
}

func (p *Pipeline[R]) process(line []byte) (R, Outcome, error) {
	var zero R
	row := &p.row
	row.Reset()

	p.splitter.Split(line, row)
	if !row.Ok() {
		return zero, OutcomeEmpty, nil
	}
	if p.filter != nil && p.filter.Reject(row.Cols) {
		return zero, OutcomeFiltered, nil
	}
	if p.selector != nil {
		p.selector.Select(row)
		if len(row.Cols) == 0 || row.Size == 0 {
			row.Status = tm.StatusNoRowData
			return zero, OutcomeEmpty, nil
		}
	}
	if p.tester != nil && p.tester.Exists(row.Cols) {
		return zero, OutcomeDuplicate, nil
	}

	ref, buf, err := p.arena.Alloc(row.Size)
	if err != nil {
		return zero, OutcomeBuilt, &tm.Error{
			Status:  tm.StatusAllocation,
			Message: describeRow(row),
			Err:     err,
		}
	}

	p.fields = p.fields[:0]
	off := 0
	for _, col := range row.Cols {
		n := copy(buf[off:], col)
		buf[off+n] = 0
		p.fields = append(p.fields, buf[off:off+n:off+n])
		off += n + 1
	}

	rec, err := p.builder.Build(ref, p.fields)
	clear(p.fields)
	if err != nil {
		if tm.StatusOf(err) == tm.StatusUnknown {
			err = tm.WrapError(tm.StatusPolicy, err)
		}
		return zero, OutcomeBuilt, err
	}
	return rec, OutcomeBuilt, nil
}

func describeRow(row *Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unable to allocate row of Size%d with data: |", row.Size)
	for _, col := range row.Cols {
		b.WriteByte(' ')
		b.Write(col)
		b.WriteString(" |")
	}
	return b.String()
}

// LineReader yields raw lines. Next returns io.EOF after the last line.
// The returned slice is only valid until the next call.
type LineReader interface {
	Next() ([]byte, error)
}

// Run feeds every line from r through the pipeline and passes each built
// record to emit. Read failures are reported as StatusLineRead.
func (p *Pipeline[R]) Run(r LineReader, emit func(R) error) error {
	for {
		line, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if tm.StatusOf(err) == tm.StatusUnknown {
				err = tm.WrapError(tm.StatusLineRead, err)
			}
			return err
		}

		rec, outcome, err := p.Process(line)
		if err != nil {
			return err
		}
		if outcome != OutcomeBuilt {
			continue
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
}
