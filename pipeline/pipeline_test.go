package pipeline

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tm "github.com/gofhir/termsmap"
	"github.com/gofhir/termsmap/arena"
)

type triple struct {
	ref    arena.Ref
	fields []string
}

func tripleBuilder(want int) Builder[triple] {
	return BuilderFunc[triple](func(ref arena.Ref, fields [][]byte) (triple, error) {
		if len(fields) != want {
			return triple{}, errors.New("unexpected field count")
		}
		out := triple{ref: ref}
		for _, f := range fields {
			out.fields = append(out.fields, string(f))
		}
		return out, nil
	})
}

type sliceReader struct {
	lines []string
	err   error
}

func (r *sliceReader) Next() ([]byte, error) {
	if len(r.lines) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return []byte(line), nil
}

func newArena(t *testing.T, opts ...arena.Option) *arena.Arena {
	t.Helper()
	a, err := arena.New(64, opts...)
	require.NoError(t, err)
	return a
}

func TestDelimiterSplitter(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		cols   []string
		size   int
		status tm.Status
	}{
		{"three columns", "a|bb|ccc|", []string{"a", "bb", "ccc"}, 9, tm.StatusSuccessful},
		{"trailing text dropped", "a|b|tail", []string{"a", "b"}, 4, tm.StatusSuccessful},
		{"stops at newline", "a|b|\nc|d|", []string{"a", "b"}, 4, tm.StatusSuccessful},
		{"empty columns count", "||", []string{"", ""}, 2, tm.StatusSuccessful},
		{"no delimiter", "abc", nil, 0, tm.StatusNoRowData},
		{"empty line", "", nil, 0, tm.StatusNoRowData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var row Row
			row.Reset()
			DelimiterSplitter{Delim: '|'}.Split([]byte(tt.line), &row)

			var got []string
			for _, c := range row.Cols {
				got = append(got, string(c))
			}
			assert.Equal(t, tt.cols, got)
			assert.Equal(t, tt.size, row.Size)
			assert.Equal(t, tt.status, row.Status)
		})
	}
}

func TestDelimiterSplitter_BorrowsLine(t *testing.T) {
	line := []byte("x|y|")
	var row Row
	DelimiterSplitter{}.Split(line, &row)

	require.Len(t, row.Cols, 2)
	line[0] = 'z'
	assert.Equal(t, "z", string(row.Cols[0]))
}

func TestColumnSelector(t *testing.T) {
	var row Row
	DelimiterSplitter{Delim: '|'}.Split([]byte("c0|c1|c2|c3|c4|"), &row)

	ColumnSelector{Indices: []int{3, 0, 9}}.Select(&row)

	require.Len(t, row.Cols, 2)
	assert.Equal(t, "c0", string(row.Cols[0]))
	assert.Equal(t, "c3", string(row.Cols[1]))
	assert.Equal(t, 6, row.Size)
	assert.Nil(t, row.Col(2))
}

func TestPipeline_Process(t *testing.T) {
	a := newArena(t)
	seen := map[string]bool{}

	p := New(a, tripleBuilder(2),
		WithFilter(FilterFunc(func(cols [][]byte) bool {
			return len(cols) < 3 || bytes.Equal(cols[1], []byte("FRE"))
		})),
		WithSelector(ColumnSelector{Indices: []int{0, 2}}),
		WithTester(TesterFunc(func(cols [][]byte) bool {
			return seen[string(cols[0])+"|"+string(cols[1])]
		})),
	)
	defer p.Close()

	rec, outcome, err := p.Process([]byte("C001|ENG|123|"))
	require.NoError(t, err)
	require.Equal(t, OutcomeBuilt, outcome)
	assert.Equal(t, []string{"C001", "123"}, rec.fields)
	assert.Equal(t, "C001\x00123\x00", string(a.Bytes(rec.ref)))
	seen["C001|123"] = true

	_, outcome, err = p.Process([]byte("C001|ENG|123|"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	_, outcome, err = p.Process([]byte("C002|FRE|123|"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFiltered, outcome)

	_, outcome, err = p.Process([]byte("no columns"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, outcome)

	assert.Equal(t, Stats{Lines: 4, Empty: 1, Filtered: 1, Duplicate: 1, Built: 1}, p.Stats())
}

func TestPipeline_SelectorLeavesNothing(t *testing.T) {
	p := New(newArena(t), tripleBuilder(1), WithSelector(ColumnSelector{Indices: []int{5}}))
	defer p.Close()

	_, outcome, err := p.Process([]byte("a|b|"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, outcome)
}

func TestPipeline_BuilderFailureIsPolicyError(t *testing.T) {
	p := New(newArena(t), tripleBuilder(5))
	defer p.Close()

	_, _, err := p.Process([]byte("a|b|"))
	require.Error(t, err)
	assert.True(t, tm.IsStatus(err, tm.StatusPolicy))
}

func TestPipeline_BuilderStatusIsKept(t *testing.T) {
	b := BuilderFunc[triple](func(arena.Ref, [][]byte) (triple, error) {
		return triple{}, tm.NewError(tm.StatusInvalidDataType, "bad")
	})
	p := New(newArena(t), b)
	defer p.Close()

	_, _, err := p.Process([]byte("a|"))
	assert.True(t, tm.IsStatus(err, tm.StatusInvalidDataType))
}

func TestPipeline_AllocationFailure(t *testing.T) {
	a := newArena(t, arena.WithMaxBytes(64))
	p := New(a, tripleBuilder(2))
	defer p.Close()

	long := strings.Repeat("x", 100)
	_, _, err := p.Process([]byte("abc|" + long + "|"))
	require.Error(t, err)
	assert.True(t, tm.IsStatus(err, tm.StatusAllocation))
	assert.ErrorIs(t, err, arena.ErrAllocationFailed)
	assert.Equal(t, "Unable to allocate row of Size105 with data: | abc | "+long+" |", tm.ResultOf(err).Message)
}

func TestPipeline_Run(t *testing.T) {
	p := New(newArena(t), tripleBuilder(2), WithDelimiter(','))
	defer p.Close()

	var got [][]string
	r := &sliceReader{lines: []string{"a,b,", "", "c,d,"}}
	err := p.Run(r, func(rec triple) error {
		got = append(got, rec.fields)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, got)
	assert.Equal(t, uint64(3), p.Stats().Lines)
}

func TestPipeline_RunReadError(t *testing.T) {
	p := New(newArena(t), tripleBuilder(2))
	defer p.Close()

	r := &sliceReader{lines: []string{"a|b|"}, err: errors.New("short read")}
	err := p.Run(r, func(triple) error { return nil })
	require.Error(t, err)
	assert.True(t, tm.IsStatus(err, tm.StatusLineRead))
}

func TestPipeline_RunEmitError(t *testing.T) {
	p := New(newArena(t), tripleBuilder(2))
	defer p.Close()

	stop := errors.New("stop")
	err := p.Run(&sliceReader{lines: []string{"a|b|"}}, func(triple) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "built", OutcomeBuilt.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}
