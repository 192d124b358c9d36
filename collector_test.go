package termsmap

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Count(t *testing.T) {
	c := NewCollector(NewMetrics())
	assert.Equal(t, 14, testutil.CollectAndCount(c))
}

func TestCollector_Values(t *testing.T) {
	m := NewMetrics()
	m.RecordRows(4, 1, 1, 0, 2)
	m.RecordPruned(3)
	m.RecordLoad(2*time.Second, true)

	c := NewCollector(m)

	expected := `
# HELP termsmap_pipeline_rows_total Rows processed, by outcome.
# TYPE termsmap_pipeline_rows_total counter
termsmap_pipeline_rows_total{outcome="built"} 2
termsmap_pipeline_rows_total{outcome="duplicate"} 0
termsmap_pipeline_rows_total{outcome="empty"} 1
termsmap_pipeline_rows_total{outcome="filtered"} 1
# HELP termsmap_xref_groups_pruned_total Cross-reference groups removed by the consistency pass.
# TYPE termsmap_xref_groups_pruned_total counter
termsmap_xref_groups_pruned_total 3
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"termsmap_pipeline_rows_total", "termsmap_xref_groups_pruned_total")
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
}
