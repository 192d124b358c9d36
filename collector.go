package termsmap

import "github.com/prometheus/client_golang/prometheus"

const namespace = "termsmap"

// Collector exposes a Metrics instance to Prometheus.
type Collector struct {
	m *Metrics

	documents    *prometheus.Desc
	lines        *prometheus.Desc
	rows         *prometheus.Desc
	meshRecords  *prometheus.Desc
	groupsPruned *prometheus.Desc
	cache        *prometheus.Desc
	loadMax      *prometheus.Desc
	arenaBytes   *prometheus.Desc
}

// NewCollector returns a prometheus.Collector reading from m.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		m: m,
		documents: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "documents_total"),
			"Documents loaded, by outcome.",
			[]string{"outcome"}, nil),
		lines: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "lines_total"),
			"Lines fed to row pipelines.",
			nil, nil),
		rows: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "rows_total"),
			"Rows processed, by outcome.",
			[]string{"outcome"}, nil),
		meshRecords: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "mesh", "records_total"),
			"MeSH records stored.",
			nil, nil),
		groupsPruned: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "xref", "groups_pruned_total"),
			"Cross-reference groups removed by the consistency pass.",
			nil, nil),
		cache: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "fhirpath", "cache_total"),
			"Compiled expression cache lookups, by result.",
			[]string{"result"}, nil),
		loadMax: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "load_max_seconds"),
			"Longest document load.",
			nil, nil),
		arenaBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "arena", "bytes_total"),
			"Arena bytes of loaded documents, by kind.",
			[]string{"kind"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.documents
	ch <- c.lines
	ch <- c.rows
	ch <- c.meshRecords
	ch <- c.groupsPruned
	ch <- c.cache
	ch <- c.loadMax
	ch <- c.arenaBytes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	counter(c.documents, s.DocumentsLoaded, "loaded")
	counter(c.documents, s.DocumentsFailed, "failed")
	counter(c.lines, s.LinesRead)
	counter(c.rows, s.RowsEmpty, "empty")
	counter(c.rows, s.RowsFiltered, "filtered")
	counter(c.rows, s.RowsDuplicate, "duplicate")
	counter(c.rows, s.RowsBuilt, "built")
	counter(c.meshRecords, s.MeshRecords)
	counter(c.groupsPruned, s.GroupsPruned)
	counter(c.cache, s.CacheHits, "hit")
	counter(c.cache, s.CacheMisses, "miss")
	counter(c.arenaBytes, s.ArenaBytesReserved, "reserved")
	counter(c.arenaBytes, s.ArenaBytesUsed, "used")

	ch <- prometheus.MustNewConstMetric(c.loadMax, prometheus.GaugeValue, c.m.MaxLoadTime().Seconds())
}
