package termsmap

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks load and build counters using lock-free atomic operations.
// All methods are safe for concurrent use. A nil *Metrics is a valid no-op sink.
type Metrics struct {
	// Document loads
	documentsLoaded atomic.Uint64
	documentsFailed atomic.Uint64

	// Load timing (stored as nanoseconds)
	loadTimeTotal atomic.Uint64
	loadTimeMin   atomic.Uint64
	loadTimeMax   atomic.Uint64

	// Row pipeline outcomes
	linesRead     atomic.Uint64
	rowsEmpty     atomic.Uint64
	rowsFiltered  atomic.Uint64
	rowsDuplicate atomic.Uint64
	rowsBuilt     atomic.Uint64

	// Document contents
	meshRecords  atomic.Uint64
	groupsPruned atomic.Uint64

	// Arena usage summed over loads
	arenaReserved atomic.Uint64
	arenaUsed     atomic.Uint64

	// Expression cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Per-stage timing
	stageTiming sync.Map // map[string]*stageMetrics
}

type stageMetrics struct {
	invocations atomic.Uint64
	totalTime   atomic.Uint64 // nanoseconds
	records     atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.loadTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordLoad records a completed document load.
func (m *Metrics) RecordLoad(duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.documentsLoaded.Add(1)
	} else {
		m.documentsFailed.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations are non-negative
	m.loadTimeTotal.Add(ns)

	for {
		old := m.loadTimeMin.Load()
		if ns >= old || m.loadTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.loadTimeMax.Load()
		if ns <= old || m.loadTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordRows adds the outcome counts of one pipeline run.
func (m *Metrics) RecordRows(lines, empty, filtered, duplicate, built uint64) {
	if m == nil {
		return
	}
	m.linesRead.Add(lines)
	m.rowsEmpty.Add(empty)
	m.rowsFiltered.Add(filtered)
	m.rowsDuplicate.Add(duplicate)
	m.rowsBuilt.Add(built)
}

// RecordMeshRecords adds n stored MeSH records.
func (m *Metrics) RecordMeshRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.meshRecords.Add(uint64(n))
}

// RecordPruned adds n groups removed by the consistency pass.
func (m *Metrics) RecordPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.groupsPruned.Add(uint64(n))
}

// RecordArena adds the arena usage of one loaded document.
func (m *Metrics) RecordArena(reserved, used uint64) {
	if m == nil {
		return
	}
	m.arenaReserved.Add(reserved)
	m.arenaUsed.Add(used)
}

// RecordCacheHit records an expression cache hit.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.cacheHits.Add(1)
	}
}

// RecordCacheMiss records an expression cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.cacheMisses.Add(1)
	}
}

// RecordStage records one run of a named build stage ("mesh", "xref", "export").
func (m *Metrics) RecordStage(name string, duration time.Duration, records int) {
	if m == nil {
		return
	}
	sm := m.stage(name)
	sm.invocations.Add(1)
	sm.totalTime.Add(uint64(duration.Nanoseconds())) //nolint:gosec // durations are non-negative
	if records > 0 {
		sm.records.Add(uint64(records))
	}
}

func (m *Metrics) stage(name string) *stageMetrics {
	if v, ok := m.stageTiming.Load(name); ok {
		return v.(*stageMetrics)
	}
	sm := &stageMetrics{}
	actual, _ := m.stageTiming.LoadOrStore(name, sm)
	return actual.(*stageMetrics)
}

// --- Query Methods ---

// DocumentsLoaded returns the number of successful loads.
func (m *Metrics) DocumentsLoaded() uint64 { return m.documentsLoaded.Load() }

// DocumentsFailed returns the number of failed loads.
func (m *Metrics) DocumentsFailed() uint64 { return m.documentsFailed.Load() }

// LinesRead returns the number of lines fed to row pipelines.
func (m *Metrics) LinesRead() uint64 { return m.linesRead.Load() }

// RowsEmpty returns rows dropped because they split into nothing.
func (m *Metrics) RowsEmpty() uint64 { return m.rowsEmpty.Load() }

// RowsFiltered returns rows rejected by a filter.
func (m *Metrics) RowsFiltered() uint64 { return m.rowsFiltered.Load() }

// RowsDuplicate returns rows rejected by a uniqueness test.
func (m *Metrics) RowsDuplicate() uint64 { return m.rowsDuplicate.Load() }

// RowsBuilt returns rows that produced a record.
func (m *Metrics) RowsBuilt() uint64 { return m.rowsBuilt.Load() }

// MeshRecords returns stored MeSH records.
func (m *Metrics) MeshRecords() uint64 { return m.meshRecords.Load() }

// GroupsPruned returns groups removed by the consistency pass.
func (m *Metrics) GroupsPruned() uint64 { return m.groupsPruned.Load() }

// ArenaBytesReserved returns the arena bytes reserved by all loads.
func (m *Metrics) ArenaBytesReserved() uint64 { return m.arenaReserved.Load() }

// ArenaBytesUsed returns the arena bytes allocated by all loads.
func (m *Metrics) ArenaBytesUsed() uint64 { return m.arenaUsed.Load() }

// CacheHits returns expression cache hits.
func (m *Metrics) CacheHits() uint64 { return m.cacheHits.Load() }

// CacheMisses returns expression cache misses.
func (m *Metrics) CacheMisses() uint64 { return m.cacheMisses.Load() }

// AverageLoadTime returns the mean load duration across all loads.
func (m *Metrics) AverageLoadTime() time.Duration {
	total := m.documentsLoaded.Load() + m.documentsFailed.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.loadTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinLoadTime returns the shortest load duration.
func (m *Metrics) MinLoadTime() time.Duration {
	v := m.loadTimeMin.Load()
	if v == ^uint64(0) {
		return 0
	}
	return time.Duration(v) //nolint:gosec // nanoseconds within int64 range
}

// MaxLoadTime returns the longest load duration.
func (m *Metrics) MaxLoadTime() time.Duration {
	return time.Duration(m.loadTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// StageStats summarises one build stage.
type StageStats struct {
	Name        string        `json:"name"`
	Invocations uint64        `json:"invocations"`
	TotalTime   time.Duration `json:"total_time"`
	AvgTime     time.Duration `json:"avg_time"`
	Records     uint64        `json:"records"`
}

func (sm *stageMetrics) stats(name string) StageStats {
	n := sm.invocations.Load()
	total := sm.totalTime.Load()
	var avg time.Duration
	if n > 0 {
		avg = time.Duration(total / n) //nolint:gosec // nanoseconds within int64 range
	}
	return StageStats{
		Name:        name,
		Invocations: n,
		TotalTime:   time.Duration(total), //nolint:gosec // nanoseconds within int64 range
		AvgTime:     avg,
		Records:     sm.records.Load(),
	}
}

// StageStats returns statistics for one stage.
func (m *Metrics) StageStats(name string) (StageStats, bool) {
	v, ok := m.stageTiming.Load(name)
	if !ok {
		return StageStats{Name: name}, false
	}
	return v.(*stageMetrics).stats(name), true
}

// AllStageStats returns statistics for every recorded stage.
func (m *Metrics) AllStageStats() []StageStats {
	var out []StageStats
	m.stageTiming.Range(func(key, value any) bool {
		out = append(out, value.(*stageMetrics).stats(key.(string)))
		return true
	})
	return out
}

// --- Export Methods ---

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	DocumentsLoaded uint64 `json:"documents_loaded"`
	DocumentsFailed uint64 `json:"documents_failed"`
	AvgLoadTimeNs   uint64 `json:"avg_load_time_ns"`
	MinLoadTimeNs   uint64 `json:"min_load_time_ns"`
	MaxLoadTimeNs   uint64 `json:"max_load_time_ns"`

	LinesRead     uint64 `json:"lines_read"`
	RowsEmpty     uint64 `json:"rows_empty"`
	RowsFiltered  uint64 `json:"rows_filtered"`
	RowsDuplicate uint64 `json:"rows_duplicate"`
	RowsBuilt     uint64 `json:"rows_built"`

	MeshRecords  uint64 `json:"mesh_records"`
	GroupsPruned uint64 `json:"groups_pruned"`

	ArenaBytesReserved uint64 `json:"arena_bytes_reserved"`
	ArenaBytesUsed     uint64 `json:"arena_bytes_used"`

	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`

	Stages []StageStats `json:"stages,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:       time.Now(),
		DocumentsLoaded: m.documentsLoaded.Load(),
		DocumentsFailed: m.documentsFailed.Load(),
		AvgLoadTimeNs:   uint64(m.AverageLoadTime()), //nolint:gosec // non-negative
		MinLoadTimeNs:   uint64(m.MinLoadTime()),     //nolint:gosec // non-negative
		MaxLoadTimeNs:   m.loadTimeMax.Load(),
		LinesRead:       m.linesRead.Load(),
		RowsEmpty:       m.rowsEmpty.Load(),
		RowsFiltered:    m.rowsFiltered.Load(),
		RowsDuplicate:   m.rowsDuplicate.Load(),
		RowsBuilt:       m.rowsBuilt.Load(),
		MeshRecords:     m.meshRecords.Load(),
		GroupsPruned:    m.groupsPruned.Load(),

		ArenaBytesReserved: m.arenaReserved.Load(),
		ArenaBytesUsed:     m.arenaUsed.Load(),

		CacheHits:   m.cacheHits.Load(),
		CacheMisses: m.cacheMisses.Load(),
		Stages:      m.AllStageStats(),
	}
}

// Export returns the counters as a flat map.
func (m *Metrics) Export() map[string]any {
	s := m.Snapshot()
	return map[string]any{
		"documents_loaded": s.DocumentsLoaded,
		"documents_failed": s.DocumentsFailed,
		"avg_load_time_ns": s.AvgLoadTimeNs,
		"min_load_time_ns": s.MinLoadTimeNs,
		"max_load_time_ns": s.MaxLoadTimeNs,
		"lines_read":       s.LinesRead,
		"rows_empty":       s.RowsEmpty,
		"rows_filtered":    s.RowsFiltered,
		"rows_duplicate":   s.RowsDuplicate,
		"rows_built":       s.RowsBuilt,
		"mesh_records":     s.MeshRecords,
		"groups_pruned":    s.GroupsPruned,

		"arena_bytes_reserved": s.ArenaBytesReserved,
		"arena_bytes_used":     s.ArenaBytesUsed,

		"cache_hits":   s.CacheHits,
		"cache_misses": s.CacheMisses,
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.documentsLoaded.Store(0)
	m.documentsFailed.Store(0)
	m.loadTimeTotal.Store(0)
	m.loadTimeMin.Store(^uint64(0))
	m.loadTimeMax.Store(0)
	m.linesRead.Store(0)
	m.rowsEmpty.Store(0)
	m.rowsFiltered.Store(0)
	m.rowsDuplicate.Store(0)
	m.rowsBuilt.Store(0)
	m.meshRecords.Store(0)
	m.groupsPruned.Store(0)
	m.arenaReserved.Store(0)
	m.arenaUsed.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.stageTiming.Range(func(key, _ any) bool {
		m.stageTiming.Delete(key)
		return true
	})
}
