// Package cache provides a bounded, thread-safe LRU cache.
//
// It backs the compiled FHIRPath expression cache of the export package,
// where compiling is far more expensive than a lookup.
package cache

import (
	"container/list"
	"iter"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 128

// Recorder receives hit and miss notifications. *termsmap.Metrics
// satisfies it.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// LRU is a thread-safe least recently used cache.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*list.Element
	order    *list.List
	capacity int
	recorder Recorder

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type item[K comparable, V any] struct {
	key   K
	value V
}

// Option configures an LRU.
type Option func(*options)

type options struct {
	recorder Recorder
}

// WithRecorder forwards hits and misses to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// New creates an LRU holding at most capacity entries.
func New[K comparable, V any](capacity int, opts ...Option) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &LRU[K, V]{
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
		recorder: o.recorder,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		c.order.MoveToFront(el)
	}
	c.mu.Unlock()

	if !ok {
		c.miss()
		var zero V
		return zero, false
	}
	c.hit()
	return el.Value.(*item[K, V]).value, true
}

// Peek returns the value for key without touching recency or counters.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*item[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Add stores value under key, evicting the least recently used entry when
// full. It reports whether an eviction happened.
func (c *LRU[K, V]) Add(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(key, value)
}

func (c *LRU[K, V]) add(key K, value V) bool {
	if el, ok := c.items[key]; ok {
		el.Value.(*item[K, V]).value = value
		c.order.MoveToFront(el)
		return false
	}

	evicted := false
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*item[K, V]).key)
			c.evictions.Add(1)
			evicted = true
		}
	}
	c.items[key] = c.order.PushFront(&item[K, V]{key: key, value: value})
	return evicted
}

// GetOrLoad returns the cached value for key or computes it with load.
// Errors are returned to the caller and never cached. Concurrent misses on
// the same key may call load more than once; the first stored value wins.
func (c *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*item[K, V]).value, nil
	}
	c.add(key, v)
	return v, nil
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every entry. Counters are kept.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.items)
	c.order.Init()
}

// Keys returns the keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*item[K, V]).key)
	}
	return keys
}

// All yields a snapshot of the entries from most to least recently used.
func (c *LRU[K, V]) All() iter.Seq2[K, V] {
	c.mu.Lock()
	snapshot := make([]item[K, V], 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		snapshot = append(snapshot, *el.Value.(*item[K, V]))
	}
	c.mu.Unlock()

	return func(yield func(K, V) bool) {
		for _, it := range snapshot {
			if !yield(it.key, it.value) {
				return
			}
		}
	}
}

// Stats holds cache statistics.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns the current statistics.
func (c *LRU[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Size:      c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   rate,
	}
}

func (c *LRU[K, V]) hit() {
	c.hits.Add(1)
	if c.recorder != nil {
		c.recorder.RecordCacheHit()
	}
}

func (c *LRU[K, V]) miss() {
	c.misses.Add(1)
	if c.recorder != nil {
		c.recorder.RecordCacheMiss()
	}
}
