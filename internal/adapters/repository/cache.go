// Package repository holds the process-lifetime snapshot cache that fronts
// the dashboard endpoints. Entries expire on a TTL measured against an
// injected clock, and a generation counter lets writers invalidate every
// outstanding snapshot at once.
package repository

import (
	"sync"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
)

const defaultTTL = time.Minute

type cacheEntry struct {
	value      any
	storedAt   time.Time
	generation uint64
}

// SnapshotCache is a TTL cache keyed by window name. Safe for concurrent
// handlers.
type SnapshotCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	clock      calendar.Clock
	generation uint64
}

// Option applies a configuration option to the SnapshotCache.
type Option func(*SnapshotCache)

// WithTTL sets how long a snapshot stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *SnapshotCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source used for expiry checks.
func WithClock(clock calendar.Clock) Option {
	return func(c *SnapshotCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates a SnapshotCache with a one-minute default TTL.
func New(opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		entries: make(map[string]cacheEntry),
		ttl:     defaultTTL,
		clock:   calendar.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key when it is still fresh and from the
// current generation.
func (c *SnapshotCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.generation != c.generation || c.clock.Now().Sub(e.storedAt) >= c.ttl {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return e.value, true
}

// Put stores a value for key, stamped with the clock and generation.
func (c *SnapshotCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:      value,
		storedAt:   c.clock.Now(),
		generation: c.generation,
	}
}

// Invalidate drops every cached snapshot by bumping the generation. Called
// after rate updates so the next dashboard read reflects the new table.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	metrics.RecordCacheInvalidation()
}

// Len reports how many entries are held, fresh or not.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
