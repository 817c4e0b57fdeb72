// Package cache provides the in-memory result cache for image searches.
// Identical (topic, options) lookups within the TTL window are served from
// memory instead of hitting the provider again. The cache stores the raw
// candidate pool, not any post-selection subset, so later slides in the
// same run can still draw fresh diverse picks from it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/provider"
)

const (
	// DefaultTTL is how long a cached pool stays valid.
	DefaultTTL = time.Hour

	// DefaultMaxEntries bounds cache growth; inserts past this bound
	// trigger a purge of expired entries, then oldest-first eviction.
	DefaultMaxEntries = 1000
)

// Key computes a deterministic cache key for a query + search options.
// Fields are serialized in a fixed order so logically identical inputs
// always hash the same regardless of how the options were assembled.
func Key(query string, opts provider.SearchOptions) string {
	canonical := fmt.Sprintf("q=%s|orientation=%s|color=%s|locale=%s",
		query, opts.Orientation, opts.Color, opts.Locale)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	candidates []model.ImageCandidate
	storedAt   time.Time
}

// ResultCache is a TTL-bounded map of search results. Safe for concurrent
// use — topic searches run in parallel and share one cache per service.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int

	// now is swappable in tests so expiry can be exercised without sleeping.
	now func() time.Time
}

// New creates a ResultCache. Zero or negative arguments fall back to the
// package defaults.
func New(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached pool for a key, or (nil, false) when absent or
// expired. Expired entries are deleted on the spot. The returned slice is
// a copy — callers may reorder it freely without corrupting the cache.
func (c *ResultCache) Get(key string) ([]model.ImageCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	out := make([]model.ImageCandidate, len(e.candidates))
	copy(out, e.candidates)
	return out, true
}

// Put stores a candidate pool under the key, overwriting any prior entry.
// When the cache is full it first drops expired entries, then evicts
// oldest-by-timestamp until there is room.
func (c *ResultCache) Put(key string, candidates []model.ImageCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.purgeExpiredLocked()
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	stored := make([]model.ImageCandidate, len(candidates))
	copy(stored, candidates)
	c.entries[key] = entry{candidates: stored, storedAt: c.now()}
}

// Len returns the current entry count.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResultCache) purgeExpiredLocked() {
	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *ResultCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
