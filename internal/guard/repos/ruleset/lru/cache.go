package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
)

// matchCache is an LRU-backed implementation of ruleset.MatchCache.
// It tracks basic metrics: hits, misses, and evictions.
type matchCache struct {
	lru       *lru.Cache[string, ruleset.Decision]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op MatchCache used when size <= 0.
type disabledCache struct{}

// New creates a MatchCache with the given capacity. If size <= 0, a disabled
// no-op cache is returned that always misses and tracks no metrics.
func New(size int) (ruleset.MatchCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	var mc matchCache
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(_ string, _ ruleset.Decision) {
		atomic.AddUint64(&mc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	mc.lru = cache
	return &mc, nil
}

// Get looks up a decision by host, counting the hit or miss.
func (c *matchCache) Get(host string) (ruleset.Decision, bool) {
	if val, ok := c.lru.Get(host); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return ruleset.Decision{}, false
}

// Put stores a decision by host.
func (c *matchCache) Put(host string, d ruleset.Decision) {
	c.lru.Add(host, d)
}

// Len returns the number of cached entries.
func (c *matchCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *matchCache) Purge() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *matchCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

func (d *disabledCache) Get(string) (ruleset.Decision, bool) { return ruleset.Decision{}, false }

func (d *disabledCache) Put(string, ruleset.Decision) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ ruleset.MatchCache = (*matchCache)(nil)
var _ ruleset.MatchCache = (*disabledCache)(nil)
