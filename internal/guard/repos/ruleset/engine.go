package ruleset

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/haukened/phishguard/internal/guard/common/urlx"
	"github.com/haukened/phishguard/internal/guard/domain"
)

// engine implements Engine with an in-memory rule index guarded by a Bloom
// prefilter and an LRU decision cache. Reads run the filter → cache → index
// pipeline; writes mutate the index, keep the filter a superset of it, and
// purge the cache.
type engine struct {
	mu       sync.RWMutex
	rules    map[int64]domain.FilterRule // by engine rule id
	byDomain map[string]int64            // rule domain → id
	filter   RuleFilter
	factory  RuleFilterFactory
	fpRate   float64
	capacity uint64 // entry count the current filter was sized for
	stale    int    // removals since the filter was last rebuilt
	rebuilds uint64
	cache    MatchCache
}

// NewEngine constructs an Engine. fpRate is the target false-positive rate
// used whenever the prefilter is rebuilt.
func NewEngine(cache MatchCache, factory RuleFilterFactory, fpRate float64) Engine {
	return &engine{
		rules:    make(map[int64]domain.FilterRule),
		byDomain: make(map[string]int64),
		factory:  factory,
		fpRate:   fpRate,
		cache:    cache,
	}
}

// Install adds one rule. Duplicate ids and duplicate domains are rejected;
// the caller decides whether that is fatal.
func (e *engine) Install(rule domain.FilterRule) error {
	if rule.ID <= 0 || rule.Domain == "" {
		return fmt.Errorf("refusing to install malformed rule %+v", rule)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[rule.ID]; exists {
		return fmt.Errorf("rule id %d already installed", rule.ID)
	}
	if _, exists := e.byDomain[rule.Domain]; exists {
		return fmt.Errorf("rule for domain %q already installed", rule.Domain)
	}

	e.rules[rule.ID] = rule
	e.byDomain[rule.Domain] = rule.ID
	if e.filter == nil || uint64(len(e.rules)) > e.capacity {
		e.rebuildFilterLocked()
	} else {
		e.filter.Add([]byte(rule.Domain))
	}
	e.cache.Purge()
	return nil
}

// Remove uninstalls a rule by id and reports whether it existed. The
// prefilter is left as a superset and rebuilt once enough removals pile up.
func (e *engine) Remove(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule, ok := e.rules[id]
	if !ok {
		return false
	}
	delete(e.rules, id)
	delete(e.byDomain, rule.Domain)
	e.cache.Purge()

	e.stale++
	if e.stale > len(e.rules) {
		e.rebuildFilterLocked()
	}
	return true
}

// Match decides whether a document load from host is covered by an installed
// rule.
func (e *engine) Match(host string) Decision {
	cn := urlx.CanonicalHost(host)
	if cn == "" {
		return EmptyDecision()
	}

	// 1) prefilter: early-allow when no suffix of the host can be indexed
	if !e.mightMatch(cn) {
		return EmptyDecision()
	}
	// 2) cache
	e.mu.RLock()
	d, ok := e.cache.Get(cn)
	e.mu.RUnlock()
	if ok {
		return d
	}
	// 3) index
	dec := e.lookup(cn)
	// 4) cache fill. A rebuild can purge between the lookup above and this
	// write, leaving one stale entry for cn until the next mutation purges
	// again.
	e.mu.Lock()
	e.cache.Put(cn, dec)
	e.mu.Unlock()
	return dec
}

// Rules returns the installed rules ordered by id.
func (e *engine) Rules() []domain.FilterRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.FilterRule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of installed rules.
func (e *engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Stats returns engine counters plus the underlying cache metrics.
func (e *engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	hits, misses, evictions := e.cache.Stats()
	return EngineStats{
		RuleCount:      len(e.rules),
		CacheHits:      hits,
		CacheMisses:    misses,
		CacheEvictions: evictions,
		FilterRebuilds: atomic.LoadUint64(&e.rebuilds),
	}
}

// mightMatch tests the host and each parent suffix against the prefilter.
// A nil filter (nothing installed yet) conservatively says yes.
func (e *engine) mightMatch(cn string) bool {
	e.mu.RLock()
	f := e.filter
	e.mu.RUnlock()
	if f == nil {
		return true
	}
	for s := cn; ; {
		if f.MightContain([]byte(s)) {
			return true
		}
		i := strings.IndexByte(s, '.')
		if i < 0 || i+1 >= len(s) {
			return false
		}
		s = s[i+1:]
	}
}

// lookup walks the host's suffix chain, most specific first, and returns the
// first rule covering it.
func (e *engine) lookup(cn string) Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for s := cn; ; {
		if id, ok := e.byDomain[s]; ok {
			return Decision{Blocked: true, Rule: e.rules[id]}
		}
		i := strings.IndexByte(s, '.')
		if i < 0 || i+1 >= len(s) {
			return EmptyDecision()
		}
		s = s[i+1:]
	}
}

// rebuildFilterLocked swaps in a fresh filter sized for the current index
// with headroom, so install bursts do not rebuild per rule. Caller holds the
// write lock.
func (e *engine) rebuildFilterLocked() {
	capacity := uint64(len(e.rules)) * 2
	if capacity < 64 {
		capacity = 64
	}
	f := e.factory.New(capacity, e.fpRate)
	for dom := range e.byDomain {
		f.Add([]byte(dom))
	}
	e.filter = f
	e.capacity = capacity
	e.stale = 0
	atomic.AddUint64(&e.rebuilds, 1)
}

var _ Engine = (*engine)(nil)
