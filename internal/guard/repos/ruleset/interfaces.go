package ruleset

import "github.com/haukened/phishguard/internal/guard/domain"

// Decision is the outcome of matching a host against the installed rules.
// Pure value type, cached as-is.
type Decision struct {
	Blocked bool              // true when any installed rule covers the host
	Rule    domain.FilterRule // the matching rule when Blocked
}

// EmptyDecision returns a not-blocked decision.
func EmptyDecision() Decision { return Decision{} }

// RuleFilter is the probabilistic prefilter over installed rule domains.
// A negative answer is authoritative; a positive one means "check the index".
type RuleFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// RuleFilterFactory builds a fresh RuleFilter sized for the expected number
// of entries and a target false-positive rate.
type RuleFilterFactory interface {
	New(capacity uint64, fpRate float64) RuleFilter
}

// MatchCache caches match decisions by canonical host with basic metrics.
type MatchCache interface {
	Get(host string) (Decision, bool)
	Put(host string, d Decision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// EngineStats exposes engine-level counters for introspection and metrics.
type EngineStats struct {
	RuleCount      int
	CacheHits      uint64
	CacheMisses    uint64
	CacheEvictions uint64
	FilterRebuilds uint64
}

// Engine is the installed-rule surface shared by the rule compiler (writes)
// and the enforcement paths (reads). Match applies a filter → cache → index
// pipeline so the common not-blocked host stays cheap.
type Engine interface {
	Install(rule domain.FilterRule) error
	Remove(id int64) bool
	Match(host string) Decision
	Rules() []domain.FilterRule
	Len() int
	Stats() EngineStats
}
