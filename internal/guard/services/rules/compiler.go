// Package rules compiles the block list into installed network-filter
// rules. The compiler owns the domain → rule id mapping; the mapping lives
// only in memory and is rebuilt from scratch on every policy mutation, so
// rule ids are never stable across rebuilds or restarts and nothing may
// depend on them being so.
package rules

import (
	"sort"
	"sync"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
)

// ruleIDBase is the first id allocated in each rebuild.
const ruleIDBase = 1000

// Compiler keeps the filter engine's rule set consistent with the block
// list. Rebuild does a full tear-down and reinstall rather than diffing;
// with block lists of tens to low hundreds of domains the O(n) cost is
// noise, and the simplicity keeps the engine trivially consistent with the
// persisted policy.
type Compiler struct {
	mu      sync.Mutex
	engine  ruleset.Engine
	mapping map[string]int64
	logger  log.Logger
}

// New constructs a Compiler installing into the given engine.
func New(engine ruleset.Engine, logger log.Logger) *Compiler {
	return &Compiler{
		engine:  engine,
		mapping: make(map[string]int64),
		logger:  logger,
	}
}

// Rebuild replaces every rule the compiler previously installed with one
// rule per blocked domain. Domains are installed in sorted order with ids
// allocated sequentially from the base, so a single rebuild is
// deterministic. Engine failures are logged and skipped; the policy store
// has already persisted the intended state, and the next mutation retries a
// full rebuild.
func (c *Compiler) Rebuild(blocked []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for dom, id := range c.mapping {
		if !c.engine.Remove(id) {
			c.logger.Warn(map[string]any{"rule_id": id, "domain": dom}, "installed rule vanished before removal")
		}
	}
	c.mapping = make(map[string]int64, len(blocked))

	domains := append([]string(nil), blocked...)
	sort.Strings(domains)

	next := int64(ruleIDBase)
	for _, dom := range domains {
		rule, err := domain.NewFilterRule(next, dom)
		next++
		if err != nil {
			c.logger.Error(map[string]any{"domain": dom, "error": err}, "skipping uncompilable block entry")
			continue
		}
		if err := c.engine.Install(rule); err != nil {
			c.logger.Error(map[string]any{"domain": dom, "rule_id": rule.ID, "error": err}, "rule installation failed")
			continue
		}
		c.mapping[rule.Domain] = rule.ID
	}

	c.logger.Info(map[string]any{"rules": len(c.mapping)}, "filter rules rebuilt")
}

// Mapping returns a copy of the current domain → rule id mapping.
func (c *Compiler) Mapping() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.mapping))
	for d, id := range c.mapping {
		out[d] = id
	}
	return out
}

// Len returns the number of rules the compiler currently has installed.
func (c *Compiler) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mapping)
}
