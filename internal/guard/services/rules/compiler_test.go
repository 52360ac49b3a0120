package rules

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
)

// fakeEngine records installs and removals without any matching machinery.
type fakeEngine struct {
	rules      map[int64]domain.FilterRule
	installs   []domain.FilterRule
	removals   []int64
	failDomain string // Install fails for this domain
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{rules: map[int64]domain.FilterRule{}}
}

func (f *fakeEngine) Install(rule domain.FilterRule) error {
	if rule.Domain == f.failDomain {
		return errors.New("quota exceeded")
	}
	f.rules[rule.ID] = rule
	f.installs = append(f.installs, rule)
	return nil
}

func (f *fakeEngine) Remove(id int64) bool {
	if _, ok := f.rules[id]; !ok {
		return false
	}
	delete(f.rules, id)
	f.removals = append(f.removals, id)
	return true
}

func (f *fakeEngine) Match(string) ruleset.Decision { return ruleset.Decision{} }
func (f *fakeEngine) Rules() []domain.FilterRule    { return nil }
func (f *fakeEngine) Len() int                      { return len(f.rules) }
func (f *fakeEngine) Stats() ruleset.EngineStats    { return ruleset.EngineStats{} }

func TestRebuild_InstallsSortedSequentialRules(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng, log.NewNoopLogger())

	c.Rebuild([]string{"b.com", "a.com"})

	require.Len(t, eng.installs, 2)
	assert.Equal(t, "||a.com^", eng.installs[0].Pattern)
	assert.Equal(t, "||b.com^", eng.installs[1].Pattern)
	assert.Greater(t, eng.installs[1].ID, eng.installs[0].ID, "ids must strictly increase")
	assert.Equal(t, int64(ruleIDBase), eng.installs[0].ID)
	assert.Equal(t, 2, eng.Len())
}

func TestRebuild_RemovesOnlyPreviouslyInstalledRules(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng, log.NewNoopLogger())

	c.Rebuild([]string{"a.com", "b.com"})
	firstIDs := make([]int64, 0, 2)
	for _, r := range eng.installs {
		firstIDs = append(firstIDs, r.ID)
	}
	eng.installs = nil

	c.Rebuild([]string{"a.com"})

	// Both prior rules torn down, one reinstalled.
	sort.Slice(eng.removals, func(i, j int) bool { return eng.removals[i] < eng.removals[j] })
	assert.Equal(t, firstIDs, eng.removals)
	require.Len(t, eng.installs, 1)
	assert.Equal(t, "||a.com^", eng.installs[0].Pattern)
	assert.Equal(t, 1, eng.Len())
}

func TestRebuild_EmptyBlockListClearsEverything(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng, log.NewNoopLogger())

	c.Rebuild([]string{"a.com"})
	c.Rebuild(nil)

	assert.Equal(t, 0, eng.Len())
	assert.Empty(t, c.Mapping())
}

func TestRebuild_InstallFailureIsSwallowed(t *testing.T) {
	eng := newFakeEngine()
	eng.failDomain = "broken.com"
	c := New(eng, log.NewNoopLogger())

	// Must not panic or return an error to the caller.
	c.Rebuild([]string{"a.com", "broken.com", "z.com"})

	assert.Equal(t, 2, eng.Len())
	mapping := c.Mapping()
	assert.Contains(t, mapping, "a.com")
	assert.Contains(t, mapping, "z.com")
	assert.NotContains(t, mapping, "broken.com")

	// The failed domain retries on the next rebuild.
	eng.failDomain = ""
	c.Rebuild([]string{"a.com", "broken.com", "z.com"})
	assert.Equal(t, 3, eng.Len())
}

func TestRebuild_MalformedDomainSkipped(t *testing.T) {
	eng := newFakeEngine()
	c := New(eng, log.NewNoopLogger())

	c.Rebuild([]string{"ok.com", "bad^domain"})

	assert.Equal(t, 1, eng.Len())
	assert.Contains(t, c.Mapping(), "ok.com")
}
