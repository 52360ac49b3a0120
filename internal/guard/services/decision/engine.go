// Package decision turns a risk report plus the current policy into the
// verdict the page context acts on. This engine serves the post-load path
// only; the pre-navigation early-warning flow deliberately checks list
// membership itself and never consults it.
package decision

import "github.com/haukened/phishguard/internal/guard/domain"

// Policy is the read-only policy view the engine needs.
type Policy interface {
	IsAllowed(domain string) bool
	Settings() domain.Settings
}

// Engine maps reports to actions.
type Engine struct {
	policy Policy
}

// New constructs an Engine over the given policy view.
func New(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Decide returns the verdict for one scored page. An allow-listed domain
// wins unconditionally, whatever the score; otherwise the score is compared
// against the threshold as-is. Scores are unbounded above while the
// threshold is clamped to [0,100] by its writers, and no clamping happens
// here.
func (e *Engine) Decide(report domain.RiskReport) domain.Action {
	if e.policy.IsAllowed(report.Domain) {
		return domain.ActionAllowed
	}
	if report.Score >= e.policy.Settings().Threshold {
		return domain.ActionWarn
	}
	return domain.ActionOK
}
