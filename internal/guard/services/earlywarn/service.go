// Package earlywarn runs the pre-navigation risk flow: a URL-only estimate
// on every top-level navigation start, followed by a list-membership check
// that gates a one-shot notification. This flow is intentionally separate
// from the post-load decision engine; it checks the allow and block lists
// itself and warns ahead of any page content, while enforcement of blocked
// domains happens through the installed filter rules.
package earlywarn

import (
	"context"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/gateways/notify"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
	"github.com/haukened/phishguard/internal/guard/score"
)

// Policy is the read-only view the early flow consults after estimating.
type Policy interface {
	Settings() domain.Settings
	IsAllowed(domain string) bool
	IsBlocked(domain string) bool
}

// Matcher answers whether the installed filter rules cover a host.
type Matcher interface {
	MatchBlocked(host string) bool
}

// EngineMatcher adapts a ruleset.Engine to the Matcher interface.
type EngineMatcher struct {
	Engine ruleset.Engine
}

func (m EngineMatcher) MatchBlocked(host string) bool {
	return m.Engine.Match(host).Blocked
}

// Result is the outcome of one navigation-start evaluation.
type Result struct {
	Estimate domain.EarlyEstimate `json:"estimate"`
	Blocked  bool                 `json:"blocked"`  // covered by an installed filter rule
	Notified bool                 `json:"notified"` // an early warning actually went out
}

// Service wires the estimator to the policy view and the notifier.
type Service struct {
	policy   Policy
	matcher  Matcher
	notifier notify.Notifier
	logger   log.Logger
}

// Options carries the Service dependencies.
type Options struct {
	Policy   Policy
	Matcher  Matcher
	Notifier notify.Notifier
	Logger   log.Logger
}

// New constructs the early-warning Service.
func New(opts Options) *Service {
	return &Service{
		policy:   opts.Policy,
		matcher:  opts.Matcher,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
}

// Evaluate handles one navigation-start event. Only frame depth 0 (the
// top-level document) is evaluated; sub-frame navigations return a zero
// result untouched. A malformed URL likewise yields the zero estimate and
// no signal.
func (s *Service) Evaluate(ctx context.Context, rawURL, tabID string, frameDepth int) Result {
	if frameDepth != 0 {
		return Result{}
	}

	est := score.Estimate(rawURL, s.policy.Settings())
	if est.Host == "" {
		return Result{}
	}

	res := Result{
		Estimate: est,
		Blocked:  s.matcher.MatchBlocked(est.Host),
	}

	// Listed domains never notify: the user already decided. Allow means
	// trust; block means the filter rules are about to enforce anyway.
	if s.policy.IsAllowed(est.Domain) || s.policy.IsBlocked(est.Domain) {
		return res
	}

	if est.Score >= s.policy.Settings().Threshold {
		res.Notified = s.notifier.Notify(ctx, notify.Alert{
			TabID: tabID,
			Host:  est.Host,
			Score: est.Score,
		})
		s.logger.Info(map[string]any{
			"host":     est.Host,
			"score":    est.Score,
			"notified": res.Notified,
		}, "early risk threshold reached")
	}
	return res
}
