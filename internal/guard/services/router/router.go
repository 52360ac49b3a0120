// Package router dispatches the typed message protocol. Each request kind
// maps to one handler that reads or mutates the policy, consults the
// decision engine, or both; responses are returned synchronously once the
// underlying persistence and rule installation have completed.
package router

import (
	"context"
	"fmt"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/common/urlx"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/history"
)

// PolicyService is the policy surface the router drives.
type PolicyService interface {
	State() domain.PolicyState
	AddToAllow(ctx context.Context, dom string) error
	AddToBlock(ctx context.Context, dom string) error
	RemoveFromList(ctx context.Context, list domain.ListName, dom string) error
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
}

// Decider is the verdict function for the riskReport path.
type Decider interface {
	Decide(report domain.RiskReport) domain.Action
}

// StateResponse answers getState.
type StateResponse struct {
	Settings      domain.Settings `json:"settings"`
	AllowList     []string        `json:"allowlist"`
	BlockList     []string        `json:"blocklist"`
	CurrentDomain string          `json:"currentDomain"`
}

// VerdictResponse answers riskReport.
type VerdictResponse struct {
	Action domain.Action `json:"action"`
}

// AckResponse answers the three list mutations.
type AckResponse struct {
	OK bool `json:"ok"`
}

// SettingsResponse answers updateSettings with the merged result.
type SettingsResponse struct {
	OK       bool            `json:"ok"`
	Settings domain.Settings `json:"settings"`
}

// Router dispatches protocol requests.
type Router struct {
	policy  PolicyService
	decider Decider
	history history.Recorder
	logger  log.Logger
}

// Options carries the Router dependencies.
type Options struct {
	Policy  PolicyService
	Decider Decider
	History history.Recorder
	Logger  log.Logger
}

// New constructs a Router.
func New(opts Options) *Router {
	return &Router{
		policy:  opts.Policy,
		decider: opts.Decider,
		history: opts.History,
		logger:  opts.Logger,
	}
}

// Dispatch routes one typed request to its handler and returns the typed
// response. A request type the router does not know yields
// domain.ErrUnsupportedRequest.
func (r *Router) Dispatch(ctx context.Context, req domain.Request) (any, error) {
	switch req := req.(type) {
	case domain.GetStateRequest:
		return r.getState(req), nil

	case domain.RiskReportRequest:
		return r.riskReport(ctx, req)

	case domain.BlockDomainRequest:
		if err := r.policy.AddToBlock(ctx, req.Domain); err != nil {
			return nil, err
		}
		return AckResponse{OK: true}, nil

	case domain.AllowDomainRequest:
		if err := r.policy.AddToAllow(ctx, req.Domain); err != nil {
			return nil, err
		}
		return AckResponse{OK: true}, nil

	case domain.RemoveFromListRequest:
		if err := r.policy.RemoveFromList(ctx, req.List, req.Domain); err != nil {
			return nil, err
		}
		return AckResponse{OK: true}, nil

	case domain.UpdateSettingsRequest:
		settings, err := r.policy.UpdateSettings(ctx, req.Settings)
		if err != nil {
			return nil, err
		}
		return SettingsResponse{OK: true, Settings: settings}, nil

	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnsupportedRequest, req)
	}
}

// getState snapshots the policy and derives the caller's current domain
// from its origin. An origin that is not a URL yields an empty domain, not
// an error.
func (r *Router) getState(req domain.GetStateRequest) StateResponse {
	state := r.policy.State()
	current := ""
	if host, ok := urlx.Hostname(req.Origin); ok {
		current = urlx.RegistrableDomain(host)
	}
	return StateResponse{
		Settings:      state.Settings,
		AllowList:     state.AllowList,
		BlockList:     state.BlockList,
		CurrentDomain: current,
	}
}

// riskReport validates the report, asks the decision engine for a verdict,
// and records the evaluation. History failures are logged and swallowed;
// the verdict stands.
func (r *Router) riskReport(ctx context.Context, req domain.RiskReportRequest) (VerdictResponse, error) {
	report := req.Report()
	if err := report.Validate(); err != nil {
		return VerdictResponse{}, fmt.Errorf("rejecting risk report: %w", err)
	}

	action := r.decider.Decide(report)

	if err := r.history.Record(ctx, history.Entry{
		URL:      req.URL,
		Host:     report.Host,
		Domain:   report.Domain,
		Score:    report.Score,
		Action:   action,
		Findings: report.Findings,
	}); err != nil {
		r.logger.Warn(map[string]any{"domain": report.Domain, "error": err}, "history write failed")
	}

	return VerdictResponse{Action: action}, nil
}
