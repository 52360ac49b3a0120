package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/history"
)

// fakePolicy records mutations and serves a fixed state.
type fakePolicy struct {
	state    domain.PolicyState
	blocked  []string
	allowed  []string
	removed  []string
	settings domain.Settings
	err      error
}

func (f *fakePolicy) State() domain.PolicyState { return f.state }

func (f *fakePolicy) AddToAllow(_ context.Context, d string) error {
	f.allowed = append(f.allowed, d)
	return f.err
}

func (f *fakePolicy) AddToBlock(_ context.Context, d string) error {
	f.blocked = append(f.blocked, d)
	return f.err
}

func (f *fakePolicy) RemoveFromList(_ context.Context, list domain.ListName, d string) error {
	f.removed = append(f.removed, list.String()+":"+d)
	return f.err
}

func (f *fakePolicy) UpdateSettings(_ context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	f.settings = patch.Apply(f.settings)
	return f.settings, f.err
}

type fixedDecider struct{ action domain.Action }

func (f fixedDecider) Decide(domain.RiskReport) domain.Action { return f.action }

// recordingHistory captures entries; optionally fails.
type recordingHistory struct {
	entries []history.Entry
	err     error
}

func (r *recordingHistory) Record(_ context.Context, e history.Entry) error {
	r.entries = append(r.entries, e)
	return r.err
}
func (r *recordingHistory) Recent(context.Context, int) ([]history.Entry, error) { return nil, nil }
func (r *recordingHistory) Close() error                                         { return nil }

func newRouter(policy *fakePolicy, action domain.Action, hist *recordingHistory) *Router {
	if hist == nil {
		hist = &recordingHistory{}
	}
	return New(Options{
		Policy:  policy,
		Decider: fixedDecider{action: action},
		History: hist,
		Logger:  log.NewNoopLogger(),
	})
}

func TestDispatch_GetState(t *testing.T) {
	policy := &fakePolicy{state: domain.PolicyState{
		Settings:  domain.DefaultSettings(),
		AllowList: []string{"good.com"},
		BlockList: []string{"evil.com"},
	}}
	r := newRouter(policy, domain.ActionOK, nil)

	resp, err := r.Dispatch(context.Background(), domain.GetStateRequest{Origin: "https://app.example.com/login"})
	require.NoError(t, err)

	state, ok := resp.(StateResponse)
	require.True(t, ok)
	assert.Equal(t, "example.com", state.CurrentDomain)
	assert.Equal(t, []string{"good.com"}, state.AllowList)
	assert.Equal(t, []string{"evil.com"}, state.BlockList)
	assert.Equal(t, 60, state.Settings.Threshold)
}

func TestDispatch_GetStateBadOrigin(t *testing.T) {
	r := newRouter(&fakePolicy{}, domain.ActionOK, nil)
	resp, err := r.Dispatch(context.Background(), domain.GetStateRequest{Origin: "::not a url::"})
	require.NoError(t, err)
	assert.Empty(t, resp.(StateResponse).CurrentDomain)
}

func TestDispatch_RiskReportDecidesAndRecords(t *testing.T) {
	hist := &recordingHistory{}
	r := newRouter(&fakePolicy{}, domain.ActionWarn, hist)

	resp, err := r.Dispatch(context.Background(), domain.RiskReportRequest{
		URL:      "http://xn--80ak6aa92e.com/login",
		Score:    45,
		Findings: []string{"punycode hostname (xn--)", "password input present"},
		Host:     "xn--80ak6aa92e.com",
		Domain:   "xn--80ak6aa92e.com",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictResponse{Action: domain.ActionWarn}, resp)

	require.Len(t, hist.entries, 1)
	assert.Equal(t, 45, hist.entries[0].Score)
	assert.Equal(t, domain.ActionWarn, hist.entries[0].Action)
}

func TestDispatch_RiskReportHostlessPage(t *testing.T) {
	// Pages served from data: URIs carry no host or domain; they still
	// deserve a verdict and a history entry rather than an error.
	hist := &recordingHistory{}
	r := newRouter(&fakePolicy{}, domain.ActionOK, hist)

	resp, err := r.Dispatch(context.Background(), domain.RiskReportRequest{
		URL:      "data:text/html,<form><input type=password></form>",
		Score:    20,
		Findings: []string{"page served from data: URL"},
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictResponse{Action: domain.ActionOK}, resp)

	require.Len(t, hist.entries, 1)
	assert.Empty(t, hist.entries[0].Domain)
	assert.Equal(t, 20, hist.entries[0].Score)
}

func TestDispatch_RiskReportHistoryFailureIsNotFatal(t *testing.T) {
	hist := &recordingHistory{err: errors.New("disk full")}
	r := newRouter(&fakePolicy{}, domain.ActionOK, hist)

	resp, err := r.Dispatch(context.Background(), domain.RiskReportRequest{Score: 5, Domain: "a.com"})
	require.NoError(t, err)
	assert.Equal(t, VerdictResponse{Action: domain.ActionOK}, resp)
}

func TestDispatch_RiskReportRejectsMalformed(t *testing.T) {
	r := newRouter(&fakePolicy{}, domain.ActionOK, nil)
	_, err := r.Dispatch(context.Background(), domain.RiskReportRequest{Score: -3, Domain: "a.com"})
	assert.Error(t, err)
}

func TestDispatch_Mutations(t *testing.T) {
	policy := &fakePolicy{}
	r := newRouter(policy, domain.ActionOK, nil)
	ctx := context.Background()

	resp, err := r.Dispatch(ctx, domain.BlockDomainRequest{Domain: "evil.com"})
	require.NoError(t, err)
	assert.Equal(t, AckResponse{OK: true}, resp)

	resp, err = r.Dispatch(ctx, domain.AllowDomainRequest{Domain: "good.com"})
	require.NoError(t, err)
	assert.Equal(t, AckResponse{OK: true}, resp)

	resp, err = r.Dispatch(ctx, domain.RemoveFromListRequest{Domain: "good.com", List: domain.ListAllow})
	require.NoError(t, err)
	assert.Equal(t, AckResponse{OK: true}, resp)

	assert.Equal(t, []string{"evil.com"}, policy.blocked)
	assert.Equal(t, []string{"good.com"}, policy.allowed)
	assert.Equal(t, []string{"allow:good.com"}, policy.removed)
}

func TestDispatch_UpdateSettingsReturnsMergedResult(t *testing.T) {
	policy := &fakePolicy{settings: domain.DefaultSettings()}
	r := newRouter(policy, domain.ActionOK, nil)

	th := 80
	resp, err := r.Dispatch(context.Background(), domain.UpdateSettingsRequest{
		Settings: domain.SettingsPatch{Threshold: &th},
	})
	require.NoError(t, err)

	settings, ok := resp.(SettingsResponse)
	require.True(t, ok)
	assert.True(t, settings.OK)
	assert.Equal(t, 80, settings.Settings.Threshold)
	assert.Equal(t, 25, settings.Settings.PunycodeWeight)
}

func TestDispatch_UnsupportedRequest(t *testing.T) {
	r := newRouter(&fakePolicy{}, domain.ActionOK, nil)

	type strangeRequest struct{ domain.GetStateRequest }
	_, err := r.Dispatch(context.Background(), strangeRequest{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedRequest)
}

func TestDispatch_MutationErrorPropagates(t *testing.T) {
	policy := &fakePolicy{err: errors.New("persistence down")}
	r := newRouter(policy, domain.ActionOK, nil)

	_, err := r.Dispatch(context.Background(), domain.BlockDomainRequest{Domain: "evil.com"})
	assert.Error(t, err)
}
