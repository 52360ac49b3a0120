package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/gateways/notify"
	"github.com/haukened/phishguard/internal/guard/repos/history"
	"github.com/haukened/phishguard/internal/guard/repos/policystore/memory"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset/bloom"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset/lru"
	"github.com/haukened/phishguard/internal/guard/services/decision"
	"github.com/haukened/phishguard/internal/guard/services/earlywarn"
	"github.com/haukened/phishguard/internal/guard/services/policy"
	"github.com/haukened/phishguard/internal/guard/services/router"
	"github.com/haukened/phishguard/internal/guard/services/rules"
)

// newTestServer wires a full in-memory coordinator behind the HTTP API.
func newTestServer(t *testing.T) (*Server, *policy.Service) {
	t.Helper()
	logger := log.NewNoopLogger()

	cache, err := lru.New(128)
	require.NoError(t, err)
	engine := ruleset.NewEngine(cache, bloom.NewFactory(), 0.01)
	compiler := rules.New(engine, logger)

	policySvc, err := policy.New(context.Background(), policy.Options{
		Store:    memory.New(),
		Compiler: compiler,
		Logger:   logger,
	})
	require.NoError(t, err)

	decider := decision.New(policySvc)
	msgRouter := router.New(router.Options{
		Policy:  policySvc,
		Decider: decider,
		History: history.Nop{},
		Logger:  logger,
	})

	notifier, err := notify.New(notify.Options{
		Sender:    notify.NewLogSender(logger),
		PerMinute: 60,
		DedupSize: 16,
		Logger:    logger,
	})
	require.NoError(t, err)

	early := earlywarn.New(earlywarn.Options{
		Policy:   policySvc,
		Matcher:  earlywarn.EngineMatcher{Engine: engine},
		Notifier: notifier,
		Logger:   logger,
	})

	srv := New(Options{
		Addr:    "127.0.0.1:0",
		Env:     "dev",
		Router:  msgRouter,
		Early:   early,
		History: history.Nop{},
		Engine:  engine,
		Logger:  logger,
	})
	return srv, policySvc
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMessage_BlockThenGetState(t *testing.T) {
	srv, policySvc := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/message",
		map[string]any{"kind": "blockDomain", "domain": "evil.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.True(t, policySvc.IsBlocked("evil.com"))

	w = doJSON(t, srv, http.MethodPost, "/v1/message",
		map[string]any{"kind": "getState", "origin": "https://app.evil.com/login"})
	require.Equal(t, http.StatusOK, w.Code)

	var state router.StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, []string{"evil.com"}, state.BlockList)
	assert.Equal(t, "evil.com", state.CurrentDomain)
	assert.Equal(t, 60, state.Settings.Threshold)
}

func TestMessage_UnsupportedKind(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodPost, "/v1/message", map[string]any{"kind": "selfDestruct"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"unsupported_request"}`, w.Body.String())
}

func TestMessage_RiskReportVerdict(t *testing.T) {
	srv, policySvc := newTestServer(t)
	require.NoError(t, policySvc.AddToAllow(context.Background(), "trusted.com"))

	w := doJSON(t, srv, http.MethodPost, "/v1/message", map[string]any{
		"kind":   "riskReport",
		"url":    "https://shop.trusted.com/",
		"score":  500,
		"host":   "shop.trusted.com",
		"domain": "trusted.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"action":"allowed"}`, w.Body.String())
}

func TestMessage_InvalidDomainIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/message",
		map[string]any{"kind": "blockDomain", "domain": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid domain")
}

func TestNavigation_EarlyPath(t *testing.T) {
	srv, policySvc := newTestServer(t)
	require.NoError(t, policySvc.AddToBlock(context.Background(), "evil.com"))

	w := doJSON(t, srv, http.MethodPost, "/v1/navigation",
		map[string]any{"url": "http://login.evil.com/", "tabId": "t1", "frameDepth": 0})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Score   int    `json:"score"`
		Domain  string `json:"domain"`
		Blocked bool   `json:"blocked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Blocked, "installed rules cover subdomains of blocked domains")
	assert.Equal(t, "evil.com", resp.Domain)
}

func TestScore_FullPipeline(t *testing.T) {
	srv, _ := newTestServer(t)

	page := `<html><body>
		<p>Please verify your PayPal account password now.</p>
		<input type="password" name="pw">
	</body></html>`
	w := doJSON(t, srv, http.MethodPost, "/v1/score",
		map[string]any{"url": "http://xn--80ak6aa92e.com/login", "html": page})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Report domain.RiskReport `json:"report"`
		Action string            `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// punycode 25 + password 20 + credential text 10 = 55 < 60.
	assert.Equal(t, 55, resp.Report.Score)
	assert.Equal(t, "ok", resp.Action)
	assert.Equal(t, "xn--80ak6aa92e.com", resp.Report.Domain)
}

func TestScore_DataSchemePage(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/score", map[string]any{
		"url":  "data:text/html,login",
		"html": `<html><body><input type="password"></body></html>`,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Report domain.RiskReport `json:"report"`
		Action string            `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// data: scheme 20 + password 20 = 40 < 60; no host, no domain.
	assert.Equal(t, 40, resp.Report.Score)
	assert.Empty(t, resp.Report.Domain)
	assert.Equal(t, "ok", resp.Action)
}

func TestScoreBatch(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/score/batch", map[string]any{
		"pages": []map[string]any{
			{"url": "http://plain.example.org/", "html": "<html><body>hello</body></html>"},
			{"url": "http://198.51.100.4/x", "html": ""},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []struct {
			Report domain.RiskReport `json:"report"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0, resp.Results[0].Report.Score)
	assert.Equal(t, 10, resp.Results[1].Report.Score)
}

func TestHistory_BadLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/v1/history?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory_EmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())
}
