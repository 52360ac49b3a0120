// Package notify delivers early-warning alerts out of process. Delivery is
// strictly best-effort: duplicates for a tab are dropped, a global rate
// limit caps bursts, and transport failures are logged and forgotten.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/haukened/phishguard/internal/guard/common/log"
)

// Alert is one early-warning notification. TabID scopes the one-shot
// behavior: a tab is alerted at most once per navigation lifetime (bounded
// by the dedup cache size).
type Alert struct {
	TabID string `json:"tabId"`
	Host  string `json:"host"`
	Score int    `json:"score"`
}

// Notifier is the side-channel contract the early-warning flow depends on.
type Notifier interface {
	// Notify attempts delivery and reports whether the alert went out.
	// A false return means suppressed or failed, never an error; alerting
	// is not allowed to disturb the navigation path.
	Notify(ctx context.Context, a Alert) bool
}

// Sender performs the actual delivery once dedup and rate limiting pass.
type Sender interface {
	Send(ctx context.Context, a Alert) error
}

// Service implements Notifier with one-shot-per-tab dedup and a global
// rate limit in front of a Sender.
type Service struct {
	sender  Sender
	seen    *lru.Cache[string, struct{}]
	limiter *rate.Limiter
	logger  log.Logger
}

// Options carries the Service knobs.
type Options struct {
	Sender    Sender
	PerMinute int // delivered alerts per minute, burst of the same size
	DedupSize int // tabs remembered for one-shot suppression
	Logger    log.Logger
}

// New constructs a notification Service.
func New(opts Options) (*Service, error) {
	if opts.PerMinute <= 0 {
		opts.PerMinute = 6
	}
	if opts.DedupSize <= 0 {
		opts.DedupSize = 512
	}
	seen, err := lru.New[string, struct{}](opts.DedupSize)
	if err != nil {
		return nil, fmt.Errorf("building notification dedup cache: %w", err)
	}
	return &Service{
		sender:  opts.Sender,
		seen:    seen,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.PerMinute)), opts.PerMinute),
		logger:  opts.Logger,
	}, nil
}

// Notify delivers one alert unless the tab was already alerted or the rate
// limit is exhausted.
func (s *Service) Notify(ctx context.Context, a Alert) bool {
	if a.TabID != "" {
		if _, dup := s.seen.Get(a.TabID); dup {
			return false
		}
	}
	if !s.limiter.Allow() {
		s.logger.Debug(map[string]any{"host": a.Host}, "notification rate limit hit")
		return false
	}
	if err := s.sender.Send(ctx, a); err != nil {
		s.logger.Warn(map[string]any{"host": a.Host, "error": err}, "notification delivery failed")
		return false
	}
	if a.TabID != "" {
		s.seen.Add(a.TabID, struct{}{})
	}
	return true
}

// WebhookSender POSTs alerts as JSON to a configured URL.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender builds a Sender for the given webhook URL.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Send delivers one alert. Non-2xx responses are failures.
func (w *WebhookSender) Send(ctx context.Context, a Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// LogSender writes alerts to the log. The default when no webhook is
// configured, so early warnings remain observable.
type LogSender struct {
	logger log.Logger
}

// NewLogSender builds a Sender that only logs.
func NewLogSender(logger log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(_ context.Context, a Alert) error {
	l.logger.Warn(map[string]any{"tab": a.TabID, "host": a.Host, "score": a.Score}, "early phishing warning")
	return nil
}

var (
	_ Notifier = (*Service)(nil)
	_ Sender   = (*WebhookSender)(nil)
	_ Sender   = (*LogSender)(nil)
)
