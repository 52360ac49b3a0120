package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	// No env overrides
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.Listen != "127.0.0.1:8422" {
		t.Errorf("expected Listen=127.0.0.1:8422, got %q", cfg.Listen)
	}
	if cfg.PolicyPath != "/var/lib/phishguard/policy.db" {
		t.Errorf("expected PolicyPath=/var/lib/phishguard/policy.db, got %q", cfg.PolicyPath)
	}
	if cfg.HistoryPath != "/var/lib/phishguard/history.db" {
		t.Errorf("expected HistoryPath=/var/lib/phishguard/history.db, got %q", cfg.HistoryPath)
	}
	if cfg.SeedDir != "" {
		t.Errorf("expected SeedDir empty, got %q", cfg.SeedDir)
	}
	if cfg.SeedWatch {
		t.Error("expected SeedWatch=false")
	}
	if cfg.MatchCacheSize != 4096 {
		t.Errorf("expected MatchCacheSize=4096, got %d", cfg.MatchCacheSize)
	}
	if cfg.DisableMatchCache {
		t.Error("expected DisableMatchCache=false")
	}
	if cfg.NotifyWebhook != "" {
		t.Errorf("expected NotifyWebhook empty, got %q", cfg.NotifyWebhook)
	}
	if cfg.NotifyPerMin != 6 {
		t.Errorf("expected NotifyPerMin=6, got %d", cfg.NotifyPerMin)
	}
	if cfg.NotifyDedupSize != 512 {
		t.Errorf("expected NotifyDedupSize=512, got %d", cfg.NotifyDedupSize)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("GUARD_ENV", "dev")
	t.Setenv("GUARD_LOG_LEVEL", "debug")
	t.Setenv("GUARD_LISTEN", ":9422")
	t.Setenv("GUARD_POLICY_PATH", "/tmp/policy.db")
	t.Setenv("GUARD_HISTORY_PATH", "/tmp/history.db")
	t.Setenv("GUARD_SEED_DIR", "/tmp/seeds.d/")
	t.Setenv("GUARD_SEED_WATCH", "true")
	t.Setenv("GUARD_MATCH_CACHE_SIZE", "2000")
	t.Setenv("GUARD_NOTIFY_WEBHOOK", "https://hooks.example/phishguard")
	t.Setenv("GUARD_NOTIFY_PER_MIN", "12")
	t.Setenv("GUARD_NOTIFY_DEDUP_SIZE", "128")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	if cfg.Listen != ":9422" {
		t.Errorf("expected Listen=:9422, got %q", cfg.Listen)
	}
	if cfg.PolicyPath != "/tmp/policy.db" {
		t.Errorf("expected PolicyPath=/tmp/policy.db, got %q", cfg.PolicyPath)
	}
	if cfg.SeedDir != "/tmp/seeds.d/" {
		t.Errorf("expected SeedDir=/tmp/seeds.d/, got %q", cfg.SeedDir)
	}
	if !cfg.SeedWatch {
		t.Error("expected SeedWatch=true")
	}
	if cfg.MatchCacheSize != 2000 {
		t.Errorf("expected MatchCacheSize=2000, got %d", cfg.MatchCacheSize)
	}
	if cfg.NotifyWebhook != "https://hooks.example/phishguard" {
		t.Errorf("expected webhook override, got %q", cfg.NotifyWebhook)
	}
	if cfg.NotifyPerMin != 12 {
		t.Errorf("expected NotifyPerMin=12, got %d", cfg.NotifyPerMin)
	}
	if cfg.NotifyDedupSize != 128 {
		t.Errorf("expected NotifyDedupSize=128, got %d", cfg.NotifyDedupSize)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad env", key: "GUARD_ENV", value: "staging"},
		{name: "bad log level", key: "GUARD_LOG_LEVEL", value: "verbose"},
		{name: "listen missing port", key: "GUARD_LISTEN", value: "127.0.0.1"},
		{name: "listen port out of range", key: "GUARD_LISTEN", value: "127.0.0.1:99999"},
		{name: "listen port zero", key: "GUARD_LISTEN", value: "127.0.0.1:0"},
		{name: "zero cache size", key: "GUARD_MATCH_CACHE_SIZE", value: "0"},
		{name: "webhook not a url", key: "GUARD_NOTIFY_WEBHOOK", value: "not-a-url"},
		{name: "zero notify rate", key: "GUARD_NOTIFY_PER_MIN", value: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestValidHostPort(t *testing.T) {
	tests := []struct {
		addr     string
		expected bool
	}{
		{"127.0.0.1:8422", true},
		{":8080", true},
		{"localhost:80", true},
		{"127.0.0.1", false},
		{"127.0.0.1:", false},
		{"127.0.0.1:abc", false},
		{"127.0.0.1:0", false},
		{"", false},
	}
	v := validator.New()
	if err := v.RegisterValidation("host_port", validHostPort); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, tt := range tests {
		err := v.Var(tt.addr, "host_port")
		if ok := err == nil; ok != tt.expected {
			t.Errorf("host_port(%q) = %v, want %v", tt.addr, ok, tt.expected)
		}
	}
}
