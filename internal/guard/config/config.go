package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Listen is the host:port the HTTP API binds to.
	Listen string `koanf:"listen" validate:"required,host_port"`

	// PolicyPath is the bolt database file holding settings and both lists.
	PolicyPath string `koanf:"policy_path" validate:"required"`

	// HistoryPath is the sqlite database file recording evaluations.
	// Empty disables history.
	HistoryPath string `koanf:"history_path"`

	// SeedDir is a directory of domain list files imported into the block
	// list at startup. Empty disables seeding.
	SeedDir string `koanf:"seed_dir"`

	// SeedWatch re-imports seed files when they change on disk.
	SeedWatch bool `koanf:"seed_watch"`

	// MatchCacheSize bounds the per-host match decision cache.
	MatchCacheSize uint `koanf:"match_cache_size" validate:"required,gte=1"`

	// DisableMatchCache bypasses match caching entirely.
	// Useful for testing scenarios where cache behavior gets in the way.
	DisableMatchCache bool `koanf:"disable_match_cache"`

	// NotifyWebhook receives early-warning notifications as JSON POSTs.
	// Empty logs notifications instead of delivering them.
	NotifyWebhook string `koanf:"notify_webhook" validate:"omitempty,http_url"`

	// NotifyPerMin caps delivered notifications per minute.
	NotifyPerMin int `koanf:"notify_per_min" validate:"gte=1"`

	// NotifyDedupSize bounds the one-shot notification cache keyed by tab.
	NotifyDedupSize int `koanf:"notify_dedup_size" validate:"required,gte=1"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// phishguard daemon: production logging, loopback API, databases under
// /var/lib/phishguard, seeding and the webhook disabled.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:               "prod",
	LogLevel:          "info",
	Listen:            "127.0.0.1:8422",
	PolicyPath:        "/var/lib/phishguard/policy.db",
	HistoryPath:       "/var/lib/phishguard/history.db",
	SeedDir:           "",
	SeedWatch:         false,
	MatchCacheSize:    4096,
	DisableMatchCache: false,
	NotifyWebhook:     "",
	NotifyPerMin:      6,
	NotifyDedupSize:   512,
}

// validHostPort validates a listen address in host:port form. The host part
// may be empty (bind all interfaces) or any hostname/IP; the port must be a
// number in [1, 65535].
func validHostPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0
}

// envLoader loads environment variables with the prefix "GUARD_", lowercasing
// keys and splitting comma or space separated values into slices.
// Declared as a var so tests can substitute it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "GUARD_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "GUARD_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader seeds the Koanf instance from DEFAULT_APP_CONFIG via the
// structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation wires the custom "host_port" rule into the validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("host_port", validHostPort)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
