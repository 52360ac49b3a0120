package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haukened/phishguard/internal/guard/common/clock"
	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/config"
	"github.com/haukened/phishguard/internal/guard/gateways/httpapi"
	"github.com/haukened/phishguard/internal/guard/gateways/notify"
	"github.com/haukened/phishguard/internal/guard/repos/history"
	boltstore "github.com/haukened/phishguard/internal/guard/repos/policystore/bolt"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset/bloom"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset/lru"
	"github.com/haukened/phishguard/internal/guard/repos/seeds"
	"github.com/haukened/phishguard/internal/guard/services/decision"
	"github.com/haukened/phishguard/internal/guard/services/earlywarn"
	"github.com/haukened/phishguard/internal/guard/services/policy"
	"github.com/haukened/phishguard/internal/guard/services/router"
	"github.com/haukened/phishguard/internal/guard/services/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordinator daemon",
	Long: "Loads the persisted policy, rebuilds the filter rules, and serves the\n" +
		"message protocol, navigation, scoring, and history APIs over HTTP.\n" +
		"Configuration comes from GUARD_-prefixed environment variables.",
	RunE: runServe,
}

// application holds the wired components the daemon runs.
type application struct {
	cfg     *config.AppConfig
	policy  *policy.Service
	server  *httpapi.Server
	seeds   *seeds.Watcher
	closers []func() error
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}

	log.Info(map[string]any{
		"version":     version,
		"env":         cfg.Env,
		"listen":      cfg.Listen,
		"policy_path": cfg.PolicyPath,
		"seed_dir":    cfg.SeedDir,
	}, "starting phishguard daemon")

	app, err := buildApplication(cmd.Context(), cfg)
	if err != nil {
		// Persistence unavailable at startup is fatal; a coordinator
		// without its policy must not come up half-armed.
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "shutdown signal received")
		cancel()
	}()

	if app.seeds != nil {
		go func() {
			if err := app.seeds.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error(map[string]any{"error": err}, "seed watcher stopped")
			}
		}()
	}

	if err := app.server.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info(nil, "phishguard daemon stopped gracefully")
	return nil
}

// buildApplication constructs every component and wires them together:
// stores, the rule engine and compiler, the policy service, and the HTTP
// gateway around them.
func buildApplication(ctx context.Context, cfg *config.AppConfig) (*application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()
	app := &application{cfg: cfg}

	// Policy persistence.
	store, err := boltstore.New(cfg.PolicyPath, clk)
	if err != nil {
		return nil, fmt.Errorf("opening policy store: %w", err)
	}
	app.closers = append(app.closers, store.Close)

	// Filter engine: bloom prefilter in front of an LRU decision cache.
	cacheSize := int(cfg.MatchCacheSize)
	if cfg.DisableMatchCache {
		cacheSize = 0
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("building match cache: %w", err)
	}
	engine := ruleset.NewEngine(cache, bloom.NewFactory(), 0.01)
	compiler := rules.New(engine, logger)

	// Policy service: loads state and performs the initial rebuild.
	policySvc, err := policy.New(ctx, policy.Options{
		Store:    store,
		Compiler: compiler,
		Logger:   logger,
	})
	if err != nil {
		app.close()
		return nil, err
	}
	app.policy = policySvc

	// Evaluation history.
	var recorder history.Recorder = history.Nop{}
	if cfg.HistoryPath != "" {
		hist, err := history.Open(cfg.HistoryPath, clk)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		recorder = hist
		app.closers = append(app.closers, hist.Close)
	}

	// Early-warning side channel.
	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.NotifyWebhook != "" {
		sender = notify.NewWebhookSender(cfg.NotifyWebhook)
	}
	notifier, err := notify.New(notify.Options{
		Sender:    sender,
		PerMinute: cfg.NotifyPerMin,
		DedupSize: cfg.NotifyDedupSize,
		Logger:    logger,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("building notifier: %w", err)
	}

	// Service layer.
	msgRouter := router.New(router.Options{
		Policy:  policySvc,
		Decider: decision.New(policySvc),
		History: recorder,
		Logger:  logger,
	})
	early := earlywarn.New(earlywarn.Options{
		Policy:   policySvc,
		Matcher:  earlywarn.EngineMatcher{Engine: engine},
		Notifier: notifier,
		Logger:   logger,
	})

	// Seed lists.
	if cfg.SeedDir != "" {
		if err := importSeeds(ctx, cfg.SeedDir, policySvc, logger); err != nil {
			app.close()
			return nil, err
		}
		if cfg.SeedWatch {
			app.seeds = seeds.NewWatcher(cfg.SeedDir, func(domains []string) {
				if added, err := policySvc.ImportBlocked(context.Background(), domains); err != nil {
					logger.Error(map[string]any{"error": err}, "seed reimport failed")
				} else if added > 0 {
					logger.Info(map[string]any{"added": added}, "seed reimport applied")
				}
			}, logger)
		}
	}

	app.server = httpapi.New(httpapi.Options{
		Addr:    cfg.Listen,
		Env:     cfg.Env,
		Router:  msgRouter,
		Early:   early,
		History: recorder,
		Engine:  engine,
		Logger:  logger,
	})
	return app, nil
}

// importSeeds loads the seed directory into the block list with one persist
// and one rebuild.
func importSeeds(ctx context.Context, dir string, policySvc *policy.Service, logger log.Logger) error {
	domains, err := seeds.LoadDir(dir, logger)
	if err != nil {
		return fmt.Errorf("loading seed lists: %w", err)
	}
	added, err := policySvc.ImportBlocked(ctx, domains)
	if err != nil {
		return fmt.Errorf("importing seed lists: %w", err)
	}
	logger.Info(map[string]any{"files_domains": len(domains), "added": added}, "seed lists imported")
	return nil
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn(map[string]any{"error": err}, "close failed")
		}
	}
	a.closers = nil
}
