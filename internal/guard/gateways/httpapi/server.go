// Package httpapi exposes the coordinator over HTTP: the message protocol,
// the navigation and scoring endpoints, evaluation history, health, and
// Prometheus metrics. The server is the process's only transport; page
// contexts and UI surfaces are expected to speak this API and render the
// results themselves.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haukened/phishguard/internal/guard/common/log"
	"github.com/haukened/phishguard/internal/guard/repos/history"
	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
	"github.com/haukened/phishguard/internal/guard/services/earlywarn"
	"github.com/haukened/phishguard/internal/guard/services/router"
)

// Per-request bounds. A hung persistence layer stalls one request, not the
// listener.
const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	maxBodyBytes    = 4 << 20 // scoring accepts raw page HTML
	shutdownGrace   = 10 * time.Second
	historyMaxLimit = 500
)

// Server hosts the HTTP API.
type Server struct {
	router  *router.Router
	early   *earlywarn.Service
	history history.Recorder
	engine  ruleset.Engine
	logger  log.Logger

	httpSrv *http.Server
}

// Options carries the Server dependencies.
type Options struct {
	Addr    string
	Env     string // gin runs in release mode unless "dev"
	Router  *router.Router
	Early   *earlywarn.Service
	History history.Recorder
	Engine  ruleset.Engine
	Logger  log.Logger
}

// New builds the server and its route table.
func New(opts Options) *Server {
	if opts.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:  opts.Router,
		early:   opts.Early,
		history: opts.History,
		engine:  opts.Engine,
		logger:  opts.Logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), metricsMiddleware())

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", metricsHandler())

	v1 := engine.Group("/v1")
	v1.POST("/message", s.handleMessage)
	v1.POST("/navigation", s.handleNavigation)
	v1.POST("/score", s.handleScore)
	v1.POST("/score/batch", s.handleScoreBatch)
	v1.GET("/history", s.handleHistory)

	s.httpSrv = &http.Server{
		Addr:         opts.Addr,
		Handler:      http.MaxBytesHandler(engine, maxBodyBytes),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Run serves until ctx is cancelled, then drains with a bounded grace
// period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(map[string]any{"addr": s.httpSrv.Addr}, "HTTP API listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("draining HTTP server: %w", err)
	}
	return <-errCh
}
