// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the DNE grid configuration over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/health"
	"github.com/ManuGH/dnegrid/internal/history"
	"github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/plugin"
	"github.com/rs/zerolog"
)

// HeaderSchemaVersion carries schema.Version on every DNE response.
const HeaderSchemaVersion = "X-DNE-Schema-Version"

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

// ConfigSource publishes configuration snapshots. *config.Holder satisfies it.
type ConfigSource interface {
	Current() *config.Snapshot
	Reload(ctx context.Context, source string) (*config.Snapshot, error)
}

// RevisionStore reads the applied configuration history. *history.Store
// satisfies it.
type RevisionStore interface {
	List(ctx context.Context, limit int) ([]history.Revision, error)
	Get(ctx context.Context, id int64) (history.Revision, error)
}

// Deps are the collaborators of the server. History may be nil, which
// disables the revision endpoints.
type Deps struct {
	Config  ConfigSource
	Plugins *plugin.Registry
	History RevisionStore
	Health  *health.Manager

	// TracingService names the HTTP spans. Empty disables tracing.
	TracingService string
}

// Server is the HTTP API server.
type Server struct {
	cfg     config.AppConfig
	source  ConfigSource
	plugins *plugin.Registry
	history RevisionStore
	health  *health.Manager
	now     func() time.Time
	logger  zerolog.Logger

	handler http.Handler
	httpSrv *http.Server
	started atomic.Bool
}

// New creates the server. cfg supplies the settings that are fixed for the
// lifetime of the process (listen address, rate limit, origins).
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("api: config source is required")
	}
	if deps.Plugins == nil {
		return nil, errors.New("api: plugin registry is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(cfg.Version)
	}

	s := &Server{
		cfg:     cfg.Clone(),
		source:  deps.Config,
		plugins: deps.Plugins,
		history: deps.History,
		health:  deps.Health,
		now:     time.Now,
		logger:  log.WithComponent("api"),
	}
	s.handler = s.routes(deps.TracingService)
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s, nil
}

// Handler returns the configured HTTP handler with all routes and middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured address. It returns nil after a
// graceful Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpSrv.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("api: server already started")
	}
	s.logger.Info().
		Str(log.FieldEvent, "api.listening").
		Str(log.FieldAddr, ln.Addr().String()).
		Msg("HTTP API listening")

	if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}
	s.logger.Info().Str(log.FieldEvent, "api.shutdown").Msg("shutting down server")
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
