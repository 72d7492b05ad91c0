// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/dnegrid/internal/api"
	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/health"
	"github.com/ManuGH/dnegrid/internal/history"
	dlog "github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/metrics"
	"github.com/ManuGH/dnegrid/internal/plugin"
	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/ManuGH/dnegrid/internal/telemetry"
	"github.com/ManuGH/dnegrid/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "dnegrid"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				configPath = defaultConfigPath()
			}
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	return cmd
}

// serve runs until ctx is cancelled or the listener fails.
func serve(ctx context.Context, configPath string) error {
	// Safe defaults until the file is loaded.
	dlog.Configure(dlog.Config{Level: "info", Service: serviceName, Version: version.Version})
	logger := dlog.WithComponent("daemon")

	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(dlog.FieldEvent, "config.load_failed").
			Str(dlog.FieldPath, configPath).
			Msg("failed to load configuration")
		return invalid(err)
	}
	dlog.Configure(dlog.Config{Level: cfg.LogLevel, Service: serviceName, Version: version.Version})

	source := "env+defaults"
	if configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(dlog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(dlog.FieldPath, configPath).
		Strs("env_overrides", loader.Overrides()).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			logger.Warn().Err(err).Str(dlog.FieldEvent, "tracing.shutdown_failed").Msg("tracer shutdown failed")
		}
	}()

	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(ctx, cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	holder := config.NewHolder(cfg, loader)
	holder.OnApply(func(ctx context.Context, prev, next *config.Snapshot) {
		if prev.App.LogLevel != next.App.LogLevel {
			if err := dlog.SetLevel(next.App.LogLevel); err != nil {
				logger.Warn().Err(err).Str(dlog.FieldEvent, "log.level_rejected").Msg("keeping previous log level")
			}
		}
		publish(ctx, store, next)
	})
	initial := holder.Current()
	publish(dlog.ContextWithEpoch(ctx, initial.Epoch), store, initial)

	registry := plugin.NewRegistry()
	if err := registry.Register(plugin.DNE(
		func() schema.Config { return holder.Current().App.DNE },
		func() int { return holder.Current().App.BuildFetchLimit },
	)); err != nil {
		return fmt.Errorf("register plugin: %w", err)
	}

	deps := api.Deps{
		Config:  holder,
		Plugins: registry,
		Health:  newHealthManager(holder, configPath, store),
	}
	if cfg.Tracing.Enabled {
		deps.TracingService = serviceName
	}
	if store != nil {
		deps.History = store
	}
	srv, err := api.New(cfg, deps)
	if err != nil {
		return err
	}

	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Str(dlog.FieldEvent, "config.watcher_failed").Msg("config file watcher not started")
	}
	defer holder.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	logger.Info().Str(dlog.FieldEvent, "daemon.stopped").Msg("server stopped")
	return err
}

// publish updates the snapshot gauges and records the revision.
func publish(ctx context.Context, store *history.Store, snap *config.Snapshot) {
	metrics.ObserveSnapshot(snap.Epoch, snap.LoadedAt, snap.App.DNE)
	if store == nil {
		return
	}

	_, recorded, err := store.Record(ctx, snap.Epoch, snap.Source, snap.LoadedAt, snap.App.DNE)
	switch {
	case err != nil:
		metrics.RecordRevision(metrics.RevisionError)
		logger := dlog.WithComponentFromContext(ctx, "history")
		logger.Error().
			Err(err).
			Str(dlog.FieldEvent, "history.record_failed").
			Msg("failed to record configuration revision")
	case recorded:
		metrics.RecordRevision(metrics.RevisionRecorded)
	default:
		metrics.RecordRevision(metrics.RevisionSkipped)
	}
}

func newHealthManager(holder *config.Holder, configPath string, store *history.Store) *health.Manager {
	mgr := health.NewManager(version.Version)
	mgr.RegisterChecker(health.NewSnapshotChecker(func() (uint64, time.Time, error) {
		snap := holder.Current()
		return snap.Epoch, snap.LoadedAt, holder.LastReloadError()
	}))
	if configPath != "" {
		mgr.RegisterChecker(health.NewFileChecker("config-file", configPath))
	}
	if store != nil {
		mgr.RegisterChecker(health.NewFuncChecker("history", health.StatusDegraded, store.Verify))
	}
	return mgr
}
