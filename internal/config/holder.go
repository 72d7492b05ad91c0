// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	dlog "github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Snapshot sources.
const (
	SourceStartup = "startup"
	SourceAPI     = "api"
	SourceWatcher = "watcher"
)

const defaultDebounce = 500 * time.Millisecond

// Snapshot is an immutable, published configuration. Callers must not
// modify App; use App.Clone() when a mutable copy is needed.
type Snapshot struct {
	App      AppConfig
	Epoch    uint64
	LoadedAt time.Time
	Source   string
}

// ApplyFunc is invoked synchronously after every successful swap.
// prev is nil for the first snapshot.
type ApplyFunc func(ctx context.Context, prev, next *Snapshot)

// Holder publishes the effective configuration through an atomic pointer.
// Readers never lock and always see a complete tree. Reloads either apply
// a fully validated configuration or leave the current one untouched.
type Holder struct {
	current atomic.Pointer[Snapshot]
	loader  *Loader
	logger  zerolog.Logger

	reloadMu sync.Mutex
	swapMu   sync.Mutex

	errMu   sync.RWMutex
	lastErr error

	hooksMu sync.RWMutex
	hooks   []ApplyFunc

	watchMu  sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce time.Duration
	now      func() time.Time
}

// NewHolder creates a holder publishing initial as epoch 1.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	h := &Holder{
		loader:   loader,
		logger:   dlog.WithComponent("config"),
		debounce: defaultDebounce,
		now:      time.Now,
	}
	h.current.Store(&Snapshot{
		App:      initial.Clone(),
		Epoch:    1,
		LoadedAt: h.now(),
		Source:   SourceStartup,
	})
	return h
}

// Current returns the published snapshot.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// OnApply registers fn to run after each swap. Hooks run in registration
// order on the goroutine that performed the swap.
func (h *Holder) OnApply(fn ApplyFunc) {
	h.hooksMu.Lock()
	defer h.hooksMu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// Swap publishes cfg as the next epoch and returns the new snapshot.
func (h *Holder) Swap(ctx context.Context, cfg AppConfig, source string) *Snapshot {
	h.swapMu.Lock()
	prev := h.current.Load()
	next := &Snapshot{
		App:      cfg.Clone(),
		Epoch:    prev.Epoch + 1,
		LoadedAt: h.now(),
		Source:   source,
	}
	h.current.Store(next)
	h.swapMu.Unlock()

	h.notify(dlog.ContextWithEpoch(ctx, next.Epoch), prev, next)
	h.logChanges(prev.App, next.App)
	return next
}

// Reload re-reads the configuration file and applies it.
// On failure the previous snapshot stays published.
func (h *Holder) Reload(ctx context.Context, source string) (*Snapshot, error) {
	if h.loader == nil {
		return nil, errors.New("config holder has no loader")
	}

	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	h.logger.Info().
		Str("event", "config.reload_start").
		Str("source", source).
		Msg("reloading configuration")

	cfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Str("source", source).
			Uint64(dlog.FieldEpoch, h.Current().Epoch).
			Msg("configuration rejected, keeping current snapshot")
		err = fmt.Errorf("reload config: %w", err)
		h.setLastError(err)
		metrics.RecordReload(source, err)
		return nil, err
	}

	next := h.Swap(ctx, cfg, source)
	h.setLastError(nil)
	metrics.RecordReload(source, nil)
	h.logger.Info().
		Str("event", "config.reload_success").
		Str("source", source).
		Uint64(dlog.FieldEpoch, next.Epoch).
		Int("projects", len(next.App.DNE.Projects)).
		Int("schedulers", len(next.App.DNE.Schedulers)).
		Msg("configuration reloaded successfully")
	return next, nil
}

// LastReloadError returns the error of the most recent reload, or nil if it
// succeeded or no reload happened yet.
func (h *Holder) LastReloadError() error {
	h.errMu.RLock()
	defer h.errMu.RUnlock()
	return h.lastErr
}

func (h *Holder) setLastError(err error) {
	h.errMu.Lock()
	h.lastErr = err
	h.errMu.Unlock()
}

// StartWatcher watches the config file and reloads it after changes settle.
// The parent directory is watched so editors that replace the file by rename
// are still noticed. If the loader has no file this is a no-op.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := ""
	if h.loader != nil {
		path = h.loader.Path()
	}
	if path == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	if h.cancel != nil {
		return errors.New("config watcher already running")
	}

	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() { _ = watcher.Close() }()
		h.watchLoop(ctx, watcher, path)
	}()

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str(dlog.FieldPath, path).
		Msg("watching config file for changes")
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	timer := time.NewTimer(h.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str("event", "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")
			timer.Reset(h.debounce)

		case <-timer.C:
			if _, err := h.Reload(ctx, SourceWatcher); err != nil {
				h.logger.Error().
					Err(err).
					Str("event", "config.auto_reload_failed").
					Msg("automatic config reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the watcher (if running) and waits for it to exit.
func (h *Holder) Stop() {
	h.watchMu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.watchMu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.wg.Wait()
}

func (h *Holder) notify(ctx context.Context, prev, next *Snapshot) {
	h.hooksMu.RLock()
	hooks := append([]ApplyFunc(nil), h.hooks...)
	h.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, prev, next)
	}
}

// logChanges logs the differences between old and new configuration.
func (h *Holder) logChanges(old, newCfg AppConfig) {
	if old.ListenAddr != newCfg.ListenAddr {
		h.logger.Warn().
			Str("event", "config.restart_required").
			Str("old", old.ListenAddr).
			Str("new", newCfg.ListenAddr).
			Msg("config changed: ListenAddr (takes effect after restart)")
	}
	if !slices.Equal(old.AllowedOrigins, newCfg.AllowedOrigins) {
		h.logger.Warn().
			Str("event", "config.restart_required").
			Strs("old", old.AllowedOrigins).
			Strs("new", newCfg.AllowedOrigins).
			Msg("config changed: AllowedOrigins (takes effect after restart)")
	}
	if old.LogLevel != newCfg.LogLevel {
		h.logger.Info().
			Str("old", old.LogLevel).
			Str("new", newCfg.LogLevel).
			Msg("config changed: LogLevel")
	}
	if !old.RateLimit.Equal(newCfg.RateLimit) {
		h.logger.Warn().
			Str("event", "config.restart_required").
			Interface("old", old.RateLimit).
			Interface("new", newCfg.RateLimit).
			Msg("config changed: RateLimit (takes effect after restart)")
	}
	if old.Tracing != newCfg.Tracing {
		h.logger.Warn().
			Str("event", "config.restart_required").
			Msg("config changed: Tracing (takes effect after restart)")
	}
	if old.BuildFetchLimit != newCfg.BuildFetchLimit {
		h.logger.Info().
			Int("old", old.BuildFetchLimit).
			Int("new", newCfg.BuildFetchLimit).
			Msg("config changed: BuildFetchLimit")
	}
	if !old.DNE.Equal(newCfg.DNE) {
		h.logger.Info().
			Int("projects_old", len(old.DNE.Projects)).
			Int("projects_new", len(newCfg.DNE.Projects)).
			Int("schedulers_old", len(old.DNE.Schedulers)).
			Int("schedulers_new", len(newCfg.DNE.Schedulers)).
			Msg("config changed: DNE tree")
	}
}
