// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/log"
)

type startupCheck struct {
	name string
	run  func() error
}

// PerformStartupChecks verifies the host can run cfg before any listener or
// database is opened. The first failure aborts; ctx is honoured between
// checks.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup")

	checks := []startupCheck{
		{name: "listen address", run: func() error { return checkListenAddr(cfg.ListenAddr) }},
	}
	if cfg.HistoryPath != "" {
		dir := filepath.Dir(cfg.HistoryPath)
		checks = append(checks, startupCheck{name: "history directory", run: func() error { return checkWritableDir(dir) }})
	}

	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.run(); err != nil {
			logger.Error().Err(err).Str(log.FieldEvent, "startup.check_failed").Str("check", c.name).Msg("startup check failed")
			return fmt.Errorf("%s check failed: %w", c.name, err)
		}
		logger.Debug().Str(log.FieldEvent, "startup.check_passed").Str("check", c.name).Msg("startup check passed")
	}
	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Int("checks", len(checks)).Msg("startup checks passed")
	return nil
}

func checkListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if n, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("invalid listen port %q", port)
	} else if n == 0 {
		logger := log.WithComponent("startup")
		logger.Warn().Str(log.FieldAddr, addr).Msg("port 0 picks a random port")
	}
	return nil
}

// checkWritableDir creates dir when missing and proves a file can be
// created in it.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".dnegrid-writecheck-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
