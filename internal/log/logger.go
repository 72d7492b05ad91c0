// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log holds the process-wide zerolog logger and the request
// correlation helpers built on it.
package log

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultService = "dnegrid"

// Config selects the level, sink and static fields of the global logger.
// Zero fields fall back to info, stdout and "dnegrid".
type Config struct {
	Level   string
	Output  io.Writer
	Service string
	Version string
}

var base atomic.Pointer[zerolog.Logger]

// Configure replaces the global logger. serve calls it with defaults before
// the configuration is read and again with the configured level. An
// unparsable level keeps info; the loader has already rejected it.
func Configure(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	service := cfg.Service
	if service == "" {
		service = defaultService
	}

	l := zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Str("version", cfg.Version).
		Logger()
	base.Store(&l)
}

// SetLevel changes the global level in place. Hot reloads use it so that
// child loggers held by long-lived components pick the change up.
func SetLevel(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

// Base returns a copy of the global logger.
func Base() zerolog.Logger {
	return *base.Load()
}

// L is Base for call chains.
func L() *zerolog.Logger {
	l := Base()
	return &l
}

// WithComponent returns a child logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str(FieldComponent, component).Logger()
}

func init() {
	Configure(Config{})
}
