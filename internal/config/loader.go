// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Loader reads the configuration with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string
	overrides  []string
}

// NewLoader returns a loader for configPath. An empty path means the
// configuration comes from the environment and defaults only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Path returns the file the loader reads, or "" for ENV-only configuration.
func (l *Loader) Path() string {
	return l.configPath
}

// Overrides lists the environment keys that took effect in the last Load.
func (l *Loader) Overrides() []string {
	return l.overrides
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: parse file (strict) -> apply env -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	env := newEnvOverlay()
	env.apply(&cfg)
	l.overrides = env.keys()
	cfg.DNE.Normalize()
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return decodeFile(data)
}

func decodeFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	if err := CheckSchemaVersion(f.SchemaVersion); err != nil {
		return err
	}

	if f.ListenAddr != "" {
		cfg.ListenAddr = f.ListenAddr
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.HistoryPath != "" {
		cfg.HistoryPath = f.HistoryPath
	}
	if len(f.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = append([]string(nil), f.AllowedOrigins...)
	}

	if f.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *f.RateLimit.Enabled
	}
	if f.RateLimit.RPS != nil {
		cfg.RateLimit.RPS = *f.RateLimit.RPS
	}
	if f.RateLimit.Burst != nil {
		cfg.RateLimit.Burst = *f.RateLimit.Burst
	}
	if len(f.RateLimit.Exempt) > 0 {
		cfg.RateLimit.Exempt = append([]string(nil), f.RateLimit.Exempt...)
	}

	if f.Tracing.Enabled != nil {
		cfg.Tracing.Enabled = *f.Tracing.Enabled
	}
	if f.Tracing.Exporter != "" {
		cfg.Tracing.Exporter = f.Tracing.Exporter
	}
	if f.Tracing.Endpoint != "" {
		cfg.Tracing.Endpoint = f.Tracing.Endpoint
	}
	if f.Tracing.SamplingRate != nil {
		cfg.Tracing.SamplingRate = *f.Tracing.SamplingRate
	}

	if f.Plugin.BuildFetchLimit != nil {
		cfg.BuildFetchLimit = *f.Plugin.BuildFetchLimit
	}

	cfg.DNE = f.DNE.Clone()
	return nil
}

// CheckSchemaVersion accepts an empty declaration, or any version with the
// same major as schema.Version that is not newer than it.
func CheckSchemaVersion(declared string) error {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return nil
	}
	v, err := semver.NewVersion(declared)
	if err != nil {
		return fmt.Errorf("%w: %q is not a semantic version: %v", ErrIncompatibleSchema, declared, err)
	}
	current := semver.MustParse(schema.Version)

	c, err := semver.NewConstraint(fmt.Sprintf(">= %d.0.0, <= %s", current.Major(), current.String()))
	if err != nil {
		return fmt.Errorf("build schema constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: file declares %s, binary serves %s", ErrIncompatibleSchema, v, current)
	}
	return nil
}

// LoadFileConfig reads a YAML file strictly, without defaults or ENV.
func LoadFileConfig(path string) (*FileConfig, error) {
	return (&Loader{}).loadFile(path)
}
