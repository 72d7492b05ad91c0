// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration persistence.
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

// Save writes the configuration to disk atomically (temp file + rename).
func (m *Manager) Save(cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	data, err := EncodeYAML(ToFileConfig(cfg))
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ToFileConfig maps the effective configuration back to the file layout.
// Every setting is written explicitly so the file no longer depends on
// defaults of a later release.
func ToFileConfig(cfg AppConfig) FileConfig {
	return FileConfig{
		SchemaVersion:  schema.Version,
		ListenAddr:     cfg.ListenAddr,
		LogLevel:       cfg.LogLevel,
		HistoryPath:    cfg.HistoryPath,
		AllowedOrigins: slices.Clone(cfg.AllowedOrigins),
		RateLimit: RateLimitConfig{
			Enabled: boolPtr(cfg.RateLimit.Enabled),
			RPS:     intPtr(cfg.RateLimit.RPS),
			Burst:   intPtr(cfg.RateLimit.Burst),
			Exempt:  slices.Clone(cfg.RateLimit.Exempt),
		},
		Tracing: TracingConfig{
			Enabled:      boolPtr(cfg.Tracing.Enabled),
			Exporter:     cfg.Tracing.Exporter,
			Endpoint:     cfg.Tracing.Endpoint,
			SamplingRate: floatPtr(cfg.Tracing.SamplingRate),
		},
		Plugin: PluginConfig{
			BuildFetchLimit: intPtr(cfg.BuildFetchLimit),
		},
		DNE: cfg.DNE.Clone(),
	}
}

// EncodeYAML renders v with two-space indentation.
func EncodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func boolPtr(b bool) *bool        { return &b }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
