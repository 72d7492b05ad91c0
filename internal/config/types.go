// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"slices"

	"github.com/ManuGH/dnegrid/internal/schema"
)

// FileConfig is the on-disk YAML layout. Pointer fields distinguish "unset"
// from the zero value so that defaults survive partial files.
type FileConfig struct {
	SchemaVersion string `yaml:"schemaVersion,omitempty" json:"schemaVersion,omitempty"`
	ListenAddr    string `yaml:"listenAddr,omitempty" json:"listenAddr,omitempty"`
	LogLevel      string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	HistoryPath   string `yaml:"historyPath,omitempty" json:"historyPath,omitempty"`
	// AllowedOrigins lists browser origins allowed by CORS and CSRF checks.
	AllowedOrigins []string        `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
	RateLimit      RateLimitConfig `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	Tracing        TracingConfig   `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Plugin         PluginConfig    `yaml:"plugin,omitempty" json:"plugin,omitempty"`
	DNE            schema.Config   `yaml:"dne" json:"dne"`
}

// RateLimitConfig is the file form of RateLimitSettings.
type RateLimitConfig struct {
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	RPS     *int  `yaml:"rps,omitempty" json:"rps,omitempty"`
	Burst   *int  `yaml:"burst,omitempty" json:"burst,omitempty"`
	// Exempt lists client IPs or CIDR prefixes that bypass the limiter.
	Exempt []string `yaml:"exempt,omitempty" json:"exempt,omitempty"`
}

// TracingConfig is the file form of TracingSettings.
type TracingConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty" json:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
}

// PluginConfig holds the client-side settings published with the plugin.
type PluginConfig struct {
	BuildFetchLimit *int `yaml:"buildFetchLimit,omitempty" json:"buildFetchLimit,omitempty"`
}

// AppConfig is the effective, validated configuration.
type AppConfig struct {
	Version     string
	ListenAddr  string
	LogLevel    string
	HistoryPath string

	AllowedOrigins []string

	RateLimit RateLimitSettings
	Tracing   TracingSettings

	// BuildFetchLimit is the default number of builds the grid fetches per builder.
	BuildFetchLimit int

	DNE schema.Config
}

// RateLimitSettings configures the API rate limiter.
type RateLimitSettings struct {
	Enabled bool
	RPS     int
	Burst   int
	Exempt  []string
}

// Equal reports whether both settings configure the same limiter.
func (s RateLimitSettings) Equal(o RateLimitSettings) bool {
	return s.Enabled == o.Enabled && s.RPS == o.RPS && s.Burst == o.Burst && slices.Equal(s.Exempt, o.Exempt)
}

// TracingSettings configures the OpenTelemetry exporter.
type TracingSettings struct {
	Enabled      bool
	Exporter     string // "grpc" or "http"
	Endpoint     string
	SamplingRate float64
}

// Clone returns an alias-free copy of the configuration.
func (c AppConfig) Clone() AppConfig {
	out := c
	out.AllowedOrigins = slices.Clone(c.AllowedOrigins)
	out.RateLimit.Exempt = slices.Clone(c.RateLimit.Exempt)
	out.DNE = c.DNE.Clone()
	return out
}
