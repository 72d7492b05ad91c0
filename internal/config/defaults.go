// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "github.com/ManuGH/dnegrid/internal/schema"

const (
	DefaultListenAddr      = ":8010"
	DefaultLogLevel        = "info"
	DefaultRateLimitRPS    = 10
	DefaultRateLimitBurst  = 20
	DefaultTracingExporter = "grpc"
	DefaultTracingEndpoint = "localhost:4317"
	DefaultBuildFetchLimit = 20
)

// Defaults returns the configuration used when neither file nor ENV set a value.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr: DefaultListenAddr,
		LogLevel:   DefaultLogLevel,
		RateLimit: RateLimitSettings{
			Enabled: true,
			RPS:     DefaultRateLimitRPS,
			Burst:   DefaultRateLimitBurst,
		},
		Tracing: TracingSettings{
			Exporter:     DefaultTracingExporter,
			Endpoint:     DefaultTracingEndpoint,
			SamplingRate: 1.0,
		},
		BuildFetchLimit: DefaultBuildFetchLimit,
		DNE:             schema.NewConfig(),
	}
}
