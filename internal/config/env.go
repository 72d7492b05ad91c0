// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ManuGH/dnegrid/internal/log"
)

// Environment keys. A set, non-empty variable wins over the file.
const (
	EnvConfigPath          = "DNEGRID_CONFIG"
	EnvListen              = "DNEGRID_LISTEN"
	EnvLogLevel            = "DNEGRID_LOG_LEVEL"
	EnvHistoryPath         = "DNEGRID_HISTORY_PATH"
	EnvAllowedOrigins      = "DNEGRID_ALLOWED_ORIGINS"
	EnvRateLimitEnabled    = "DNEGRID_RATELIMIT_ENABLED"
	EnvRateLimitRPS        = "DNEGRID_RATELIMIT_RPS"
	EnvRateLimitBurst      = "DNEGRID_RATELIMIT_BURST"
	EnvRateLimitExempt     = "DNEGRID_RATELIMIT_EXEMPT"
	EnvTracingEnabled      = "DNEGRID_TRACING_ENABLED"
	EnvTracingExporter     = "DNEGRID_TRACING_EXPORTER"
	EnvTracingEndpoint     = "DNEGRID_TRACING_ENDPOINT"
	EnvTracingSamplingRate = "DNEGRID_TRACING_SAMPLING_RATE"
	EnvBuildFetchLimit     = "DNEGRID_BUILD_FETCH_LIMIT"
)

// envOverlay applies environment overrides onto a configuration and
// remembers which keys took effect.
type envOverlay struct {
	lookup  func(string) (string, bool)
	applied []string
}

func newEnvOverlay() *envOverlay {
	return &envOverlay{lookup: os.LookupEnv}
}

// overlay replaces *dst with the parsed value of key. Unset or empty keys
// leave dst alone; unparsable values are logged and ignored.
func overlay[T any](e *envOverlay, key string, dst *T, parse func(string) (T, error)) {
	raw, ok := e.lookup(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return
	}
	v, err := parse(raw)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str(log.FieldEvent, "config.env_invalid").
			Str("key", key).
			Str("value", raw).
			Err(err).
			Msg("ignoring invalid environment override")
		return
	}
	*dst = v
	e.applied = append(e.applied, key)
}

func (e *envOverlay) keys() []string {
	out := slices.Clone(e.applied)
	slices.Sort(out)
	return out
}

func parseString(s string) (string, error) { return s, nil }

// parseBool also accepts yes and no.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseList(s string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}

func (e *envOverlay) apply(cfg *AppConfig) {
	overlay(e, EnvListen, &cfg.ListenAddr, parseString)
	overlay(e, EnvLogLevel, &cfg.LogLevel, parseString)
	overlay(e, EnvHistoryPath, &cfg.HistoryPath, parseString)
	overlay(e, EnvAllowedOrigins, &cfg.AllowedOrigins, parseList)

	overlay(e, EnvRateLimitEnabled, &cfg.RateLimit.Enabled, parseBool)
	overlay(e, EnvRateLimitRPS, &cfg.RateLimit.RPS, strconv.Atoi)
	overlay(e, EnvRateLimitBurst, &cfg.RateLimit.Burst, strconv.Atoi)
	overlay(e, EnvRateLimitExempt, &cfg.RateLimit.Exempt, parseList)

	overlay(e, EnvTracingEnabled, &cfg.Tracing.Enabled, parseBool)
	overlay(e, EnvTracingExporter, &cfg.Tracing.Exporter, parseString)
	overlay(e, EnvTracingEndpoint, &cfg.Tracing.Endpoint, parseString)
	overlay(e, EnvTracingSamplingRate, &cfg.Tracing.SamplingRate, parseFloat)

	overlay(e, EnvBuildFetchLimit, &cfg.BuildFetchLimit, strconv.Atoi)
}
