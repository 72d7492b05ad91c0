// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	dlog "github.com/ManuGH/dnegrid/internal/log"
	"github.com/go-chi/chi/v5"
)

// StackConfig selects the layers of the ingress stack. The zero value keeps
// only panic recovery and request IDs.
type StackConfig struct {
	EnableCORS     bool
	EnableCSRF     bool
	AllowedOrigins []string

	EnableSecurityHeaders bool
	CSP                   string

	EnableMetrics bool
	EnableLogging bool
	// TracingService names the otelhttp server spans; empty disables tracing.
	TracingService string

	RateLimit RateLimitLayer
}

// RateLimitLayer configures the global API limiter.
type RateLimitLayer struct {
	Enabled bool
	RPS     int
	Burst   int
	Exempt  []string
}

// NewRouter returns a chi router with the ingress stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack installs the enabled layers on r, outermost first. Recovery
// wraps everything and request IDs precede anything that logs. Security
// headers run before CORS so preflight responses carry them too. The limiter
// sits innermost so rejected requests are still logged and counted.
func ApplyStack(r chi.Router, cfg StackConfig) {
	stack := []func(http.Handler) http.Handler{Recoverer, RequestID}
	if cfg.EnableSecurityHeaders {
		stack = append(stack, SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableCORS {
		stack = append(stack, CORS(cfg.AllowedOrigins))
	}
	if cfg.EnableCSRF {
		stack = append(stack, CSRFProtection(cfg.AllowedOrigins))
	}
	if cfg.EnableMetrics {
		stack = append(stack, Metrics())
	}
	if cfg.TracingService != "" {
		stack = append(stack, OTelHTTP(cfg.TracingService), RenameSpanToRoute)
	}
	if cfg.EnableLogging {
		stack = append(stack, dlog.Middleware())
	}
	if rl := cfg.RateLimit; rl.Enabled && rl.RPS > 0 {
		stack = append(stack, APIRateLimit(rl.RPS, rl.Burst, rl.Exempt))
	}
	r.Use(stack...)
}
