// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/dnegrid/internal/api/middleware"
	"github.com/ManuGH/dnegrid/internal/api/problem"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes(tracingService string) http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:     true,
		AllowedOrigins: s.cfg.AllowedOrigins,
		EnableCSRF:     true,

		EnableSecurityHeaders: true,
		CSP:                   middleware.DefaultCSP,

		EnableMetrics:  true,
		TracingService: tracingService,
		EnableLogging:  true,

		RateLimit: middleware.RateLimitLayer{
			Enabled: s.cfg.RateLimit.Enabled,
			RPS:     s.cfg.RateLimit.RPS,
			Burst:   s.cfg.RateLimit.Burst,
			Exempt:  s.cfg.RateLimit.Exempt,
		},
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethod, "Method Not Allowed",
			problem.CodeMethod, r.Method+" is not supported on "+r.URL.Path, nil)
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	// The web client loads its plugin configuration from here.
	r.Get("/config.json", s.handleFrontendConfig)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/plugins", func(r chi.Router) {
			r.Get("/", s.handleListPlugins)
			r.Get("/{name}", s.handleGetPlugin)
		})

		r.Route("/dne", func(r chi.Router) {
			r.Use(schemaVersionHeader)
			r.Get("/config", s.handleGetConfig)
			r.With(middleware.ReloadRateLimit()).Post("/config/reload", s.handleReload)
			r.Get("/config/revisions", s.handleListRevisions)
			r.Get("/config/revisions/{id}", s.handleGetRevision)
			r.Get("/selection", s.handleSelection)
			r.Get("/schedulers", s.handleSchedulers)
		})

		r.Route("/schema", func(r chi.Router) {
			r.Use(schemaVersionHeader)
			r.Get("/openapi.json", s.handleOpenAPIJSON)
			r.Get("/openapi.yaml", s.handleOpenAPIYAML)
			r.Get("/types.ts", s.handleTypeScript)
		})
	})

	return r
}
