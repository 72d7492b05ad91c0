// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/dnegrid/internal/api/middleware"
	"github.com/ManuGH/dnegrid/internal/api/problem"
	"github.com/ManuGH/dnegrid/internal/metrics"
	"github.com/ManuGH/dnegrid/internal/plugin"
	"github.com/ManuGH/dnegrid/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

type pluginResponse struct {
	plugin.Descriptor
	Config any `json:"config"`
}

// handleFrontendConfig serves {"plugins": {name: config}}, the document the
// web client reads its plugin configuration from.
func (s *Server) handleFrontendConfig(w http.ResponseWriter, r *http.Request) {
	fc := s.plugins.FrontendConfig()
	for name := range fc.Plugins {
		metrics.RecordPluginServed(name)
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, r, http.StatusOK, fc)
}

func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	apps := s.plugins.Applications()
	out := make([]plugin.Descriptor, 0, len(apps))
	for _, app := range apps {
		out = append(out, app.Descriptor())
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetPlugin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	middleware.AddSpanAttributes(r, attribute.String(telemetry.PluginNameKey, name))

	app, err := s.plugins.Lookup(name)
	if errors.Is(err, plugin.ErrNotFound) {
		problem.NotFound(w, r, "plugin "+name+" is not registered")
		return
	}
	if err != nil {
		problem.Internal(w, r)
		return
	}

	resp := pluginResponse{Descriptor: app.Descriptor()}
	if app.Config != nil {
		resp.Config = app.Config()
		metrics.RecordPluginServed(app.Name)
	}
	writeJSON(w, r, http.StatusOK, resp)
}
