// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/dnegrid/internal/api/problem"
	"github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/schema/contract"
)

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, "application/json", contract.OpenAPIJSON)
}

func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, "application/yaml", contract.OpenAPIYAML)
}

func (s *Server) handleTypeScript(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, "application/typescript; charset=utf-8", func() ([]byte, error) {
		ts, err := contract.TypeScript()
		return []byte(ts), err
	})
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, contentType string, render func() ([]byte, error)) {
	body, err := render()
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldPath, r.URL.Path).
			Msg("failed to render schema artifact")
		problem.Internal(w, r)
		return
	}
	writeRaw(w, contentType, body)
}
