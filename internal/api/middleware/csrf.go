// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"

	"github.com/ManuGH/dnegrid/internal/api/problem"
	"github.com/ManuGH/dnegrid/internal/log"
)

// CSRFProtection rejects cross-site state-changing requests. A request with
// no Origin or Referer passes only if it also lacks browser fetch metadata,
// which is what CLI and service clients look like.
func CSRFProtection(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reason := csrfViolation(policy, r); reason != "" {
				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Warn().
					Str(log.FieldEvent, "csrf.rejected").
					Str(log.FieldMethod, r.Method).
					Str(log.FieldPath, r.URL.Path).
					Str("origin", requestOrigin(r)).
					Msg(reason)
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", problem.CodeForbidden, reason, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// csrfViolation returns why r must be rejected, or "" when it may proceed.
func csrfViolation(policy originPolicy, r *http.Request) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return ""
	}

	origin := requestOrigin(r)
	if origin == "" {
		switch r.Header.Get("Sec-Fetch-Site") {
		case "", "same-origin", "none":
			return ""
		}
		return "missing origin information"
	}
	if policy.allows(origin) || origin == selfOrigin(r) {
		return ""
	}
	return "cross-origin request not allowed"
}
