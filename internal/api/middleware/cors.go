// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strings"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Methods":  "GET, POST, OPTIONS",
	"Access-Control-Allow-Headers":  "Content-Type, X-Request-ID, Authorization",
	"Access-Control-Expose-Headers": strings.Join([]string{"X-Request-ID", "X-DNE-Schema-Version", "X-DNE-Config-Epoch", "ETag"}, ", "),
	"Access-Control-Max-Age":        "600",
	"Vary":                          "Origin, Access-Control-Request-Method, Access-Control-Request-Headers",
}

// CORS echoes allowed browser origins and answers preflights with 204.
// An empty list trusts the web client's local dev servers. Requests without
// an Origin are not cross-origin and get a wildcard.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = devOrigins
	}
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			switch origin := r.Header.Get("Origin"); {
			case origin == "":
				h.Set("Access-Control-Allow-Origin", "*")
			case policy.allows(strings.TrimSuffix(origin, "/")):
				h.Set("Access-Control-Allow-Origin", origin)
			}
			for k, v := range corsHeaders {
				h.Set(k, v)
			}

			if r.Method == http.MethodOptions {
				h.Set("Allow", corsHeaders["Access-Control-Allow-Methods"])
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
