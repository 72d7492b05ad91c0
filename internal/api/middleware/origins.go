// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// devOrigins are trusted for CORS when no origins are configured.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8010",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8010",
}

// originPolicy is the allow list shared by the CORS and CSRF middleware.
// Entries are normalised without a trailing slash; "*" matches everything.
type originPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "*" {
			p.any = true
			continue
		}
		if o != "" {
			p.origins[o] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// requestOrigin is the Origin header, or the scheme and host of the Referer
// when Origin is absent or opaque.
func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" && o != "null" {
		return strings.TrimSuffix(o, "/")
	}
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Scheme == "" || ref.Host == "" {
		return ""
	}
	return ref.Scheme + "://" + ref.Host
}

// selfOrigin is the origin the request was addressed to, honouring a TLS
// terminating proxy.
func selfOrigin(r *http.Request) string {
	if r.Host == "" {
		return ""
	}
	return requestScheme(r) + "://" + r.Host
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
