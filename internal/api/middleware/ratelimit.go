// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/dnegrid/internal/api/problem"
	"github.com/ManuGH/dnegrid/internal/log"
	"github.com/go-chi/httprate"
)

// reloadsPerMinute caps POST /config/reload per client.
const reloadsPerMinute = 10

// Limit describes a sliding-window limiter keyed by client IP.
type Limit struct {
	Requests int
	Window   time.Duration
	// Exempt holds client IPs or CIDR prefixes that are never limited.
	// Unparsable entries are ignored; config validation reports them.
	Exempt []string
}

// RateLimit enforces l with httprate. Rejections are 429 problems carrying
// Retry-After.
func RateLimit(l Limit) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(max(int(l.Window/time.Second), 1))
	limiter := httprate.Limit(l.Requests, l.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger := log.WithComponentFromContext(r.Context(), "ratelimit")
			logger.Warn().
				Str(log.FieldEvent, "ratelimit.exceeded").
				Str(log.FieldMethod, r.Method).
				Str(log.FieldPath, r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("request rate limited")
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too Many Requests",
				problem.CodeRateLimited, "rate limit of "+strconv.Itoa(l.Requests)+" requests per "+l.Window.String()+" exceeded", nil)
		}),
	)

	exempt := parsePrefixes(l.Exempt)
	if len(exempt) == 0 {
		return limiter
	}
	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if addr, ok := remoteAddr(r); ok && containsAddr(exempt, addr) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// ReloadRateLimit guards the reload endpoint.
func ReloadRateLimit() func(http.Handler) http.Handler {
	return RateLimit(Limit{Requests: reloadsPerMinute, Window: time.Minute})
}

// APIRateLimit converts the configured rps and burst into a per-minute
// window: rps*60 sustained plus burst of headroom.
func APIRateLimit(rps, burst int, exempt []string) func(http.Handler) http.Handler {
	return RateLimit(Limit{
		Requests: rps*60 + max(burst, 0),
		Window:   time.Minute,
		Exempt:   exempt,
	})
}

func parsePrefixes(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

func remoteAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

func containsAddr(prefixes []netip.Prefix, a netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
