// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests no route matched. Raw paths are never used
// as label values.
const unmatchedRoute = "unmatched"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnegrid_http_requests_total",
		Help: "HTTP requests served, by status code, method and route pattern.",
	}, []string{"code", "method", "route"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dnegrid_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"code", "method", "route"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dnegrid_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes.",
		Buckets: prometheus.ExponentialBuckets(128, 4, 8),
	}, []string{"code", "method", "route"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnegrid_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
)

// Metrics instruments the handler with promhttp. The route label is read
// after the handler ran, when chi has recorded the matched pattern.
func Metrics() func(http.Handler) http.Handler {
	route := promhttp.WithLabelFromCtx("route", routeFromContext)
	return func(next http.Handler) http.Handler {
		h := promhttp.InstrumentHandlerResponseSize(httpResponseSize, next, route)
		h = promhttp.InstrumentHandlerCounter(httpRequestsTotal, h, route)
		h = promhttp.InstrumentHandlerDuration(httpRequestDuration, h, route)
		return promhttp.InstrumentHandlerInFlight(httpRequestsInFlight, h)
	}
}

func routeFromContext(ctx context.Context) string {
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
