// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Middleware logs one request.handled event per request with its status,
// size and latency. Traced requests also carry trace_id.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger := WithComponentFromContext(r.Context(), "http")
			ev := logger.Info()
			if rec.status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev = ev.Str(FieldEvent, "request.handled").
				Str(FieldMethod, r.Method).
				Str(FieldPath, r.URL.Path).
				Int(FieldStatus, rec.status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start))
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				ev = ev.Str(FieldTraceID, sc.TraceID().String())
			}
			ev.Msg("request handled")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
