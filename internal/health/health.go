// SPDX-License-Identifier: MIT

// Package health provides the liveness and readiness endpoints of the service.
// Readiness requires a published configuration snapshot.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/dnegrid/internal/log"
)

// Status is the state of one check or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the liveness document. Checks are only run and listed
// when the caller asks for a verbose report.
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    int64                  `json:"uptime_seconds"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse is the readiness document. Degraded checks keep the
// service ready; a single unhealthy one does not.
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is one named check.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs the registered checkers for both endpoints.
type Manager struct {
	version string
	started time.Time
	now     func() time.Time

	mu       sync.RWMutex
	checkers []Checker
}

// NewManager creates a manager reporting version.
func NewManager(version string) *Manager {
	return &Manager{version: version, started: time.Now(), now: time.Now}
}

// RegisterChecker adds c. Checkers run in registration order.
func (m *Manager) RegisterChecker(c Checker) {
	m.mu.Lock()
	m.checkers = append(m.checkers, c)
	m.mu.Unlock()
}

// evaluate runs every checker and returns the worst status seen. With no
// checkers the service is healthy.
func (m *Manager) evaluate(ctx context.Context) (Status, map[string]CheckResult) {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	overall := StatusHealthy
	if len(checkers) == 0 {
		return overall, nil
	}
	results := make(map[string]CheckResult, len(checkers))
	for _, c := range checkers {
		res := c.Check(ctx)
		results[c.Name()] = res
		if res.Status.severity() > overall.severity() {
			overall = res.Status
		}
	}
	return overall, results
}

// Health answers the liveness check. The process is alive whenever it can
// answer, so only a verbose report reflects component state.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	now := m.now()
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Uptime:    int64(now.Sub(m.started).Seconds()),
		Timestamp: now,
	}
	if verbose {
		resp.Status, resp.Checks = m.evaluate(ctx)
	}
	return resp
}

// Ready answers the readiness check.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	status, checks := m.evaluate(ctx)
	return ReadinessResponse{
		Ready:     status != StatusUnhealthy,
		Status:    status,
		Timestamp: m.now(),
		Checks:    checks,
	}
}

// ServeHealth always answers 200; add ?verbose=true for component checks.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := m.Health(r.Context(), r.URL.Query().Get("verbose") == "true")
	writeCheckResponse(w, r, "health", http.StatusOK, resp, resp.Status)
}

// ServeReady answers 503 while any check is unhealthy.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeCheckResponse(w, r, "readiness", code, resp, resp.Status)
}

func writeCheckResponse(w http.ResponseWriter, r *http.Request, kind string, code int, body any, status Status) {
	logger := log.WithComponentFromContext(r.Context(), kind)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, kind+".encode_error").Msg("failed to encode check response")
		return
	}
	logger.Debug().
		Str(log.FieldEvent, kind+".checked").
		Str("status", string(status)).
		Int(log.FieldStatus, code).
		Msg("check answered")
}
