// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	name   string
	result CheckResult
	calls  int
}

func (c *staticChecker) Name() string { return c.name }

func (c *staticChecker) Check(context.Context) CheckResult {
	c.calls++
	return c.result
}

func newTestManager(checkers ...Checker) *Manager {
	m := NewManager("v1.2.3")
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.started = start
	m.now = func() time.Time { return start.Add(90 * time.Second) }
	for _, c := range checkers {
		m.RegisterChecker(c)
	}
	return m
}

func TestHealth_LivenessSkipsChecksUnlessVerbose(t *testing.T) {
	broken := &staticChecker{name: "config", result: CheckResult{Status: StatusUnhealthy}}
	m := newTestManager(broken)

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
	assert.Equal(t, int64(90), resp.Uptime)
	assert.Nil(t, resp.Checks)
	assert.Zero(t, broken.calls)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks, "config")
	assert.Equal(t, 1, broken.calls)
}

func TestReady_WorstStatusWins(t *testing.T) {
	healthy := CheckResult{Status: StatusHealthy}
	degraded := CheckResult{Status: StatusDegraded}
	unhealthy := CheckResult{Status: StatusUnhealthy}

	tests := []struct {
		name      string
		results   []CheckResult
		wantReady bool
		want      Status
	}{
		{name: "no checkers", wantReady: true, want: StatusHealthy},
		{name: "all healthy", results: []CheckResult{healthy, healthy}, wantReady: true, want: StatusHealthy},
		{name: "degraded stays ready", results: []CheckResult{healthy, degraded}, wantReady: true, want: StatusDegraded},
		{name: "unhealthy beats degraded", results: []CheckResult{degraded, unhealthy, healthy}, wantReady: false, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checkers []Checker
			for i, r := range tt.results {
				checkers = append(checkers, &staticChecker{name: string(rune('a' + i)), result: r})
			}
			resp := newTestManager(checkers...).Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.results))
		})
	}
}

func TestServeReady_StatusCodes(t *testing.T) {
	check := &staticChecker{name: "config", result: CheckResult{Status: StatusHealthy}}
	m := newTestManager(check)

	w := httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	check.result = CheckResult{Status: StatusUnhealthy, Message: "no configuration published yet"}
	w = httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "no configuration published yet", resp.Checks["config"].Message)
}

func TestServeHealth_AlwaysOK(t *testing.T) {
	m := newTestManager(&staticChecker{name: "config", result: CheckResult{Status: StatusUnhealthy}})

	for _, target := range []string{"/healthz", "/healthz?verbose=true"} {
		w := httptest.NewRecorder()
		m.ServeHealth(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, w.Code, target)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(90), resp.Uptime)
	}
}
