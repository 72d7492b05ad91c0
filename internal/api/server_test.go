// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/health"
	"github.com/ManuGH/dnegrid/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	cfg := config.Defaults()

	_, err := New(cfg, Deps{Plugins: plugin.NewRegistry()})
	assert.Error(t, err)

	_, err = New(cfg, Deps{Config: config.NewHolder(cfg, nil)})
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	cfg := config.Defaults()
	holder := config.NewHolder(cfg, nil)
	mgr := health.NewManager("test")
	mgr.RegisterChecker(health.NewSnapshotChecker(func() (uint64, time.Time, error) {
		snap := holder.Current()
		return snap.Epoch, snap.LoadedAt, holder.LastReloadError()
	}))

	srv, err := New(cfg, Deps{Config: holder, Plugins: plugin.NewRegistry(), Health: mgr})
	require.NoError(t, err)
	env := &testEnv{srv: srv, holder: holder}

	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ready := decode[health.ReadinessResponse](t, w)
	assert.True(t, ready.Ready)
	assert.Equal(t, health.StatusHealthy, ready.Checks["config"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	_ = env.do(t, http.MethodGet, "/api/v1/dne/config", nil)
	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dnegrid_http_requests_total{code="200",method="get",route="/api/v1/dne/config"} `)
}

func TestServeAndShutdown(t *testing.T) {
	env := newTestEnv(t, nil)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- env.srv.Serve(ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/v1/dne/config")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"identifier":"P1"`)

	assert.Error(t, env.srv.Serve(ln), "a second Serve must fail")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	cfg := config.Defaults()
	cfg.ListenAddr = "256.0.0.1:bad"
	srv, err := New(cfg, Deps{Config: config.NewHolder(cfg, nil), Plugins: plugin.NewRegistry()})
	require.NoError(t, err)

	err = srv.ListenAndServe()
	require.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}
