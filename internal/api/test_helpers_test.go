// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/history"
	"github.com/ManuGH/dnegrid/internal/plugin"
	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/stretchr/testify/require"
)

const treeYAML = `dne:
  projects:
    - identifier: P1
      display_name: Proj 1
      branches:
        - identifier: Main
          display_name: Main
          views:
            - identifier: v1
              display_group: g1
              display_name: View 1
        - identifier: release
          display_name: Release
    - identifier: p2
      display_name: Proj 2
  schedulers:
    - name: p1-main-nightly
      builder_names: [linux]
      cron: "0 2 * * *"
    - name: p1-main-full
      force_cron: "@daily"
    - name: p1-release-nightly
      cron: "0 4 * * *"
`

type testEnv struct {
	srv    *Server
	holder *config.Holder
	path   string
}

// newTestEnv builds a server over a file-backed holder. store may be nil.
func newTestEnv(t *testing.T, store RevisionStore) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(treeYAML), 0600))

	loader := config.NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	cfg.RateLimit.Enabled = false

	holder := config.NewHolder(cfg, loader)
	registry := plugin.NewRegistry()
	require.NoError(t, registry.Register(plugin.DNE(
		func() schema.Config { return holder.Current().App.DNE },
		func() int { return holder.Current().App.BuildFetchLimit },
	)))

	deps := Deps{Config: holder, Plugins: registry}
	if store != nil {
		deps.History = store
	}
	srv, err := New(cfg, deps)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	return &testEnv{srv: srv, holder: holder, path: path}
}

func (e *testEnv) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
