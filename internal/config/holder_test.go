// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dlog "github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeProjectConfig(t *testing.T, path, project string) {
	t.Helper()
	content := "dne:\n  projects:\n    - identifier: " + project + "\n      display_name: P\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func newFileHolder(t *testing.T, project string) (*Holder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeProjectConfig(t, path, project)

	loader := NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	return NewHolder(cfg, loader), path
}

func TestNewHolder_FirstSnapshot(t *testing.T) {
	h := NewHolder(Defaults(), nil)
	snap := h.Current()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Epoch)
	assert.Equal(t, SourceStartup, snap.Source)
}

func TestHolder_Swap_AssignsMonotonicEpoch(t *testing.T) {
	h := NewHolder(Defaults(), nil)

	cfg := Defaults()
	cfg.BuildFetchLimit = 99
	s2 := h.Swap(context.Background(), cfg, SourceAPI)
	s3 := h.Swap(context.Background(), cfg, SourceAPI)

	assert.Equal(t, uint64(2), s2.Epoch)
	assert.Equal(t, uint64(3), s3.Epoch)
	assert.Same(t, s3, h.Current())
	assert.Equal(t, 99, h.Current().App.BuildFetchLimit)
}

func TestHolder_Swap_IsolatesCallerTree(t *testing.T) {
	h := NewHolder(Defaults(), nil)
	cfg := Defaults()
	cfg.DNE = schema.NewConfig(schema.WithProjects(schema.NewProject("p1", "P1")))

	h.Swap(context.Background(), cfg, SourceAPI)
	cfg.DNE.Projects[0].Identifier = "mutated"

	assert.Equal(t, "p1", h.Current().App.DNE.Projects[0].Identifier)
}

func TestHolder_Reload_AppliesNewFile(t *testing.T) {
	h, path := newFileHolder(t, "p1")
	writeProjectConfig(t, path, "p2")

	snap, err := h.Reload(context.Background(), SourceAPI)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Epoch)
	assert.Equal(t, "p2", h.Current().App.DNE.Projects[0].Identifier)
}

func TestHolder_Reload_KeepsPreviousOnFailure(t *testing.T) {
	h, path := newFileHolder(t, "p1")
	before := h.Current()

	require.NoError(t, os.WriteFile(path, []byte("dne:\n  projectz: []\n"), 0600))
	_, err := h.Reload(context.Background(), SourceAPI)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
	assert.Same(t, before, h.Current())
	assert.ErrorIs(t, h.LastReloadError(), ErrUnknownConfigField)

	writeProjectConfig(t, path, "p3")
	_, err = h.Reload(context.Background(), SourceAPI)
	require.NoError(t, err)
	assert.NoError(t, h.LastReloadError())
}

func TestHolder_HooksRunInOrderWithEpoch(t *testing.T) {
	h := NewHolder(Defaults(), nil)

	var mu sync.Mutex
	var seen []uint64
	h.OnApply(func(ctx context.Context, prev, next *Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		epoch, ok := dlog.EpochFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, next.Epoch, epoch)
		seen = append(seen, prev.Epoch, next.Epoch)
	})
	h.OnApply(func(_ context.Context, _, next *Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, next.Epoch*10)
	})

	h.Swap(context.Background(), Defaults(), SourceAPI)
	h.Swap(context.Background(), Defaults(), SourceAPI)

	mu.Lock()
	assert.Equal(t, []uint64{1, 2, 20, 2, 3, 30}, seen)
	mu.Unlock()
}

func TestHolder_StartWatcher_NoPath(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", "test"))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Stop()
}

func TestHolder_Watcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, path := newFileHolder(t, "p1")
	h.debounce = 20 * time.Millisecond

	updates := make(chan *Snapshot, 4)
	h.OnApply(func(_ context.Context, _, next *Snapshot) {
		select {
		case updates <- next:
		default:
		}
	})

	require.NoError(t, h.StartWatcher(context.Background()))
	defer h.Stop()
	assert.Error(t, h.StartWatcher(context.Background()), "second start must fail")

	writeProjectConfig(t, path, "p2")

	select {
	case snap := <-updates:
		assert.Equal(t, SourceWatcher, snap.Source)
		assert.Equal(t, "p2", snap.App.DNE.Projects[0].Identifier)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload the configuration")
	}

	h.Stop()
}

func TestHolder_Watcher_IgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, path := newFileHolder(t, "p1")
	h.debounce = 20 * time.Millisecond
	require.NoError(t, h.StartWatcher(context.Background()))

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	require.NoError(t, os.WriteFile(sibling, []byte("x: 1\n"), 0600))

	time.Sleep(200 * time.Millisecond)
	h.Stop()
	assert.Equal(t, uint64(1), h.Current().Epoch)
}
