package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/modman/internal/adapters/watcher"
	"go.trai.ch/modman/internal/core/ports"
)

func TestWatcher_ReportsArtifactChanges(t *testing.T) {
	root := t.TempDir()
	mods := filepath.Join(root, "mods")

	w, err := watcher.NewWatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, root, mods))
	defer func() { _ = w.Stop() }()

	target := filepath.Join(mods, "sodium.jar")
	require.NoError(t, os.WriteFile(target, []byte("jar"), 0o600))

	found := make(chan ports.WatchEvent, 1)
	go func() {
		for ev := range w.Events() {
			if ev.Path == target {
				found <- ev
				return
			}
		}
	}()

	select {
	case ev := <-found:
		assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, ev.Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for created artifact")
	}
}

func TestWatcher_EventsEndOnCancel(t *testing.T) {
	w, err := watcher.NewWatcher(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, t.TempDir()))
	defer func() { _ = w.Stop() }()

	done := make(chan struct{})
	go func() {
		for range w.Events() { //nolint:revive // draining
		}
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event iterator did not end after cancel")
	}
}
