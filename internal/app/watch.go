package app

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/modman/internal/adapters/watcher" //nolint:depguard // Debouncer is shared with the adapter
	"go.trai.ch/modman/internal/core/domain"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// OnSync receives the result of every sync run, including the initial one.
	OnSync func(report *domain.ReconcileReport, err error)
	// Window overrides the debounce window.
	Window time.Duration
}

// Watch syncs root once, then again after every settled burst of changes to modman.toml or the
// mods directory. It returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context, root string, opts WatchOptions) error {
	notify := opts.OnSync
	if notify == nil {
		notify = func(*domain.ReconcileReport, error) {}
	}
	window := opts.Window
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}

	report, err := a.Sync(ctx, root)
	notify(report, err)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(root)
	if err != nil {
		return err
	}
	modsDir := domain.ModsPath(root, cfg)
	cfgPath := filepath.Clean(domain.ConfigPath(root))
	seen := fingerprint(cfgPath)

	if err := a.watcher.Start(ctx, root, modsDir); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	batches := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(window, func(paths []string) {
		// A sync re-reads everything, so one queued batch covers any later ones.
		select {
		case batches <- paths:
		default:
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			if relevant(event.Path) {
				debouncer.Add(event.Path)
			}
		}
	}()

	a.logger.Info("watching for changes", "mods_dir", modsDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			paths = slices.DeleteFunc(paths, func(p string) bool {
				return filepath.Clean(p) == cfgPath && fingerprint(cfgPath) == seen
			})
			if len(paths) == 0 {
				continue
			}
			a.logger.Debug("change detected", "paths", strings.Join(paths, ", "))
			report, err := a.Sync(ctx, root)
			if ctx.Err() != nil {
				return nil
			}
			notify(report, err)
			seen = fingerprint(cfgPath)
			if flushErr := a.metrics.Flush(); flushErr != nil {
				a.logger.Warn("failed to write metrics", "error", flushErr.Error())
			}
		}
	}
}

// fingerprint identifies the content of modman.toml, so that the config a sync writes does not
// trigger another sync. Zero means the file could not be read.
func fingerprint(path string) uint64 {
	//nolint:gosec // Path is derived from the project root
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

// relevant filters out the files modman itself writes, except for artifacts and the config.
func relevant(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return name == domain.ConfigFileName || strings.EqualFold(filepath.Ext(name), domain.ArtifactExt)
}
