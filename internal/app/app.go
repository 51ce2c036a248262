// Package app implements the application layer for modman.
package app

import (
	"errors"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/modman/internal/engine/reconciler"
	"go.trai.ch/modman/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	store      ports.StateStore
	locker     ports.DirLocker
	reconciler *reconciler.Reconciler
	resolver   *resolver.Resolver
	downloader ports.Downloader
	watcher    ports.Watcher
	metrics    ports.Metrics
	progress   ports.Progress
	logger     ports.Logger
}

// New creates a new App instance.
func New(
	store ports.StateStore,
	locker ports.DirLocker,
	rec *reconciler.Reconciler,
	res *resolver.Resolver,
	downloader ports.Downloader,
	watcher ports.Watcher,
	metrics ports.Metrics,
	progress ports.Progress,
	log ports.Logger,
) *App {
	return &App{
		store:      store,
		locker:     locker,
		reconciler: rec,
		resolver:   res,
		downloader: downloader,
		watcher:    watcher,
		metrics:    metrics,
		progress:   progress,
		logger:     log,
	}
}

// GlobalOptions holds the settings every command shares.
type GlobalOptions struct {
	Verbose     bool
	LogFormat   string
	MetricsFile string
}

type modalLogger interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

type metricsSink interface {
	SetOutputPath(path string)
}

// Configure applies command line settings to components that were built before flags were parsed.
func (a *App) Configure(opts GlobalOptions) {
	if l, ok := a.logger.(modalLogger); ok {
		switch {
		case opts.LogFormat == "json":
			l.SetJSON(true)
		case opts.Verbose:
			l.SetVerbose(true)
		}
	}
	if m, ok := a.metrics.(metricsSink); ok && opts.MetricsFile != "" {
		m.SetOutputPath(opts.MetricsFile)
	}
}

// Close flushes progress and metrics.
func (a *App) Close() error {
	return errors.Join(a.progress.Close(), a.metrics.Flush())
}

// lock takes the project lock for root. The returned function releases it.
func (a *App) lock(root string) (func(), error) {
	release, err := a.locker.Lock(root)
	if err != nil {
		return nil, err
	}
	return release, nil
}

func (a *App) loadConfig(root string) (*domain.Config, error) {
	cfg, err := a.store.LoadConfig(root)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, domain.ErrStateAbsent), errors.Is(err, domain.ErrStateEmpty):
		return nil, domain.Mark(domain.ErrConfigNotFound, "path", domain.ConfigPath(root))
	default:
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
}
