// Package reconciler brings the mods directory, the lockfile and the declared config back in line.
package reconciler

import (
	"context"
	"errors"
	"runtime"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options tunes a single reconcile run.
type Options struct {
	// DryRun computes the report on in-memory copies. Nothing is renamed, deleted or saved.
	DryRun bool
}

// Result is the outcome of a reconcile run.
type Result struct {
	Report   *domain.ReconcileReport
	Config   *domain.Config
	Lockfile *domain.Lockfile
	// ModsDir is the absolute or root-relative mods directory the run scanned.
	ModsDir string
}

// Reconciler runs the three-way diff between disk, lockfile and config.
type Reconciler struct {
	store       ports.StateStore
	artifacts   ports.ArtifactStore
	registry    ports.Registry
	tracer      ports.Tracer
	logger      ports.Logger
	metrics     ports.Metrics
	concurrency int
}

// New creates a new Reconciler. concurrency below 1 selects GOMAXPROCS.
func New(
	store ports.StateStore,
	artifacts ports.ArtifactStore,
	registry ports.Registry,
	tracer ports.Tracer,
	log ports.Logger,
	metrics ports.Metrics,
	concurrency int,
) *Reconciler {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Reconciler{
		store:       store,
		artifacts:   artifacts,
		registry:    registry,
		tracer:      tracer,
		logger:      log,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Reconcile scans the mods directory of root, repairs the lockfile and config where it can and
// reports the work left for the resolver and the downloader.
func (r *Reconciler) Reconcile(ctx context.Context, root string, opts Options) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile", ports.WithAttribute("dry_run", opts.DryRun))
	defer span.End()

	res, err := r.reconcile(ctx, root, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("new_mods", len(res.Report.NewMods))
	span.SetAttribute("missing_dependencies", len(res.Report.MissingDependencies))
	span.SetAttribute("pruned", len(res.Report.Pruned))
	r.metrics.ObserveReconcile(res.Report)
	return res, nil
}

func (r *Reconciler) reconcile(ctx context.Context, root string, opts Options) (*Result, error) {
	cfg, err := r.loadConfig(root)
	if err != nil {
		return nil, err
	}
	lock, err := r.loadLockfile(root)
	if err != nil {
		return nil, err
	}

	p := &pass{
		r:       r,
		cfg:     cfg,
		lock:    lock,
		modsDir: domain.ModsPath(root, cfg),
		dryRun:  opts.DryRun,
		report:  &domain.ReconcileReport{},
		present: make(map[string]struct{}),
		pending: make(map[string]domain.ResolvedMod),
	}

	// Step 1.
	files, err := r.artifacts.Scan(ctx, p.modsDir)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrScanFailed.Error())
	}

	// Steps 2 to 4.
	if err := p.match(ctx, files); err != nil {
		return nil, err
	}
	if err := p.settleMissing(); err != nil {
		return nil, err
	}
	if err := p.prune(); err != nil {
		return nil, err
	}
	p.finish()

	// Step 5.
	if !opts.DryRun {
		if err := r.store.SaveConfig(root, cfg); err != nil {
			return nil, err
		}
		if err := r.store.SaveLockfile(root, lock); err != nil {
			return nil, err
		}
	}

	return &Result{
		Report:   p.report,
		Config:   cfg,
		Lockfile: lock,
		ModsDir:  p.modsDir,
	}, nil
}

func (r *Reconciler) loadConfig(root string) (*domain.Config, error) {
	cfg, err := r.store.LoadConfig(root)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, domain.ErrStateAbsent), errors.Is(err, domain.ErrStateEmpty):
		return nil, domain.Mark(domain.ErrConfigNotFound, "path", domain.ConfigPath(root))
	default:
		return nil, err
	}
}

func (r *Reconciler) loadLockfile(root string) (*domain.Lockfile, error) {
	lock, err := r.store.LoadLockfile(root)
	switch {
	case err == nil:
		return lock, nil
	case errors.Is(err, domain.ErrStateAbsent), errors.Is(err, domain.ErrStateEmpty):
		r.logger.Debug("starting from an empty lockfile", "path", domain.LockfilePath(root))
		return domain.NewLockfile(), nil
	default:
		return nil, err
	}
}
