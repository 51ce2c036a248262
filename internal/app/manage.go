package app

import (
	"context"
	"errors"
	"os"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/engine/reconciler"
	"go.trai.ch/zerr"
)

// InitOptions configures Init.
type InitOptions struct {
	GameVersion string
	Loader      domain.Loader
	Channels    []domain.ReleaseChannel
	ModsDir     string
	// Force replaces an existing modman.toml.
	Force bool
}

// Init creates modman.toml, an empty lockfile and the mods directory under root.
func (a *App) Init(_ context.Context, root string, opts InitOptions) (*domain.Config, error) {
	release, err := a.lock(root)
	if err != nil {
		return nil, err
	}
	defer release()

	_, err = a.store.LoadConfig(root)
	exists := !errors.Is(err, domain.ErrStateAbsent) && !errors.Is(err, domain.ErrStateEmpty)
	if exists && !opts.Force {
		return nil, domain.Mark(domain.ErrConfigExists, "path", domain.ConfigPath(root))
	}

	cfg := domain.NewConfig(opts.GameVersion, opts.Loader, opts.Channels)
	if opts.ModsDir != "" {
		cfg.ModsDirectory = opts.ModsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	//nolint:gosec // The mods directory is chosen by the user.
	if err := os.MkdirAll(domain.ModsPath(root, cfg), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create mods directory"), "path", domain.ModsPath(root, cfg))
	}
	if err := a.store.SaveConfig(root, cfg); err != nil {
		return nil, err
	}

	if _, err := a.store.LoadLockfile(root); err != nil {
		if !errors.Is(err, domain.ErrStateAbsent) && !errors.Is(err, domain.ErrStateEmpty) {
			return nil, err
		}
		if err := a.store.SaveLockfile(root, domain.NewLockfile()); err != nil {
			return nil, err
		}
	}

	a.logger.Info("initialized project", "game_version", cfg.GameVersion, "loader", cfg.Loader.String())
	return cfg, nil
}

// Sync reconciles root and persists the repaired state.
func (a *App) Sync(ctx context.Context, root string) (*domain.ReconcileReport, error) {
	release, err := a.lock(root)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := a.reconciler.Reconcile(ctx, root, reconciler.Options{})
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// Status reports what Sync would do without touching anything.
func (a *App) Status(ctx context.Context, root string) (*domain.ReconcileReport, error) {
	res, err := a.reconciler.Reconcile(ctx, root, reconciler.Options{DryRun: true})
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// Remove undeclares ids, then reconciles so that everything no longer needed is pruned.
func (a *App) Remove(ctx context.Context, root string, ids []string) (*domain.ReconcileReport, error) {
	if len(ids) == 0 {
		return nil, domain.ErrNoModsSpecified
	}

	release, err := a.lock(root)
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := a.loadConfig(root)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !cfg.Undeclare(id) {
			return nil, domain.Mark(domain.ErrModNotDeclared, "mod_id", id)
		}
	}
	if err := a.store.SaveConfig(root, cfg); err != nil {
		return nil, err
	}

	res, err := a.reconciler.Reconcile(ctx, root, reconciler.Options{})
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// List returns the lockfile entries of root, sorted by id.
func (a *App) List(_ context.Context, root string) ([]domain.ResolvedMod, error) {
	lock, err := a.store.LoadLockfile(root)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStateAbsent), errors.Is(err, domain.ErrStateEmpty):
		return []domain.ResolvedMod{}, nil
	default:
		return nil, err
	}
	lock.Sort()
	return lock.Mods, nil
}
