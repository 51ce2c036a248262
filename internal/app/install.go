package app

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/engine/reconciler"
	"go.trai.ch/modman/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// InstallOptions configures Add and Install.
type InstallOptions struct {
	// IgnoreDependencies resolves the requested roots without their dependencies.
	IgnoreDependencies bool

	// Confirm is asked before anything is downloaded. A nil Confirm accepts every plan.
	Confirm func(plan *domain.Resolution) (bool, error)

	// Spinner wraps the resolution phase, for example to animate a terminal spinner.
	Spinner func(title string, fn func() error) error
}

// InstallReport is the outcome of Add and Install.
type InstallReport struct {
	Reconcile  *domain.ReconcileReport  `json:"reconcile" yaml:"reconcile"`
	Resolution *domain.Resolution       `json:"resolution" yaml:"resolution"`
	Downloads  []domain.DownloadOutcome `json:"downloads" yaml:"downloads"`
	Installed  []domain.ResolvedMod     `json:"installed" yaml:"installed"`
}

// Failed returns the outcomes that were not committed.
func (r *InstallReport) Failed() []domain.DownloadOutcome {
	var failed []domain.DownloadOutcome
	for _, o := range r.Downloads {
		if !o.Verified() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Add reconciles root, then resolves, downloads and declares the requested mods along with the
// repairs the reconcile run asked for.
func (a *App) Add(ctx context.Context, root string, specs []string, opts InstallOptions) (*InstallReport, error) {
	if len(specs) == 0 {
		return nil, domain.ErrNoModsSpecified
	}
	requested := make([]domain.DeclaredMod, 0, len(specs))
	for _, spec := range specs {
		m, err := domain.ParseModSpec(spec)
		if err != nil {
			return nil, err
		}
		requested = append(requested, m)
	}
	return a.install(ctx, root, requested, opts)
}

// Install repairs the drift found by reconciling root.
func (a *App) Install(ctx context.Context, root string, opts InstallOptions) (*InstallReport, error) {
	return a.install(ctx, root, nil, opts)
}

func (a *App) install(
	ctx context.Context,
	root string,
	requested []domain.DeclaredMod,
	opts InstallOptions,
) (*InstallReport, error) {
	release, err := a.lock(root)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := a.reconciler.Reconcile(ctx, root, reconciler.Options{})
	if err != nil {
		return nil, err
	}
	report := &InstallReport{
		Reconcile:  state.Report,
		Resolution: &domain.Resolution{Mods: []domain.ResolvedMod{}},
	}

	roots := mergeRoots(state.Report.Roots(), requested)
	if len(roots) == 0 {
		return report, nil
	}

	resolve := func() error {
		resolution, err := a.resolver.Resolve(
			ctx,
			state.Lockfile.IDs(),
			roots,
			state.Config.Constraint(),
			resolver.Options{IgnoreDependencies: opts.IgnoreDependencies},
		)
		if err != nil {
			return err
		}
		report.Resolution = resolution
		return nil
	}
	if opts.Spinner != nil {
		err = opts.Spinner("Resolving mods", resolve)
	} else {
		err = resolve()
	}
	if err != nil {
		return nil, err
	}

	if len(report.Resolution.Mods) > 0 && opts.Confirm != nil {
		ok, err := opts.Confirm(report.Resolution)
		if err != nil {
			return report, err
		}
		if !ok {
			return report, domain.ErrAborted
		}
	}

	report.Downloads = a.download(ctx, state, report.Resolution.Mods)
	report.Installed, err = a.commit(root, state, report.Resolution, requested, report.Downloads)
	if err != nil {
		return report, err
	}

	if failed := len(report.Failed()); failed > 0 {
		return report, domain.Mark(domain.ErrSomeDownloadsFailed, "failed", failed)
	}
	if failures := len(report.Resolution.Failures); failures > 0 {
		return report, domain.Mark(domain.ErrResolutionFailed, "failed", failures)
	}
	return report, nil
}

// mergeRoots appends the explicitly requested mods to the repair roots, keeping the first
// occurrence of every id.
func mergeRoots(repairs, requested []domain.DeclaredMod) []domain.DeclaredMod {
	seen := make(map[string]struct{}, len(repairs)+len(requested))
	roots := make([]domain.DeclaredMod, 0, len(repairs)+len(requested))
	for _, list := range [][]domain.DeclaredMod{repairs, requested} {
		for _, m := range list {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			roots = append(roots, m)
		}
	}
	return roots
}

// download materializes the plan. Mods whose file name cannot be placed safely are failed
// without being fetched.
func (a *App) download(ctx context.Context, state *reconciler.Result, mods []domain.ResolvedMod) []domain.DownloadOutcome {
	outcomes := make([]domain.DownloadOutcome, len(mods))
	var (
		items   []domain.DownloadItem
		indexes []int
	)
	planned := make(map[string]string, len(mods))
	for i, m := range mods {
		item := domain.DownloadItem{
			ModID:        m.ID,
			Source:       m.Source,
			DisplayName:  m.Name,
			URL:          m.DownloadURL,
			Destination:  filepath.Join(state.ModsDir, m.FileName),
			ExpectedHash: m.ContentHash,
			Size:         m.Size,
		}
		if err := placeable(state, planned, m); err != nil {
			outcomes[i] = domain.DownloadOutcome{
				Item:   item,
				Status: domain.DownloadTransportFailure,
				Err:    zerr.With(zerr.With(err, "mod_id", m.ID), "source", m.Source.String()),
			}
			continue
		}
		planned[m.FileName] = m.ID
		items = append(items, item)
		indexes = append(indexes, i)
	}

	if len(items) == 0 {
		return outcomes
	}
	for j, o := range a.downloader.Download(ctx, items) {
		outcomes[indexes[j]] = o
	}
	return outcomes
}

// placeable rejects file names that could land outside the mods directory or on top of another
// mod's artifact, installed or planned earlier in the same run.
func placeable(state *reconciler.Result, planned map[string]string, m domain.ResolvedMod) error {
	name := m.FileName
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		!strings.EqualFold(filepath.Ext(name), domain.ArtifactExt) {
		return domain.Mark(domain.ErrInvalidArtifactName, "file_name", name)
	}
	for _, existing := range state.Lockfile.Mods {
		if existing.FileName == name && existing.ID != m.ID {
			return zerr.With(domain.Mark(domain.ErrDuplicateFileName, "file_name", name), "taken_by", existing.ID)
		}
	}
	if other, ok := planned[name]; ok && other != m.ID {
		return zerr.With(domain.Mark(domain.ErrDuplicateFileName, "file_name", name), "taken_by", other)
	}
	return nil
}

// commit records the Verified downloads and declares the requested roots. Nothing that failed is
// ever written to the lockfile.
func (a *App) commit(
	root string,
	state *reconciler.Result,
	resolution *domain.Resolution,
	requested []domain.DeclaredMod,
	outcomes []domain.DownloadOutcome,
) ([]domain.ResolvedMod, error) {
	byID := make(map[string]domain.ResolvedMod, len(resolution.Mods))
	for _, m := range resolution.Mods {
		byID[m.ID] = m
	}

	installed := make([]domain.ResolvedMod, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Verified() {
			a.logger.Warn("not installing mod", "mod_id", o.Item.ModID, "status", o.Status.String())
			continue
		}
		m := byID[o.Item.ModID]
		state.Lockfile.Put(m)
		installed = append(installed, m)
	}

	// Declared slugs are replaced by the canonical ids the registry answered with.
	for requestedID, canonical := range resolution.Aliases {
		state.Config.Rekey(requestedID, canonical)
	}
	for _, m := range requested {
		id := resolution.Canonical(m.ID)
		entry, ok := state.Lockfile.Get(id)
		if !ok {
			continue
		}
		state.Config.Declare(domain.DeclaredMod{Source: entry.Source, ID: id, Name: entry.Name})
	}

	if err := a.store.SaveConfig(root, state.Config); err != nil {
		return installed, err
	}
	if err := a.store.SaveLockfile(root, state.Lockfile); err != nil {
		return installed, err
	}
	return installed, nil
}
