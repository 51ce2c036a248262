package reconciler

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// pass holds the working state of one Reconcile call. It is owned by a single goroutine.
type pass struct {
	r       *Reconciler
	cfg     *domain.Config
	lock    *domain.Lockfile
	modsDir string
	dryRun  bool
	report  *domain.ReconcileReport

	// present holds the ids whose artifact is on disk with a trusted hash.
	present map[string]struct{}
	// pending holds load-bearing entries that are not installed.
	pending      map[string]domain.ResolvedMod
	pendingOrder []string
}

type lookup struct {
	info *domain.VersionInfo
	err  error
}

// match pairs every scanned file with its lockfile entry by file name.
func (p *pass) match(ctx context.Context, files []ports.ArtifactFile) error {
	slices.SortFunc(files, func(a, b ports.ArtifactFile) int { return cmp.Compare(a.Name, b.Name) })

	byFile := make(map[string]string, len(p.lock.Mods))
	for _, m := range p.lock.Mods {
		byFile[m.FileName] = m.ID
	}
	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[f.Name] = struct{}{}
	}

	var untracked []ports.ArtifactFile
	for _, f := range files {
		id, ok := byFile[f.Name]
		if !ok {
			untracked = append(untracked, f)
			continue
		}
		entry, _ := p.lock.Get(id)

		switch {
		case entry.ContentHash == f.Hash:
			p.present[entry.ID] = struct{}{}
		case entry.Source == domain.SourceLocal:
			p.r.logger.Debug("refreshing local artifact", "file", f.Name)
			entry.ContentHash = f.Hash
			entry.Size = f.Size
			p.lock.Put(entry)
			p.present[entry.ID] = struct{}{}
		default:
			p.r.logger.Warn("artifact content drifted, scheduling reinstall", "mod_id", entry.ID, "file", f.Name)
			p.report.ReinstallBadChecksum = append(p.report.ReinstallBadChecksum, entry)
			p.lock.Remove(entry.ID)
			if err := p.removeFile(f.Name); err != nil {
				return err
			}
			delete(onDisk, f.Name)
		}
	}

	if len(untracked) == 0 {
		return nil
	}

	results := p.r.lookupAll(ctx, untracked)
	if err := ctx.Err(); err != nil {
		return zerr.Wrap(err, "reconcile cancelled")
	}
	for i, f := range untracked {
		if err := p.adopt(f, results[i], onDisk); err != nil {
			return err
		}
	}
	return nil
}

// lookupAll asks the registry about every untracked file concurrently. A failed lookup never
// cancels its siblings.
func (r *Reconciler) lookupAll(ctx context.Context, files []ports.ArtifactFile) []lookup {
	results := make([]lookup, len(files))
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, f := range files {
		g.Go(func() error {
			info, err := r.registry.ResolveByHash(ctx, f.Hash)
			if err == nil && info == nil {
				err = domain.Mark(domain.ErrNotFound, "file", f.Name)
			}
			results[i] = lookup{info: info, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// adopt records an untracked file according to the registry's answer.
func (p *pass) adopt(f ports.ArtifactFile, res lookup, onDisk map[string]struct{}) error {
	switch {
	case res.err == nil:
		mod := res.info.ResolvedMod()
		mod.ContentHash = f.Hash
		mod.Size = f.Size
		if mod.FileName == "" {
			mod.FileName = f.Name
		}

		if reason := p.conflict(mod, f.Name, onDisk); reason != "" {
			p.r.logger.Warn("recording recognized artifact as local", "file", f.Name, "mod_id", mod.ID, "reason", reason)
			p.localize(f)
			return nil
		}
		if err := p.renameFile(f.Name, mod.FileName); err != nil {
			return err
		}
		delete(onDisk, f.Name)
		onDisk[mod.FileName] = struct{}{}

		if stale, ok := p.lock.Get(mod.ID); ok {
			p.r.logger.Debug("artifact was renamed, restoring it", "file", f.Name, "mod_id", mod.ID, "previous", stale.FileName)
		} else {
			p.r.logger.Debug("adopting artifact", "file", f.Name, "mod_id", mod.ID)
		}
		p.lock.Put(mod)
		p.cfg.Declare(mod.Declared())
		p.present[mod.ID] = struct{}{}
		p.report.Adopted = append(p.report.Adopted, mod)
		// A correct copy of a drifted mod turned up, so there is nothing left to reinstall.
		p.report.ReinstallBadChecksum = slices.DeleteFunc(p.report.ReinstallBadChecksum, func(m domain.ResolvedMod) bool {
			return m.ID == mod.ID
		})

	case errors.Is(res.err, domain.ErrNotFound):
		p.localize(f)

	default:
		p.r.logger.Warn("could not identify artifact, skipping it for this run", "file", f.Name, "error", res.err.Error())
		p.report.Unidentified = append(p.report.Unidentified, f.Name)
	}
	return nil
}

// conflict explains why mod cannot be adopted from the file named current. An entry for the same
// id whose artifact is gone does not conflict; the adopted file replaces it.
func (p *pass) conflict(mod domain.ResolvedMod, current string, onDisk map[string]struct{}) string {
	if _, ok := p.present[mod.ID]; ok {
		return "mod is already installed"
	}
	if mod.FileName == current {
		return ""
	}
	for _, m := range p.lock.Mods {
		if m.FileName == mod.FileName && m.ID != mod.ID {
			return "file name is taken by another mod"
		}
	}
	if _, ok := onDisk[mod.FileName]; ok {
		return "file name is taken on disk"
	}
	return ""
}

func (p *pass) localize(f ports.ArtifactFile) {
	mod := domain.NewLocalMod(f.Name, f.Hash, f.Size)
	if p.lock.Has(mod.ID) {
		p.r.logger.Warn("local artifact collides with an installed mod id, skipping it", "file", f.Name)
		p.report.Unidentified = append(p.report.Unidentified, f.Name)
		return
	}
	p.r.logger.Debug("recording local artifact", "file", f.Name)
	p.lock.Put(mod)
	p.cfg.Declare(mod.Declared())
	p.present[mod.ID] = struct{}{}
	p.report.Localized = append(p.report.Localized, mod)
}

// settleMissing handles lockfile entries whose artifact is not on disk.
func (p *pass) settleMissing() error {
	var missing []domain.ResolvedMod
	for _, m := range p.lock.Mods {
		if _, ok := p.present[m.ID]; ok {
			continue
		}
		if m.Source == domain.SourceLocal {
			// Local artifacts cannot be fetched again.
			p.r.logger.Debug("forgetting vanished local artifact", "file", m.FileName)
			p.cfg.Undeclare(m.ID)
			p.report.Pruned = append(p.report.Pruned, m)
			continue
		}
		missing = append(missing, m)
	}
	for _, m := range p.report.Pruned {
		p.lock.Remove(m.ID)
	}

	var orphans []domain.ResolvedMod
	for changed := true; changed; {
		changed = false
		missing = slices.DeleteFunc(missing, func(m domain.ResolvedMod) bool {
			if p.cfg.Declares(m.ID) || p.referenced(m.ID) {
				return false
			}
			p.lock.Remove(m.ID)
			orphans = append(orphans, m)
			changed = true
			return true
		})
	}

	for _, m := range missing {
		p.lock.Remove(m.ID)
		p.pending[m.ID] = m
		p.pendingOrder = append(p.pendingOrder, m.ID)
	}

	var queue []string
	for _, m := range orphans {
		p.r.logger.Debug("dropping orphaned entry", "mod_id", m.ID)
		p.report.Pruned = append(p.report.Pruned, m)
		queue = append(queue, m.Requires()...)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if p.cfg.Declares(id) || p.referenced(id) {
			continue
		}
		entry, ok := p.lock.Remove(id)
		if !ok {
			continue
		}
		p.r.logger.Debug("pruning unreferenced dependency", "mod_id", id)
		if err := p.removeFile(entry.FileName); err != nil {
			return err
		}
		p.report.Pruned = append(p.report.Pruned, entry)
		queue = append(queue, entry.Requires()...)
	}
	return nil
}

// referenced reports whether id is a Required target of any other known entry.
func (p *pass) referenced(id string) bool {
	requires := func(m domain.ResolvedMod) bool {
		return m.ID != id && slices.Contains(m.Requires(), id)
	}
	if slices.ContainsFunc(p.lock.Mods, requires) || slices.ContainsFunc(p.report.ReinstallBadChecksum, requires) {
		return true
	}
	for _, m := range p.pending {
		if requires(m) {
			return true
		}
	}
	return false
}

// prune removes everything that is not reachable from the declared roots.
func (p *pass) prune() error {
	edges := make(map[string][]string, len(p.lock.Mods)+len(p.pending))
	for _, m := range p.lock.Mods {
		edges[m.ID] = m.Requires()
	}
	for _, m := range p.pending {
		edges[m.ID] = m.Requires()
	}
	for _, m := range p.report.ReinstallBadChecksum {
		edges[m.ID] = m.Requires()
	}

	reachable := make(map[string]struct{}, len(edges))
	queue := make([]string, 0, len(p.cfg.Mods))
	for _, m := range p.cfg.Mods {
		queue = append(queue, m.ID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := reachable[id]; ok {
			continue
		}
		reachable[id] = struct{}{}
		queue = append(queue, edges[id]...)
	}

	for _, m := range slices.Clone(p.lock.Mods) {
		if _, ok := reachable[m.ID]; ok {
			continue
		}
		p.r.logger.Debug("pruning unreachable mod", "mod_id", m.ID, "file", m.FileName)
		p.lock.Remove(m.ID)
		if err := p.removeFile(m.FileName); err != nil {
			return err
		}
		p.report.Pruned = append(p.report.Pruned, m)
	}

	p.pendingOrder = slices.DeleteFunc(p.pendingOrder, func(id string) bool {
		if _, ok := reachable[id]; ok {
			return false
		}
		delete(p.pending, id)
		return true
	})
	return nil
}

// finish fills the outstanding work lists and normalizes the report.
func (p *pass) finish() {
	reinstall := make(map[string]struct{}, len(p.report.ReinstallBadChecksum))
	for _, m := range p.report.ReinstallBadChecksum {
		reinstall[m.ID] = struct{}{}
	}

	for _, m := range p.cfg.Mods {
		if p.lock.Has(m.ID) {
			continue
		}
		if _, ok := reinstall[m.ID]; ok {
			continue
		}
		if m.Source == domain.SourceLocal {
			p.r.logger.Warn("declared local mod has no artifact", "mod_id", m.ID)
			continue
		}
		p.report.NewMods = append(p.report.NewMods, m)
	}

	for _, id := range p.pendingOrder {
		m := p.pending[id]
		if p.cfg.Declares(id) {
			continue
		}
		p.report.MissingDependencies = append(p.report.MissingDependencies, domain.DependencyRef{
			Source:   m.Source,
			TargetID: m.ID,
			Kind:     domain.DependencyRequired,
		})
	}

	satisfied := func(id string) bool {
		_, pending := p.pending[id]
		_, broken := reinstall[id]
		return pending || broken || p.lock.Has(id) || p.cfg.Declares(id)
	}
	check := func(m domain.ResolvedMod) {
		for _, dep := range m.Dependencies {
			if dep.Kind == domain.DependencyRequired && !satisfied(dep.TargetID) {
				p.report.MissingDependencies = append(p.report.MissingDependencies, dep)
			}
		}
	}
	for _, m := range p.lock.Mods {
		check(m)
	}
	for _, id := range p.pendingOrder {
		check(p.pending[id])
	}

	normalize(p.report)
}

func normalize(r *domain.ReconcileReport) {
	domain.SortDependencyRefs(r.MissingDependencies)
	r.MissingDependencies = slices.CompactFunc(r.MissingDependencies, func(a, b domain.DependencyRef) bool {
		return a.TargetID == b.TargetID
	})
	domain.SortDeclaredMods(r.NewMods)
	domain.SortResolvedMods(r.ReinstallBadChecksum)
	domain.SortResolvedMods(r.Adopted)
	domain.SortResolvedMods(r.Localized)
	domain.SortResolvedMods(r.Pruned)
	slices.Sort(r.Unidentified)
	r.Unidentified = slices.Compact(r.Unidentified)
}

func (p *pass) removeFile(name string) error {
	if p.dryRun || name == "" {
		return nil
	}
	return p.r.artifacts.Remove(p.modsDir, name)
}

func (p *pass) renameFile(from, to string) error {
	if p.dryRun {
		return nil
	}
	return p.r.artifacts.Rename(p.modsDir, from, to)
}
