// Package resolver expands requested root mods into a deduplicated install plan.
package resolver

import (
	"context"
	"runtime"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Resolver walks Required dependency edges against the configured registries.
//
// The claimed set and the arena are owned by the goroutine calling Resolve. Fetch tasks only
// write their own result slot; the owner reads the slots after the level is joined.
type Resolver struct {
	registries  map[domain.Source]ports.Registry
	tracer      ports.Tracer
	logger      ports.Logger
	concurrency int
}

// Options tunes a single resolution.
type Options struct {
	// IgnoreDependencies resolves the roots only.
	IgnoreDependencies bool
}

// New creates a new Resolver. concurrency below 1 selects GOMAXPROCS.
func New(registries map[domain.Source]ports.Registry, tracer ports.Tracer, log ports.Logger, concurrency int) *Resolver {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Resolver{
		registries:  registries,
		tracer:      tracer,
		logger:      log,
		concurrency: concurrency,
	}
}

type request struct {
	id     string
	source domain.Source
	parent string
}

type fetchResult struct {
	info *domain.VersionInfo
	err  error
}

type arenaEntry struct {
	mod  domain.ResolvedMod
	root int
}

// run tracks the state of one Resolve call.
type run struct {
	claimed    map[string]struct{}
	arena      []arenaEntry
	fetched    map[string]int // arena index by mod id
	resolution *domain.Resolution
	constraint domain.Constraint
}

func (r *run) record(mod domain.ResolvedMod, root int) {
	r.fetched[mod.ID] = len(r.arena)
	r.arena = append(r.arena, arenaEntry{mod: mod, root: root})
}

// known returns a mod an earlier root already fetched.
func (r *run) known(id string) (domain.ResolvedMod, bool) {
	i, ok := r.fetched[id]
	if !ok {
		return domain.ResolvedMod{}, false
	}
	return r.arena[i].mod, true
}

func (r *run) claim(id string) bool {
	if _, ok := r.claimed[id]; ok {
		return false
	}
	r.claimed[id] = struct{}{}
	return true
}

// Resolve expands roots into a plan. Ids in baseline count as satisfied and are never fetched.
//
// Per-mod failures are reported in the Resolution; only cancellation is returned as an error.
func (r *Resolver) Resolve(
	ctx context.Context,
	baseline map[string]struct{},
	roots []domain.DeclaredMod,
	constraint domain.Constraint,
	opts Options,
) (*domain.Resolution, error) {
	ctx, span := r.tracer.Start(ctx, "resolve", ports.WithAttribute("roots", len(roots)))
	defer span.End()

	st := &run{
		claimed:    make(map[string]struct{}, len(baseline)),
		fetched:    make(map[string]int),
		resolution: &domain.Resolution{Mods: []domain.ResolvedMod{}},
		constraint: constraint,
	}
	for id := range baseline {
		st.claimed[id] = struct{}{}
	}

	// Root phase.
	var rootReqs []request
	for _, root := range roots {
		if !st.claim(root.ID) {
			st.resolution.AlreadyInstalled = appendUnique(st.resolution.AlreadyInstalled, root.ID)
			continue
		}
		rootReqs = append(rootReqs, request{id: root.ID, source: root.Source})
	}

	results := r.fetchAll(ctx, rootReqs, constraint)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, zerr.Wrap(err, "resolution cancelled")
	}

	rootMods := make([]*domain.ResolvedMod, len(rootReqs))
	for i, req := range rootReqs {
		res := results[i]
		if res.err != nil {
			r.fail(st, req, req.id, res.err)
			continue
		}
		mod := res.info.ResolvedMod()
		if mod.ID == "" {
			mod.ID = req.id
		}
		if mod.ID != req.id {
			if st.resolution.Aliases == nil {
				st.resolution.Aliases = make(map[string]string)
			}
			st.resolution.Aliases[req.id] = mod.ID
		}
		if mod.ID != req.id && !st.claim(mod.ID) {
			r.logger.Debug("root resolves to an installed mod", "requested", req.id, "mod_id", mod.ID)
			st.resolution.AlreadyInstalled = appendUnique(st.resolution.AlreadyInstalled, req.id)
			continue
		}
		rootMods[i] = &mod
	}

	// Subtree phase, one root at a time.
	aborted := make(map[int]bool)
	for i, mod := range rootMods {
		if mod == nil {
			continue
		}
		st.record(*mod, i)
		if opts.IgnoreDependencies {
			continue
		}
		ok, err := r.expand(ctx, st, i, *mod)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			aborted[i] = true
		}
	}

	st.resolution.Mods = r.plan(st, rootMods, aborted)
	span.SetAttribute("planned", len(st.resolution.Mods))
	span.SetAttribute("failures", len(st.resolution.Failures))
	return st.resolution, nil
}

// expand resolves the subtree of one root level by level. It reports false when the root was
// aborted by an Incompatible dependency.
//
// Mods fetched for an earlier root are walked again without being fetched, so every root sees
// its whole subtree even when the earlier root was aborted before expanding them.
func (r *Resolver) expand(ctx context.Context, st *run, rootIdx int, root domain.ResolvedMod) (bool, error) {
	visited := map[string]struct{}{root.ID: {}}
	frontier := []domain.ResolvedMod{root}

	for len(frontier) > 0 {
		var (
			reqs  []request
			known []domain.ResolvedMod
		)
		for _, m := range frontier {
			for _, dep := range m.Dependencies {
				switch dep.Kind {
				case domain.DependencyRequired:
					if _, ok := visited[dep.TargetID]; ok {
						continue
					}
					visited[dep.TargetID] = struct{}{}
					if st.claim(dep.TargetID) {
						reqs = append(reqs, request{id: dep.TargetID, source: dep.Source, parent: m.ID})
					} else if mod, ok := st.known(dep.TargetID); ok {
						known = append(known, mod)
					}
				case domain.DependencyIncompatible:
					// Nothing claimed in this level has been fetched yet.
					for _, req := range reqs {
						delete(st.claimed, req.id)
					}
					r.abort(st, root, m, dep)
					return false, nil
				default:
					// Optional and Embedded are never fetched.
				}
			}
		}
		if len(reqs) == 0 && len(known) == 0 {
			return true, nil
		}

		next := known
		if len(reqs) > 0 {
			results := r.fetchAll(ctx, reqs, st.constraint)
			if err := ctx.Err(); err != nil {
				return false, zerr.Wrap(err, "resolution cancelled")
			}

			for i, req := range reqs {
				res := results[i]
				if res.err != nil {
					r.fail(st, req, root.ID, res.err)
					continue
				}
				mod := res.info.ResolvedMod()
				if mod.ID == "" {
					mod.ID = req.id
				}
				if _, ok := visited[mod.ID]; ok && mod.ID != req.id {
					continue
				}
				visited[mod.ID] = struct{}{}
				if mod.ID != req.id && !st.claim(mod.ID) {
					if prior, ok := st.known(mod.ID); ok {
						next = append(next, prior)
					}
					continue
				}
				st.record(mod, rootIdx)
				next = append(next, mod)
			}
		}
		frontier = next
	}
	return true, nil
}

// fetchAll resolves reqs concurrently. Tasks never fail the group, so one failure does not
// cancel its siblings.
func (r *Resolver) fetchAll(ctx context.Context, reqs []request, constraint domain.Constraint) []fetchResult {
	results := make([]fetchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			reg, ok := r.registries[req.source]
			if !ok {
				results[i].err = zerr.With(domain.Mark(domain.ErrUnsupportedSource, "mod_id", req.id), "source", req.source.String())
				return nil
			}
			info, err := reg.ResolveVersion(ctx, req.id, constraint)
			if err == nil && info == nil {
				err = domain.Mark(domain.ErrNotFound, "mod_id", req.id)
			}
			results[i] = fetchResult{info: info, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Resolver) fail(st *run, req request, rootID string, err error) {
	failure := domain.ResolutionFailure{
		ID:     req.id,
		Source: req.source,
		Parent: req.parent,
		Root:   rootID,
		Class:  domain.ClassifyFailure(err),
		Err:    err,
	}
	r.logger.Debug("failed to resolve mod", "mod_id", req.id, "source", req.source.String(), "class", failure.Class.String())
	st.resolution.Failures = append(st.resolution.Failures, failure)
}

func (r *Resolver) abort(st *run, root, declaring domain.ResolvedMod, dep domain.DependencyRef) {
	err := zerr.With(domain.Mark(domain.ErrIncompatibleDependency, "mod_id", dep.TargetID), "declared_by", declaring.ID)
	r.logger.Debug("root aborted by incompatible dependency", "root", root.ID, "mod_id", dep.TargetID, "declared_by", declaring.ID)
	st.resolution.Failures = append(st.resolution.Failures, domain.ResolutionFailure{
		ID:     dep.TargetID,
		Source: dep.Source,
		Parent: declaring.ID,
		Root:   root.ID,
		Class:  domain.FailureIncompatible,
		Err:    err,
	})
}

// plan keeps the arena entries of successful roots plus anything reachable from them.
// Aborted roots themselves are never planned.
func (r *Resolver) plan(st *run, rootMods []*domain.ResolvedMod, aborted map[int]bool) []domain.ResolvedMod {
	byID := make(map[string]domain.ResolvedMod, len(st.arena))
	for _, e := range st.arena {
		byID[e.mod.ID] = e.mod
	}

	excluded := make(map[string]struct{})
	for i, mod := range rootMods {
		if mod != nil && aborted[i] {
			excluded[mod.ID] = struct{}{}
		}
	}

	keep := make(map[string]struct{})
	var queue []string
	for i, mod := range rootMods {
		if mod != nil && !aborted[i] {
			keep[mod.ID] = struct{}{}
			queue = append(queue, mod.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range byID[id].Requires() {
			if _, ok := byID[dep]; !ok {
				continue
			}
			if _, ok := excluded[dep]; ok {
				continue
			}
			if _, ok := keep[dep]; ok {
				continue
			}
			keep[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}

	// Roots in request order, then everything else in discovery order.
	mods := make([]domain.ResolvedMod, 0, len(keep))
	isRoot := make(map[string]struct{}, len(rootMods))
	for i, mod := range rootMods {
		if mod != nil && !aborted[i] {
			isRoot[mod.ID] = struct{}{}
			mods = append(mods, *mod)
		}
	}
	for _, e := range st.arena {
		if _, ok := isRoot[e.mod.ID]; ok {
			continue
		}
		if _, ok := keep[e.mod.ID]; ok {
			mods = append(mods, e.mod)
		}
	}
	return mods
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
