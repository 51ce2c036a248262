package resolver_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/modman/internal/core/ports/mocks"
	"go.trai.ch/modman/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

// fakeRegistry serves a fixed dependency graph and counts fetches per id.
type fakeRegistry struct {
	mu       sync.Mutex
	mods     map[string]domain.VersionInfo
	aliases  map[string]string
	failures map[string]error
	calls    map[string]int
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		mods:     make(map[string]domain.VersionInfo),
		aliases:  make(map[string]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeRegistry) add(id string, deps ...domain.DependencyRef) {
	f.mods[id] = domain.VersionInfo{
		ID:      id,
		Name:    "Mod " + id,
		Version: "1.0.0",
		Source:  domain.SourceModrinth,
		File: domain.ArtifactFile{
			FileName:    id + "-1.0.0.jar",
			URL:         "https://cdn.example/" + id + ".jar",
			ContentHash: "hash-" + id,
			Size:        100,
		},
		Dependencies: deps,
	}
}

func (f *fakeRegistry) ResolveVersion(_ context.Context, id string, _ domain.Constraint) (*domain.VersionInfo, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++

	if err, ok := f.failures[id]; ok {
		return nil, err
	}
	if canonical, ok := f.aliases[id]; ok {
		id = canonical
	}
	info, ok := f.mods[id]
	if !ok {
		return nil, domain.Mark(domain.ErrNotFound, "mod_id", id)
	}
	return &info, nil
}

func (f *fakeRegistry) ResolveByHash(context.Context, string) (*domain.VersionInfo, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeRegistry) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func req(id string) domain.DependencyRef {
	return domain.DependencyRef{Source: domain.SourceModrinth, TargetID: id, Kind: domain.DependencyRequired}
}

func dep(id string, kind domain.DependencyKind) domain.DependencyRef {
	return domain.DependencyRef{Source: domain.SourceModrinth, TargetID: id, Kind: kind}
}

func root(id string) domain.DeclaredMod {
	return domain.DeclaredMod{Source: domain.SourceModrinth, ID: id, Name: id}
}

func newResolver(t *testing.T, reg ports.Registry, concurrency int) *resolver.Resolver {
	t.Helper()
	ctrl := gomock.NewController(t)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	return resolver.New(map[domain.Source]ports.Registry{domain.SourceModrinth: reg}, tracer, log, concurrency)
}

func ids(mods []domain.ResolvedMod) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.ID
	}
	return out
}

var constraint = domain.Constraint{GameVersion: "1.21.1", Loader: domain.LoaderFabric}

func TestResolve_Chain(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", req("b"))
	reg.add("b", req("c"))
	reg.add("c")

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil, []domain.DeclaredMod{root("a")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Mods))
	assert.Empty(t, res.Failures)
	assert.Equal(t, int64(300), res.TotalSize())
}

func TestResolve_DiamondFetchesSharedDependencyOnce(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", req("b"), req("c"))
	reg.add("b", req("d"))
	reg.add("c", req("d"))
	reg.add("d")

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil, []domain.DeclaredMod{root("a")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(res.Mods))
	assert.Equal(t, 1, reg.callCount("d"))
}

func TestResolve_CycleTerminates(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", req("b"))
	reg.add("b", req("a"))

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil, []domain.DeclaredMod{root("a")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids(res.Mods))
	assert.Equal(t, 1, reg.callCount("a"))
	assert.Equal(t, 1, reg.callCount("b"))
}

func TestResolve_BaselineIsNeverFetched(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", req("lib"))
	reg.add("lib")
	reg.add("installed")

	baseline := map[string]struct{}{"lib": {}, "installed": {}}
	res, err := newResolver(t, reg, 4).Resolve(context.Background(), baseline,
		[]domain.DeclaredMod{root("a"), root("installed")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, ids(res.Mods))
	assert.Equal(t, []string{"installed"}, res.AlreadyInstalled)
	assert.Equal(t, 0, reg.callCount("lib"))
	assert.Equal(t, 0, reg.callCount("installed"))
	assert.Equal(t, 1, reg.callCount("a"))
}

func TestResolve_SkipsOptionalAndEmbedded(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", dep("opt", domain.DependencyOptional), dep("emb", domain.DependencyEmbedded), req("b"))
	reg.add("b")
	reg.add("opt")
	reg.add("emb")

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil, []domain.DeclaredMod{root("a")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids(res.Mods))
	assert.Equal(t, 0, reg.callCount("opt"))
	assert.Equal(t, 0, reg.callCount("emb"))
}

func TestResolve_MissingDependencyKeepsRoot(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", req("gone"), req("b"))
	reg.add("b")

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil, []domain.DeclaredMod{root("a")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids(res.Mods))
	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, "gone", f.ID)
	assert.Equal(t, "a", f.Parent)
	assert.Equal(t, "a", f.Root)
	assert.Equal(t, domain.FailureNotFound, f.Class)
	require.ErrorIs(t, f.Err, domain.ErrNotFound)
}

func TestResolve_FailedRootDoesNotAffectSiblings(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("good")
	reg.failures["flaky"] = domain.Classify(domain.ErrTransportFailure, errors.New("connection reset"))

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{root("flaky"), root("good")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"good"}, ids(res.Mods))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "flaky", res.Failures[0].ID)
	assert.Empty(t, res.Failures[0].Parent)
	assert.Equal(t, domain.FailureTransport, res.Failures[0].Class)
}

func TestResolve_IncompatibleAbortsOnlyItsRoot(t *testing.T) {
	reg := newFakeRegistry()
	// x pulls in p and y; y declares itself incompatible with z.
	reg.add("x", req("p"), req("y"))
	reg.add("p", req("r"))
	reg.add("y", dep("z", domain.DependencyIncompatible))
	reg.add("r")
	// v only shares r with the aborted root.
	reg.add("v", req("r"))

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{root("x"), root("v")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"v", "r"}, ids(res.Mods))

	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, "z", f.ID)
	assert.Equal(t, "y", f.Parent)
	assert.Equal(t, "x", f.Root)
	assert.Equal(t, domain.FailureIncompatible, f.Class)
	require.ErrorIs(t, f.Err, domain.ErrIncompatibleDependency)

	// r was claimed by the aborted level and released before any fetch.
	assert.Equal(t, 1, reg.callCount("r"))
}

func TestResolve_IncompatibleReachedThroughAbortedRoot(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("x", req("y"))
	reg.add("y", dep("z", domain.DependencyIncompatible))
	// w reaches y, which x already fetched, so w fails the same way.
	reg.add("w", req("y"))

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{root("x"), root("w")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Mods)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "x", res.Failures[0].Root)
	assert.Equal(t, "w", res.Failures[1].Root)
	assert.Equal(t, 1, reg.callCount("y"))
}

func TestResolve_LaterRootExpandsModsOfAbortedRoot(t *testing.T) {
	reg := newFakeRegistry()
	// p is fetched for x, but x aborts before p's own dependencies are expanded.
	reg.add("x", req("p"), req("y"))
	reg.add("p", req("r"))
	reg.add("y", dep("z", domain.DependencyIncompatible))
	reg.add("r")
	reg.add("w", req("p"))

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{root("x"), root("w")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"w", "p", "r"}, ids(res.Mods))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "x", res.Failures[0].Root)

	assert.Equal(t, 1, reg.callCount("p"), "p is reused, not fetched again")
	assert.Equal(t, 1, reg.callCount("r"))
}

func TestResolve_CanonicalIDAlreadyInstalled(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("AANobbMI")
	reg.aliases["sodium"] = "AANobbMI"

	baseline := map[string]struct{}{"AANobbMI": {}}
	res, err := newResolver(t, reg, 4).Resolve(context.Background(), baseline,
		[]domain.DeclaredMod{root("sodium")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Mods)
	assert.Equal(t, []string{"sodium"}, res.AlreadyInstalled)
	assert.Equal(t, "AANobbMI", res.Canonical("sodium"))
}

func TestResolve_CanonicalIDReplacesSlug(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("AANobbMI")
	reg.aliases["sodium"] = "AANobbMI"

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{root("sodium"), root("AANobbMI")}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"AANobbMI"}, ids(res.Mods))
}

func TestResolve_UnsupportedSource(t *testing.T) {
	res, err := newResolver(t, newFakeRegistry(), 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{{Source: domain.SourceCurseForge, ID: "238222", Name: "JEI"}}, constraint, resolver.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Mods)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, domain.FailureUnsupported, res.Failures[0].Class)
	assert.Equal(t, domain.SourceCurseForge, res.Failures[0].Source)
}

func TestResolve_IgnoreDependencies(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a", req("b"))
	reg.add("b")

	res, err := newResolver(t, reg, 4).Resolve(context.Background(), nil,
		[]domain.DeclaredMod{root("a")}, constraint, resolver.Options{IgnoreDependencies: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, ids(res.Mods))
	assert.Equal(t, 0, reg.callCount("b"))
}

func TestResolve_BoundsConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		reg := newFakeRegistry()
		reg.delay = 10 * time.Millisecond
		reg.add("hub", req("d1"), req("d2"), req("d3"), req("d4"), req("d5"), req("d6"))
		for _, id := range []string{"d1", "d2", "d3", "d4", "d5", "d6"} {
			reg.add(id)
		}

		res, err := newResolver(t, reg, 2).Resolve(context.Background(), nil,
			[]domain.DeclaredMod{root("hub")}, constraint, resolver.Options{})
		require.NoError(t, err)

		assert.Len(t, res.Mods, 7)
		assert.Equal(t, int32(2), reg.peak.Load())
	})
}

func TestResolve_Cancelled(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newResolver(t, reg, 4).Resolve(ctx, nil, []domain.DeclaredMod{root("a")}, constraint, resolver.Options{})
	require.ErrorIs(t, err, context.Canceled)
}
