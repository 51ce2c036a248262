package app_test

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/modman/internal/adapters/fs"
	"go.trai.ch/modman/internal/adapters/metrics"
	"go.trai.ch/modman/internal/adapters/store"
	"go.trai.ch/modman/internal/adapters/telemetry"
	"go.trai.ch/modman/internal/adapters/telemetry/progrock"
	"go.trai.ch/modman/internal/app"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/modman/internal/core/ports/mocks"
	"go.trai.ch/modman/internal/engine/downloader"
	"go.trai.ch/modman/internal/engine/reconciler"
	"go.trai.ch/modman/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

const cdn = "https://cdn.example.test/"

// registry serves published versions by id, by alias and by content hash.
type registry struct {
	mu       sync.Mutex
	versions map[string]domain.VersionInfo
	aliases  map[string]string
}

func (r *registry) ResolveVersion(_ context.Context, id string, _ domain.Constraint) (*domain.VersionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if canonical, ok := r.aliases[id]; ok {
		id = canonical
	}
	info, ok := r.versions[id]
	if !ok {
		return nil, domain.Mark(domain.ErrNotFound, "mod_id", id)
	}
	return &info, nil
}

func (r *registry) ResolveByHash(_ context.Context, hash string) (*domain.VersionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, info := range r.versions {
		if info.File.ContentHash == hash {
			return &info, nil
		}
	}
	return nil, domain.Mark(domain.ErrNotFound, "hash", hash)
}

// fetcher serves artifact bodies by url.
type fetcher struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (f *fetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.bodies[url]
	if !ok {
		return nil, domain.Mark(domain.ErrTransportFailure, "status_code", 404)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type fixture struct {
	root    string
	mods    string
	store   *store.Store
	reg     *registry
	fetch   *fetcher
	watcher *mocks.MockWatcher
	app     *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(io.Discard).AnyTimes()
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	progress := mocks.NewMockProgress(ctrl)
	progress.EXPECT().Record(gomock.Any(), gomock.Any()).Return(vertex).AnyTimes()

	root := t.TempDir()
	f := &fixture{
		root:    root,
		mods:    filepath.Join(root, domain.DefaultModsDirName),
		store:   store.New(),
		reg:     &registry{versions: make(map[string]domain.VersionInfo), aliases: make(map[string]string)},
		fetch:   &fetcher{bodies: make(map[string]string)},
		watcher: mocks.NewMockWatcher(ctrl),
	}

	tracer := telemetry.NewNoOpTracer()
	m := metrics.New()
	artifacts := fs.NewArtifactStore(fs.NewWalker(), fs.NewHasher())
	registries := map[domain.Source]ports.Registry{domain.SourceModrinth: f.reg}

	f.app = app.New(
		f.store,
		fs.NewLocker(),
		reconciler.New(f.store, artifacts, f.reg, tracer, log, m, 2),
		resolver.New(registries, tracer, log, 2),
		downloader.New(f.fetch, progress, m, tracer, log, 2),
		f.watcher,
		m,
		progress,
		log,
	)
	return f
}

func sha512Hex(body string) string {
	sum := sha512.Sum512([]byte(body))
	return hex.EncodeToString(sum[:])
}

// publish makes id available in the registry and its artifact downloadable.
func (f *fixture) publish(id string, requires ...string) domain.VersionInfo {
	body := "artifact of " + id
	deps := make([]domain.DependencyRef, 0, len(requires))
	for _, r := range requires {
		deps = append(deps, domain.DependencyRef{Source: domain.SourceModrinth, TargetID: r, Kind: domain.DependencyRequired})
	}
	info := domain.VersionInfo{
		ID:      id,
		Name:    id,
		Version: "1.0.0",
		Source:  domain.SourceModrinth,
		File: domain.ArtifactFile{
			FileName:    id + "-1.0.0.jar",
			URL:         cdn + id,
			ContentHash: sha512Hex(body),
			Size:        int64(len(body)),
		},
		Dependencies: deps,
	}
	f.reg.versions[id] = info
	f.fetch.bodies[info.File.URL] = body
	return info
}

func (f *fixture) init(t *testing.T) {
	t.Helper()
	_, err := f.app.Init(context.Background(), f.root, app.InitOptions{GameVersion: "1.21.1", Loader: domain.LoaderFabric})
	require.NoError(t, err)
}

func (f *fixture) config(t *testing.T) *domain.Config {
	t.Helper()
	cfg, err := f.store.LoadConfig(f.root)
	require.NoError(t, err)
	return cfg
}

func (f *fixture) lockfileIDs(t *testing.T) []string {
	t.Helper()
	lock, err := f.store.LoadLockfile(f.root)
	require.NoError(t, err)
	return ids(lock.Mods)
}

func (f *fixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.mods, name))
	return err == nil
}

func ids(mods []domain.ResolvedMod) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.ID)
	}
	return out
}

func declaredIDs(cfg *domain.Config) []string {
	out := make([]string, 0, len(cfg.Mods))
	for _, m := range cfg.Mods {
		out = append(out, m.ID)
	}
	return out
}

func TestApp_Init(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	cfg, err := f.app.Init(context.Background(), f.root, app.InitOptions{
		GameVersion: "1.21.1",
		Loader:      domain.LoaderQuilt,
		Channels:    []domain.ReleaseChannel{domain.ChannelRelease, domain.ChannelBeta},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LoaderQuilt, cfg.Loader)

	assert.FileExists(t, domain.ConfigPath(f.root))
	assert.FileExists(t, domain.LockfilePath(f.root))
	assert.DirExists(t, f.mods)
	assert.Equal(t, []domain.ReleaseChannel{domain.ChannelRelease, domain.ChannelBeta}, f.config(t).ReleaseChannels)

	_, err = f.app.Init(context.Background(), f.root, app.InitOptions{GameVersion: "1.20.1", Loader: domain.LoaderFabric})
	require.ErrorIs(t, err, domain.ErrConfigExists)
	assert.Equal(t, "1.21.1", f.config(t).GameVersion)

	_, err = f.app.Init(context.Background(), f.root, app.InitOptions{
		GameVersion: "1.20.1",
		Loader:      domain.LoaderFabric,
		Force:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", f.config(t).GameVersion)
}

func TestApp_Init_Invalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.app.Init(context.Background(), f.root, app.InitOptions{Loader: domain.LoaderFabric})
	require.ErrorIs(t, err, domain.ErrMissingGameVersion)
	assert.NoFileExists(t, domain.ConfigPath(f.root))
}

func TestApp_Add_InstallsDependencies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a", "b")
	f.publish("b")

	report, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b"}, ids(report.Installed))
	assert.Empty(t, report.Failed())
	assert.Equal(t, []string{"a"}, declaredIDs(f.config(t)))
	assert.Equal(t, []string{"a", "b"}, f.lockfileIDs(t))
	assert.True(t, f.exists("a-1.0.0.jar"))
	assert.True(t, f.exists("b-1.0.0.jar"))

	status, err := f.app.Status(context.Background(), f.root)
	require.NoError(t, err)
	assert.True(t, status.IsClean())
}

func TestApp_Add_AlreadyInstalledIsDeclared(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a", "b")
	f.publish("b")

	_, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{})
	require.NoError(t, err)

	report, err := f.app.Add(context.Background(), f.root, []string{"b"}, app.InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, report.Resolution.AlreadyInstalled)
	assert.Empty(t, report.Downloads)
	assert.Equal(t, []string{"a", "b"}, declaredIDs(f.config(t)))
}

func TestApp_Add_DeclaresCanonicalID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("AANobbMI")
	f.reg.aliases["sodium"] = "AANobbMI"

	_, err := f.app.Add(context.Background(), f.root, []string{"sodium"}, app.InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"AANobbMI"}, declaredIDs(f.config(t)))

	status, err := f.app.Status(context.Background(), f.root)
	require.NoError(t, err)
	assert.True(t, status.IsClean())
}

func TestApp_Add_FailedDownloadIsNotCommitted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	info := f.publish("a")
	f.fetch.bodies[info.File.URL] = "tampered"

	report, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrSomeDownloadsFailed)
	require.NotNil(t, report)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, domain.DownloadChecksumMismatch, failed[0].Status)
	assert.Empty(t, report.Installed)
	assert.Empty(t, f.lockfileIDs(t))
	assert.Empty(t, f.config(t).Mods)
	assert.False(t, f.exists("a-1.0.0.jar"))
}

func TestApp_Add_UnplaceableFileName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	info := f.publish("a")
	info.File.FileName = "../escape.jar"
	f.reg.versions["a"] = info

	report, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrSomeDownloadsFailed)

	failed := report.Failed()
	require.Len(t, failed, 1)
	require.ErrorIs(t, failed[0].Err, domain.ErrInvalidArtifactName)
	assert.NoFileExists(t, filepath.Join(f.root, "escape.jar"))
}

func TestApp_Add_PlannedFileNameClash(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a")
	b := f.publish("b")
	b.File.FileName = "a-1.0.0.jar"
	f.reg.versions["b"] = b

	report, err := f.app.Add(context.Background(), f.root, []string{"a", "b"}, app.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrSomeDownloadsFailed)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].Item.ModID)
	require.ErrorIs(t, failed[0].Err, domain.ErrDuplicateFileName)
	assert.Equal(t, []string{"a"}, ids(report.Installed))

	data, err := os.ReadFile(filepath.Join(domain.ModsPath(f.root, f.config(t)), "a-1.0.0.jar"))
	require.NoError(t, err)
	assert.Equal(t, "artifact of a", string(data))
}

func TestApp_Add_ResolutionFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a")

	report, err := f.app.Add(context.Background(), f.root, []string{"a", "ghost"}, app.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrResolutionFailed)

	require.Len(t, report.Resolution.Failures, 1)
	assert.Equal(t, "ghost", report.Resolution.Failures[0].ID)
	assert.Equal(t, []string{"a"}, ids(report.Installed))
	assert.Equal(t, []string{"a"}, declaredIDs(f.config(t)))
}

func TestApp_Add_ConfirmDeclined(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a")

	var planned []string
	_, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{
		Confirm: func(plan *domain.Resolution) (bool, error) {
			planned = ids(plan.Mods)
			return false, nil
		},
	})
	require.ErrorIs(t, err, domain.ErrAborted)
	assert.Equal(t, []string{"a"}, planned)
	assert.False(t, f.exists("a-1.0.0.jar"))
	assert.Empty(t, f.config(t).Mods)
}

func TestApp_Add_Spinner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a")

	var titles []string
	_, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{
		Spinner: func(title string, fn func() error) error {
			titles = append(titles, title)
			return fn()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Resolving mods"}, titles)
}

func TestApp_Add_InvalidArguments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)

	_, err := f.app.Add(context.Background(), f.root, nil, app.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrNoModsSpecified)

	_, err = f.app.Add(context.Background(), f.root, []string{"local@thing"}, app.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidModSpec)
}

func TestApp_Install_RepairsDrift(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a", "b")
	f.publish("b")

	_, err := f.app.Add(context.Background(), f.root, []string{"a"}, app.InstallOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(f.mods, "a-1.0.0.jar"), []byte("corrupted"), domain.FilePerm))
	require.NoError(t, os.Remove(filepath.Join(f.mods, "b-1.0.0.jar")))

	report, err := f.app.Install(context.Background(), f.root, app.InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(report.Reconcile.ReinstallBadChecksum))
	assert.ElementsMatch(t, []string{"a", "b"}, ids(report.Installed))

	data, err := os.ReadFile(filepath.Join(f.mods, "a-1.0.0.jar"))
	require.NoError(t, err)
	assert.Equal(t, "artifact of a", string(data))
	assert.True(t, f.exists("b-1.0.0.jar"))
}

func TestApp_Install_NothingToDo(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)

	report, err := f.app.Install(context.Background(), f.root, app.InstallOptions{
		Confirm: func(*domain.Resolution) (bool, error) {
			t.Fatal("confirm must not be asked without work")
			return false, nil
		},
	})
	require.NoError(t, err)
	assert.True(t, report.Reconcile.IsClean())
	assert.Empty(t, report.Resolution.Mods)
}

func TestApp_Remove(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)
	f.publish("a", "shared")
	f.publish("c", "shared")
	f.publish("shared")

	_, err := f.app.Add(context.Background(), f.root, []string{"a", "c"}, app.InstallOptions{})
	require.NoError(t, err)

	report, err := f.app.Remove(context.Background(), f.root, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(report.Pruned))
	assert.False(t, f.exists("a-1.0.0.jar"))
	assert.True(t, f.exists("shared-1.0.0.jar"))

	report, err = f.app.Remove(context.Background(), f.root, []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "shared"}, ids(report.Pruned))

	mods, err := f.app.List(context.Background(), f.root)
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestApp_Remove_NotDeclared(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)

	_, err := f.app.Remove(context.Background(), f.root, []string{"ghost"})
	require.ErrorIs(t, err, domain.ErrModNotDeclared)

	_, err = f.app.Remove(context.Background(), f.root, nil)
	require.ErrorIs(t, err, domain.ErrNoModsSpecified)
}

func TestApp_List(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	mods, err := f.app.List(context.Background(), f.root)
	require.NoError(t, err)
	assert.Empty(t, mods)

	f.init(t)
	f.publish("zeta")
	f.publish("alpha")
	_, err = f.app.Add(context.Background(), f.root, []string{"zeta", "alpha"}, app.InstallOptions{})
	require.NoError(t, err)

	mods, err = f.app.List(context.Background(), f.root)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ids(mods))
}

func TestApp_Sync_RequiresConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.app.Sync(context.Background(), f.root)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)

	_, err = f.app.Status(context.Background(), f.root)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_Sync_HoldsLock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.init(t)

	release, err := fs.NewLocker().Lock(f.root)
	require.NoError(t, err)
	defer release()

	_, err = f.app.Sync(context.Background(), f.root)
	require.ErrorIs(t, err, domain.ErrDirLocked)

	// Status is read-only and does not need the lock.
	_, err = f.app.Status(context.Background(), f.root)
	require.NoError(t, err)
}

// modalLogger records the mode switches Configure applies.
type modalLogger struct {
	ports.Logger
	verbose bool
	json    bool
}

func (l *modalLogger) SetVerbose(enable bool) { l.verbose = enable }
func (l *modalLogger) SetJSON(enable bool)    { l.json = enable }

func TestApp_Configure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		opts        app.GlobalOptions
		wantVerbose bool
		wantJSON    bool
	}{
		{name: "defaults", opts: app.GlobalOptions{}},
		{name: "verbose", opts: app.GlobalOptions{Verbose: true}, wantVerbose: true},
		{name: "json wins", opts: app.GlobalOptions{Verbose: true, LogFormat: "json"}, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log := &modalLogger{}
			m := metrics.New()
			a := app.New(nil, nil, nil, nil, nil, nil, m, progrock.New(), log)

			a.Configure(tt.opts)
			assert.Equal(t, tt.wantVerbose, log.verbose)
			assert.Equal(t, tt.wantJSON, log.json)
			require.NoError(t, a.Close())
		})
	}
}

func TestApp_Configure_MetricsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "modman.prom")
	m := metrics.New()
	a := app.New(nil, nil, nil, nil, nil, nil, m, progrock.New(), &modalLogger{})

	a.Configure(app.GlobalOptions{MetricsFile: path})
	m.ObserveRegistryRequest("version", 200, 0)
	require.NoError(t, a.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "registry_requests_total")
}
