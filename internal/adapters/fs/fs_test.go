package fs_test

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/modman/internal/adapters/fs"
	"go.trai.ch/modman/internal/core/domain"
)

func sha(content string) string {
	sum := sha512.Sum512([]byte(content))
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newStore() *fs.ArtifactStore {
	return fs.NewArtifactStore(fs.NewWalker(), fs.NewHasher(), fs.WithConcurrency(2))
}

func TestScan_ListsAndHashesArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sodium.jar", "sodium")
	writeFile(t, dir, "Lithium.JAR", "lithium")
	writeFile(t, dir, "readme.txt", "not a mod")
	writeFile(t, dir, ".modman-download-123", "partial")
	writeFile(t, dir, ".hidden.jar", "hidden")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jar"), 0o750))

	files, err := newStore().Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "Lithium.JAR", files[0].Name)
	assert.Equal(t, sha("lithium"), files[0].Hash)
	assert.Equal(t, int64(len("lithium")), files[0].Size)
	assert.Equal(t, "sodium.jar", files[1].Name)
	assert.Equal(t, sha("sodium"), files[1].Hash)
}

func TestScan_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mods")

	files, err := newStore().Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestScan_HonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jar", "b.jar", "c.jar"} {
		writeFile(t, dir, name, name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newStore().Scan(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHasher_HashFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jar", "hello")

	hash, size, err := fs.NewHasher().HashFile(filepath.Join(dir, "a.jar"))
	require.NoError(t, err)
	assert.Equal(t, sha("hello"), hash)
	assert.Equal(t, int64(5), size)

	_, _, err = fs.NewHasher().HashFile(filepath.Join(dir, "missing.jar"))
	require.ErrorIs(t, err, domain.ErrHashFailed)
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "download.jar", "x")
	writeFile(t, dir, "taken.jar", "y")
	s := newStore()

	require.NoError(t, s.Rename(dir, "download.jar", "sodium-0.6.0.jar"))
	assert.FileExists(t, filepath.Join(dir, "sodium-0.6.0.jar"))
	assert.NoFileExists(t, filepath.Join(dir, "download.jar"))

	err := s.Rename(dir, "sodium-0.6.0.jar", "taken.jar")
	require.ErrorIs(t, err, domain.ErrRenameFailed)

	require.NoError(t, s.Rename(dir, "taken.jar", "taken.jar"))

	err = s.Rename(dir, "taken.jar", "../escape.jar")
	require.ErrorIs(t, err, domain.ErrInvalidModSpec)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jar", "x")
	s := newStore()

	require.NoError(t, s.Remove(dir, "a.jar"))
	assert.NoFileExists(t, filepath.Join(dir, "a.jar"))

	require.NoError(t, s.Remove(dir, "a.jar"), "removing a missing file is not an error")
}
