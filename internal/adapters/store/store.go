// Package store persists the declared config and the lockfile as TOML.
package store

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StateStore = (*Store)(nil)

const tempPattern = ".modman-state-*"

// Store implements ports.StateStore on top of modman.toml and modman.lock.
type Store struct{}

// New creates a new Store.
func New() *Store {
	return &Store{}
}

// LoadConfig reads modman.toml under root.
func (s *Store) LoadConfig(root string) (*domain.Config, error) {
	path := domain.ConfigPath(root)
	data, err := readState(path)
	if err != nil {
		return nil, err
	}

	var cfg domain.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, corrupt(path, err)
	}
	if cfg.Mods == nil {
		cfg.Mods = []domain.DeclaredMod{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, corrupt(path, err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to modman.toml under root.
func (s *Store) SaveConfig(root string, cfg *domain.Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", domain.ConfigFileName)
	}
	return writeState(domain.ConfigPath(root), data)
}

// LoadLockfile reads modman.lock under root.
func (s *Store) LoadLockfile(root string) (*domain.Lockfile, error) {
	path := domain.LockfilePath(root)
	data, err := readState(path)
	if err != nil {
		return nil, err
	}

	var lock domain.Lockfile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, corrupt(path, err)
	}
	if lock.Version == 0 {
		lock.Version = domain.LockfileVersion
	}
	if lock.Version > domain.LockfileVersion {
		return nil, zerr.With(corrupt(path, zerr.New("unsupported lockfile version")), "version", lock.Version)
	}
	if lock.Mods == nil {
		lock.Mods = []domain.ResolvedMod{}
	}
	if err := lock.Validate(); err != nil {
		return nil, corrupt(path, err)
	}
	return &lock, nil
}

// SaveLockfile writes lock to modman.lock under root, sorted by id.
func (s *Store) SaveLockfile(root string, lock *domain.Lockfile) error {
	sorted := lock.Clone()
	sorted.Version = domain.LockfileVersion
	sorted.Sort()

	data, err := toml.Marshal(sorted)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", domain.LockFileName)
	}
	return writeState(domain.LockfilePath(root), data)
}

func readState(path string) ([]byte, error) {
	//nolint:gosec // Path is derived from the project root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Mark(domain.ErrStateAbsent, "file", filepath.Base(path))
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read state file"), "file", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.Mark(domain.ErrStateEmpty, "file", filepath.Base(path))
	}
	return data, nil
}

func corrupt(path string, cause error) error {
	err := zerr.With(zerr.Wrap(domain.ErrCorruptState, ""), "file", filepath.Base(path))
	return zerr.With(err, "detail", cause.Error())
}

// writeState replaces path atomically. Content identical to the file on disk is not rewritten.
func writeState(path string, data []byte) error {
	//nolint:gosec // Path is derived from the project root
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}
	if err := os.Chmod(tmpPath, domain.FilePerm); err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return zerr.With(domain.Classify(domain.ErrSaveFailed, err), "file", path)
	}
	committed = true
	return nil
}
