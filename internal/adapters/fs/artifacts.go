package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore implements ports.ArtifactStore on the local filesystem.
type ArtifactStore struct {
	walker      *Walker
	hasher      *Hasher
	concurrency int
}

// Option configures an ArtifactStore.
type Option func(*ArtifactStore)

// WithConcurrency bounds the number of files hashed at once.
func WithConcurrency(n int) Option {
	return func(s *ArtifactStore) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewArtifactStore creates a new ArtifactStore.
func NewArtifactStore(walker *Walker, hasher *Hasher, opts ...Option) *ArtifactStore {
	s := &ArtifactStore{
		walker:      walker,
		hasher:      hasher,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan hashes every artifact in dir. The directory is created if it does not exist.
func (s *ArtifactStore) Scan(ctx context.Context, dir string) ([]ports.ArtifactFile, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrScanFailed, err), "dir", dir)
	}

	var names []string
	for name, err := range s.walker.Artifacts(dir) {
		if err != nil {
			return nil, zerr.With(domain.Classify(domain.ErrScanFailed, err), "dir", dir)
		}
		names = append(names, name)
	}

	files := make([]ports.ArtifactFile, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, size, err := s.hasher.HashFile(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			files[i] = ports.ArtifactFile{Name: name, Hash: hash, Size: size}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

// Rename moves an artifact within dir. It refuses to overwrite an existing file.
func (s *ArtifactStore) Rename(dir, from, to string) error {
	if from == to {
		return nil
	}
	src, err := artifactPath(dir, from)
	if err != nil {
		return err
	}
	dst, err := artifactPath(dir, to)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(dst); err == nil {
		return zerr.With(domain.Mark(domain.ErrRenameFailed, "from", from), "to", to)
	}
	if err := os.Rename(src, dst); err != nil {
		return zerr.With(zerr.With(domain.Classify(domain.ErrRenameFailed, err), "from", from), "to", to)
	}
	return nil
}

// Remove deletes an artifact from dir. A missing file is not an error.
func (s *ArtifactStore) Remove(dir, name string) error {
	path, err := artifactPath(dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(domain.Classify(domain.ErrRemoveFailed, err), "file", name)
	}
	return nil
}

// artifactPath rejects names that would escape dir.
func artifactPath(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", domain.Mark(domain.ErrInvalidModSpec, "file", name)
	}
	return filepath.Join(dir, name), nil
}
