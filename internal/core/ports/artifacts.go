package ports

import (
	"context"
)

// ArtifactFile is one artifact found by a scan.
type ArtifactFile struct {
	Name string
	Hash string
	Size int64
}

// ArtifactStore enumerates and manipulates artifacts in a mods directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=artifacts.go -destination=mocks/mock_artifacts.go -package=mocks
type ArtifactStore interface {
	// Scan lists every file with domain.ArtifactExt in dir, hashed, sorted by name.
	// A missing dir is created and scans as empty.
	Scan(ctx context.Context, dir string) ([]ArtifactFile, error)

	// Rename moves an artifact within dir.
	Rename(dir, from, to string) error

	// Remove deletes an artifact from dir. Removing a missing file is not an error.
	Remove(dir, name string) error
}

// DirLocker serializes modman invocations on one project root.
type DirLocker interface {
	// Lock acquires the lock for root and returns its release function.
	// It fails with domain.ErrDirLocked when another process holds it.
	Lock(root string) (func(), error)
}
