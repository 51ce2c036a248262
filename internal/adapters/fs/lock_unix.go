//go:build unix

package fs

import (
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// Locker holds a non-blocking exclusive flock on <root>/.modman/run.lock.
// The kernel drops the lock when the descriptor closes, including on crash, so a stale
// lock file is harmless.
type Locker struct{}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// Lock acquires the run lock of root.
func (l *Locker) Lock(root string) (func(), error) {
	path := domain.RunLockPath(root)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create state directory"), "path", path)
	}

	//nolint:gosec // Path is derived from the project root
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.PrivateFilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open lock file"), "path", path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, domain.Mark(domain.ErrDirLocked, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to lock project directory"), "path", path)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}, nil
}
