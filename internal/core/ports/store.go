package ports

import "go.trai.ch/modman/internal/core/domain"

// StateStore loads and saves the declared config and the lockfile of a project root.
//
// Loads report domain.ErrStateAbsent, domain.ErrStateEmpty or domain.ErrCorruptState.
// Saves replace the target file atomically.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type StateStore interface {
	LoadConfig(root string) (*domain.Config, error)
	SaveConfig(root string, cfg *domain.Config) error
	LoadLockfile(root string) (*domain.Lockfile, error)
	SaveLockfile(root string, lock *domain.Lockfile) error
}
