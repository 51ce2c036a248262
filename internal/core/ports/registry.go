// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/modman/internal/core/domain"
)

// Registry resolves mod ids and content hashes to concrete versions.
//
// Implementations classify failures so that errors.Is matches domain.ErrNotFound when the
// registry has no answer and domain.ErrTransportFailure for everything else.
//
//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type Registry interface {
	// ResolveVersion returns the best version of id that satisfies the constraint.
	ResolveVersion(ctx context.Context, id string, constraint domain.Constraint) (*domain.VersionInfo, error)

	// ResolveByHash returns the version whose artifact has the given SHA-512 hex digest.
	ResolveByHash(ctx context.Context, hash string) (*domain.VersionInfo, error)
}
