package ports

import (
	"context"
	"iter"
)

//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks

// Watcher reports changes to modman.toml and the mods directory while `modman watch` runs.
// Directories are watched non-recursively; mods never live in subdirectories.
type Watcher interface {
	// Start watches dirs. Every dir must exist.
	Start(ctx context.Context, dirs ...string) error
	// Stop releases the underlying watches and ends Events.
	Stop() error
	// Events yields changes until Stop is called.
	Events() iter.Seq[WatchEvent]
}

// WatchEvent is one change below a watched directory.
type WatchEvent struct {
	Path      string // absolute
	Operation WatchOp
}

// WatchOp is the kind of change. Chmod-only events are never reported.
type WatchOp uint8

// Watch operations.
const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)
