package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/adapters/settings"           //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/adapters/store"              //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/modman/internal/core/ports"
	"go.trai.ch/modman/internal/engine/downloader"
	"go.trai.ch/modman/internal/engine/reconciler"
	"go.trai.ch/modman/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			store.NodeID,
			fs.LockerNodeID,
			reconciler.NodeID,
			resolver.NodeID,
			downloader.NodeID,
			watcher.NodeID,
			metrics.NodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			settings.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log, Settings: s}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	stateStore, err := graft.Dep[ports.StateStore](ctx)
	if err != nil {
		return nil, err
	}

	locker, err := graft.Dep[ports.DirLocker](ctx)
	if err != nil {
		return nil, err
	}

	rec, err := graft.Dep[*reconciler.Reconciler](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	dl, err := graft.Dep[*downloader.Downloader](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[*metrics.Prometheus](ctx)
	if err != nil {
		return nil, err
	}

	progress, err := graft.Dep[ports.Progress](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(stateStore, locker, rec, res, dl, w, m, progress, log), nil
}
