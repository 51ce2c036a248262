package reconciler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/modrinth"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/settings"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/store"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/core/ports"
)

// NodeID is the unique identifier for the reconciler Graft node.
const NodeID graft.ID = "engine.reconciler"

func init() {
	graft.Register(graft.Node[*Reconciler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			store.NodeID,
			fs.ArtifactNodeID,
			modrinth.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			metrics.NodeID,
			settings.NodeID,
		},
		Run: func(ctx context.Context) (*Reconciler, error) {
			stateStore, err := graft.Dep[ports.StateStore](ctx)
			if err != nil {
				return nil, err
			}

			artifacts, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}

			registry, err := graft.Dep[ports.Registry](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return New(stateStore, artifacts, registry, tracer, log, m, s.Concurrency), nil
		},
	})
}
