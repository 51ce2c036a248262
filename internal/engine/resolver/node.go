package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/modrinth"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/settings"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/core/domain"
	"go.trai.ch/modman/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			modrinth.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			settings.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
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

			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}

			registries := map[domain.Source]ports.Registry{
				domain.SourceModrinth: registry,
			}
			return New(registries, tracer, log, s.Concurrency), nil
		},
	})
}
