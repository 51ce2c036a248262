package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/settings"
	"go.trai.ch/modman/internal/core/ports"
)

// TracerNodeID is the unique identifier for the tracer Graft node.
const TracerNodeID graft.ID = "adapter.tracer"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			if !s.Tracing {
				return NewNoOpTracer(), nil
			}
			return NewOTelTracer(InstrumentationName), nil
		},
	})
}
