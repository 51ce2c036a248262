package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/settings"
)

// NodeID is the unique identifier for the metrics Graft node.
const NodeID graft.ID = "adapter.metrics"

func init() {
	graft.Register(graft.Node[*Prometheus]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (*Prometheus, error) {
			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return New(WithOutputPath(s.MetricsFile)), nil
		},
	})
}
