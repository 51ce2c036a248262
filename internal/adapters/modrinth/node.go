package modrinth

import (
	"context"
	"net/http"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/metrics"
	"go.trai.ch/modman/internal/adapters/settings"
	"go.trai.ch/modman/internal/core/ports"
)

// NodeID is the unique identifier for the Modrinth registry Graft node.
const NodeID graft.ID = "adapter.registry.modrinth"

func init() {
	graft.Register(graft.Node[ports.Registry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.Registry, error) {
			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}
			return New(
				WithHTTPClient(&http.Client{Timeout: s.HTTPTimeout}),
				WithBaseURL(s.RegistryURL),
				WithUserAgent(s.UserAgent),
				WithMetrics(m),
			), nil
		},
	})
}
