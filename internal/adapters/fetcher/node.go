package fetcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/settings"
	"go.trai.ch/modman/internal/core/ports"
)

// NodeID is the unique identifier for the artifact fetcher Graft node.
const NodeID graft.ID = "adapter.fetcher"

func init() {
	graft.Register(graft.Node[ports.Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.Fetcher, error) {
			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return New(NewClient(s.HTTPTimeout), s.UserAgent), nil
		},
	})
}
