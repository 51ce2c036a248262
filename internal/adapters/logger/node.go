package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/settings"
	"go.trai.ch/modman/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.Logger, error) {
			s, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			l := New()
			// --log-format and --verbose can still switch modes once flags are parsed.
			if s.LogFormat == "json" {
				l.(*Logger).SetJSON(true)
			}
			return l, nil
		},
	})
}
