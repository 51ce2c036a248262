package downloader

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/fetcher"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/metrics"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/settings"           //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/telemetry"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/modman/internal/core/ports"
)

// NodeID is the unique identifier for the downloader Graft node.
const NodeID graft.ID = "engine.downloader"

func init() {
	graft.Register(graft.Node[*Downloader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fetcher.NodeID,
			progrock.NodeID,
			metrics.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			settings.NodeID,
		},
		Run: func(ctx context.Context) (*Downloader, error) {
			f, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}

			progress, err := graft.Dep[ports.Progress](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
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

			return New(f, progress, m, tracer, log, s.Concurrency), nil
		},
	})
}
