package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/modman/internal/adapters/settings"
	"go.trai.ch/modman/internal/core/ports"
)

const (
	WalkerNodeID   graft.ID = "adapter.fs.walker"
	HasherNodeID   graft.ID = "adapter.fs.hasher"
	ArtifactNodeID graft.ID = "adapter.fs.artifacts"
	LockerNodeID   graft.ID = "adapter.fs.locker"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[*Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Hasher, error) {
			return NewHasher(), nil
		},
	})

	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        ArtifactNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID, HasherNodeID, settings.NodeID},
		Run: func(ctx context.Context) (ports.ArtifactStore, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[*Hasher](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewArtifactStore(walker, hasher, WithConcurrency(cfg.Concurrency)), nil
		},
	})

	graft.Register(graft.Node[ports.DirLocker]{
		ID:        LockerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DirLocker, error) {
			return NewLocker(), nil
		},
	})
}
