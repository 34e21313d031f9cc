package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/fs"
	"go.trai.ch/weld/internal/core/ports"
)

// NodeID is the unique identifier for the staging store Graft node.
const NodeID graft.ID = "adapter.staging_store"

func init() {
	graft.Register(graft.Node[ports.StagingOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID},
		Run: func(ctx context.Context) (ports.StagingOpener, error) {
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return func(dir string) (ports.StagingStore, error) {
				store, err := NewStore(dir, hasher)
				if err != nil {
					return nil, err
				}
				return store, nil
			}, nil
		},
	})
}
