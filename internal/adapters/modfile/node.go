package modfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/core/ports"
)

// NodeID is the unique identifier for the module store Graft node.
const NodeID graft.ID = "adapter.module_store"

func init() {
	graft.Register(graft.Node[ports.ModuleStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ModuleStore, error) {
			return NewStore(), nil
		},
	})
}
