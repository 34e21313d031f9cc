package inject

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/core/ports"
)

// NodeID is the unique identifier for the injector Graft node.
const NodeID graft.ID = "engine.inject"

func init() {
	graft.Register(graft.Node[*Injector]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Injector, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}
