package embed

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/compress" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/adapters/logger"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/core/ports"
)

// NodeID is the unique identifier for the embedder Graft node.
const NodeID graft.ID = "engine.embed"

func init() {
	graft.Register(graft.Node[*Embedder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{compress.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Embedder, error) {
			compressor, err := graft.Dep[ports.Compressor](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(compressor, log), nil
		},
	})
}
