package classify

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/fs"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/adapters/logger"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/adapters/modfile" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/adapters/native"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/weld/internal/core/ports"
)

// NodeID is the unique identifier for the classifier Graft node.
const NodeID graft.ID = "engine.classify"

func init() {
	graft.Register(graft.Node[*Classifier]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			modfile.NodeID,
			native.InspectorNodeID,
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Classifier, error) {
			store, err := graft.Dep[ports.ModuleStore](ctx)
			if err != nil {
				return nil, err
			}

			inspector, err := graft.Dep[ports.ArchInspector](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, inspector, hasher, log), nil
		},
	})
}
