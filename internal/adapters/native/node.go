package native

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/core/ports"
)

const (
	// InspectorNodeID is the unique identifier for the architecture inspector Graft node.
	InspectorNodeID graft.ID = "adapter.native.inspector"
	// LoaderNodeID is the unique identifier for the native loader Graft node.
	LoaderNodeID graft.ID = "adapter.native.loader"
)

func init() {
	graft.Register(graft.Node[ports.ArchInspector]{
		ID:        InspectorNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ArchInspector, error) {
			return NewInspector(), nil
		},
	})

	graft.Register(graft.Node[ports.NativeLoader]{
		ID:        LoaderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.NativeLoader, error) {
			return NewLoader(), nil
		},
	})
}
