package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/core/ports"
)

const (
	WalkerNodeID   graft.ID = "adapter.fs.walker"
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	HasherNodeID   graft.ID = "adapter.fs.hasher"
)

func init() {
	graft.Register(graft.Node[ports.Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.ReferenceResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ReferenceResolver, error) {
			return NewResolver(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})
}
