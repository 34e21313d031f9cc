package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weld/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/compress"  //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/modfile"   //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/native"    //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/engine/classify"
	"go.trai.ch/weld/internal/engine/embed"
	"go.trai.ch/weld/internal/engine/inject"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			modfile.NodeID,
			fs.ResolverNodeID,
			fs.WalkerNodeID,
			cas.NodeID,
			compress.NodeID,
			native.LoaderNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			classify.NodeID,
			embed.NodeID,
			inject.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	store, err := graft.Dep[ports.ModuleStore](ctx)
	if err != nil {
		return nil, err
	}

	references, err := graft.Dep[ports.ReferenceResolver](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[ports.Walker](ctx)
	if err != nil {
		return nil, err
	}

	staging, err := graft.Dep[ports.StagingOpener](ctx)
	if err != nil {
		return nil, err
	}

	compressor, err := graft.Dep[ports.Compressor](ctx)
	if err != nil {
		return nil, err
	}

	natives, err := graft.Dep[ports.NativeLoader](ctx)
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

	classifier, err := graft.Dep[*classify.Classifier](ctx)
	if err != nil {
		return nil, err
	}

	embedder, err := graft.Dep[*embed.Embedder](ctx)
	if err != nil {
		return nil, err
	}

	injector, err := graft.Dep[*inject.Injector](ctx)
	if err != nil {
		return nil, err
	}

	return New(store, references, walker, staging, compressor, natives, tracer, log, classifier, embedder, injector), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:          app,
		Logger:       log,
		ConfigLoader: loader,
		Tracer:       tracer,
	}, nil
}
