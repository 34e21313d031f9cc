// Package app implements the application layer for weld.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"go.trai.ch/weld/internal/adapters/fs"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/engine/classify"
	"go.trai.ch/weld/internal/engine/embed"
	"go.trai.ch/weld/internal/engine/inject"
	"go.trai.ch/weld/internal/host"
	"go.trai.ch/weld/internal/loader"
	"go.trai.ch/zerr"
)

// referenceExts are the file extensions picked up when walking reference directories.
var referenceExts = []string{domain.ModuleExt, ".dll", ".so", ".dylib"}

// App represents the main application logic.
type App struct {
	store      ports.ModuleStore
	references ports.ReferenceResolver
	walker     ports.Walker
	staging    ports.StagingOpener
	compressor ports.Compressor
	natives    ports.NativeLoader
	tracer     ports.Tracer
	logger     ports.Logger
	classifier *classify.Classifier
	embedder   *embed.Embedder
	injector   *inject.Injector
}

// New creates a new App instance.
func New(
	store ports.ModuleStore,
	references ports.ReferenceResolver,
	walker ports.Walker,
	staging ports.StagingOpener,
	compressor ports.Compressor,
	natives ports.NativeLoader,
	tracer ports.Tracer,
	log ports.Logger,
	classifier *classify.Classifier,
	embedder *embed.Embedder,
	injector *inject.Injector,
) *App {
	return &App{
		store:      store,
		references: references,
		walker:     walker,
		staging:    staging,
		compressor: compressor,
		natives:    natives,
		tracer:     tracer,
		logger:     log,
		classifier: classifier,
		embedder:   embedder,
		injector:   injector,
	}
}

// WithTracer replaces the tracer used for pipeline spans.
func (a *App) WithTracer(tracer ports.Tracer) *App {
	a.tracer = tracer
	return a
}

// WeaveRequest configures one run of Weave.
type WeaveRequest struct {
	Config *domain.Config
	// Resolver locates the base library when the module lacks a reference to it.
	// Defaults to the module files in the reference directories and search paths,
	// then the host's built-in base library.
	Resolver ports.MetadataResolver
}

// WeaveResult reports what Weave did.
type WeaveResult struct {
	Output       string
	Dependencies []domain.Dependency
	Resources    []domain.EmbeddedResource
	Injection    inject.Result
	// Written is false when the module already carried everything and was left alone.
	Written bool
}

// Weave embeds the configured dependencies into the module and injects the
// loader hook. Nothing is written unless every stage succeeds.
func (a *App) Weave(ctx context.Context, req WeaveRequest) (*WeaveResult, error) {
	cfg := req.Config
	if cfg == nil || cfg.Module == "" {
		return nil, domain.ErrNoTargetModule
	}

	ctx, span := a.tracer.Start(ctx, "weave", ports.WithAttribute("weld.module", cfg.Module))
	defer span.End()

	res, err := a.weave(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res, nil
}

//nolint:cyclop // orchestration function
func (a *App) weave(ctx context.Context, req WeaveRequest) (*WeaveResult, error) {
	cfg := req.Config
	res := &WeaveResult{Output: cfg.OutputPath()}

	// 1. Read the target
	var original *metadata.Module
	err := a.stage(ctx, "read", func(span ports.Span) error {
		m, err := a.store.Read(cfg.Module)
		if err != nil {
			return zerr.With(errors.Join(domain.ErrTargetReadFailed, err), "path", cfg.Module)
		}
		original = m
		span.SetAttribute("weld.module.name", m.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m := original.Clone()

	// 2. Classify and filter the references
	err = a.stage(ctx, "classify", func(span ports.Span) error {
		paths, err := a.referencePaths(cfg)
		if err != nil {
			return err
		}
		deps, err := a.classifier.Classify(ctx, paths, cfg.Hints())
		if err != nil {
			return err
		}
		if res.Dependencies, err = classify.Filter(deps, cfg.Include, cfg.Exclude); err != nil {
			return err
		}
		span.SetAttribute("weld.references", len(paths))
		span.SetAttribute("weld.dependencies", len(res.Dependencies))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. Embed
	err = a.stage(ctx, "embed", func(span ports.Span) error {
		opts := embed.Options{Compress: !cfg.DisableCompression}
		var err error
		if cfg.StageResources {
			if opts.Staging, err = a.staging(cfg.StagingDir); err != nil {
				return err
			}
		}
		if res.Resources, err = a.embedder.Embed(m, res.Dependencies, opts); err != nil {
			return err
		}
		reused := 0
		for _, r := range res.Resources {
			if r.Reused {
				reused++
				_, _ = fmt.Fprintf(span, "unchanged %s\n", r.Name)
				continue
			}
			_, _ = fmt.Fprintf(span, "embedded %s (%d -> %d bytes)\n", r.Name, r.OriginalSize, r.Size)
		}
		span.SetAttribute("weld.resources", len(res.Resources))
		span.SetAttribute("weld.resources.reused", reused)
		if reused == len(res.Resources) {
			span.SetAttribute("weld.skipped", true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4. Inject the loader hook
	err = a.stage(ctx, "inject", func(span ports.Span) error {
		resolver := req.Resolver
		if resolver == nil {
			dirs := slices.Concat(cfg.ReferenceDirs, cfg.SearchPaths)
			resolver = fs.Chain{fs.NewModuleResolver(a.store, dirs...), host.BaseResolver{}}
		}
		var err error
		if res.Injection, err = a.injector.Inject(m, inject.Options{
			Preload:             cfg.Preload,
			TemporaryAssemblies: cfg.CreateTemporaryAssemblies,
			Resolver:            resolver,
		}); err != nil {
			return err
		}
		for _, name := range res.Injection.Removed {
			_, _ = fmt.Fprintf(span, "removed stale loader %s\n", name)
		}
		if !res.Injection.Changed() {
			span.SetAttribute("weld.skipped", true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. Verify
	if err := a.stage(ctx, "verify", func(ports.Span) error {
		return metadata.Verify(m)
	}); err != nil {
		return nil, err
	}

	// 6. Write
	err = a.stage(ctx, "write", func(span ports.Span) error {
		span.SetAttribute("weld.output", res.Output)
		if res.Output == cfg.Module && reflect.DeepEqual(original, m) {
			span.SetAttribute("weld.skipped", true)
			a.logger.Info("module is up to date", "path", res.Output)
			return nil
		}
		if err := a.store.Write(res.Output, m); err != nil {
			return zerr.With(errors.Join(domain.ErrTargetWriteFailed, err), "path", res.Output)
		}
		res.Written = true
		a.logger.Info("wove module", "path", res.Output, "dependencies", len(res.Dependencies))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// stage runs fn inside a span named after the pipeline stage.
func (a *App) stage(ctx context.Context, name string, fn func(ports.Span) error) error {
	_, span := a.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(span); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// referencePaths expands the configured reference patterns and walks the
// reference directories. The target module itself is never a reference.
func (a *App) referencePaths(cfg *domain.Config) ([]string, error) {
	var paths []string
	if len(cfg.References) > 0 {
		resolved, err := a.references.ResolveReferences(cfg.References, "")
		if err != nil {
			return nil, err
		}
		paths = append(paths, resolved...)
	}

	for _, dir := range cfg.ReferenceDirs {
		for p := range a.walker.WalkFiles(dir, nil) {
			ext := strings.ToLower(filepath.Ext(p))
			if slices.Contains(referenceExts, ext) {
				paths = append(paths, p)
			}
		}
	}

	target, output := filepath.Clean(cfg.Module), filepath.Clean(cfg.OutputPath())
	return slices.DeleteFunc(paths, func(p string) bool {
		p = filepath.Clean(p)
		return p == target || p == output
	}), nil
}

// Summary describes a module for the inspect command.
type Summary struct {
	Name       string
	Version    string
	Machine    metadata.Machine
	References []*metadata.Reference
	Types      []string
	Resources  []domain.EmbeddedResource
	// Loader is the hook version of the injected loader, or "" when none is present.
	Loader string
	// Attached reports whether the module initializer calls the loader.
	Attached bool
}

// Inspect reads the module at path and summarizes it.
func (a *App) Inspect(path string) (*Summary, error) {
	m, err := a.store.Read(path)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrTargetReadFailed, err), "path", path)
	}

	s := &Summary{
		Name:       m.Name,
		Version:    m.Version,
		Machine:    m.Machine,
		References: m.References,
		Resources:  embed.Embedded(m),
	}
	for _, t := range m.Types {
		s.Types = append(s.Types, t.FullName())
	}
	if t := m.FindType(domain.LoaderNamespace, domain.LoaderTypeName); t != nil {
		s.Loader = inject.HookVersion(t)
	}
	if mt := m.FindType("", metadata.ModuleTypeName); mt != nil {
		if init := mt.Method(metadata.InitializerName); init != nil && len(init.Body) > 0 {
			s.Attached = reflect.DeepEqual(init.Body[0], inject.AttachCall())
		}
	}
	return s, nil
}

// ExecRequest configures one run of Exec.
type ExecRequest struct {
	Module string
	// Entry is the method to run, "Namespace.Type::Method".
	Entry  string
	Args   []string
	Stdout io.Writer
	// ProbeDirs are searched before embedded resources.
	ProbeDirs []string
	// TempRoot overrides where embedded native libraries are extracted.
	TempRoot string
	// Arch overrides the process architecture; ArchAny keeps the running one.
	Arch domain.Arch
	// TemporaryAssemblies loads embedded modules from extracted files even when
	// the module's loader hook does not ask for it.
	TemporaryAssemblies bool
}

// Exec loads the module in a fresh host with the runtime resolver bound and runs its entry point.
func (a *App) Exec(ctx context.Context, req ExecRequest) (string, error) {
	var opts []loader.Option
	if req.TempRoot != "" {
		opts = append(opts, loader.WithTempRoot(req.TempRoot))
	}
	if req.Arch != domain.ArchAny {
		opts = append(opts, loader.WithArch(req.Arch))
	}
	if req.TemporaryAssemblies {
		opts = append(opts, loader.WithTemporaryAssemblies())
	}
	resolver := loader.New(a.compressor, a.store, a.logger, opts...)

	hostOpts := []host.Option{
		host.WithBindings(resolver.Bindings()),
		host.WithNativeLoader(a.natives),
		host.WithLogger(a.logger),
		host.WithProbeDirs(req.ProbeDirs...),
	}
	if req.Arch != domain.ArchAny {
		hostOpts = append(hostOpts, host.WithArch(req.Arch))
	}
	if req.Stdout != nil {
		hostOpts = append(hostOpts, host.WithStdout(req.Stdout))
	}
	rt := host.New(a.store, hostOpts...)
	defer func() {
		if err := rt.Close(); err != nil {
			a.logger.Error(err)
		}
	}()

	asm, err := rt.LoadFile(ctx, req.Module)
	if err != nil {
		return "", err
	}
	return rt.Invoke(ctx, asm, req.Entry, req.Args...)
}
