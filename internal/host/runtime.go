// Package host is a small managed runtime. It loads modules, runs their
// initializers and raises resolving events for modules and native libraries
// it cannot find on its own.
package host

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/weld/internal/adapters/native"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

// Binding implements an internal-call method.
type Binding func(ctx context.Context, call Call) (string, error)

// Bindings maps "Namespace.Type::Method" to its implementation.
type Bindings map[string]Binding

// Call carries the arguments of an internal call.
type Call struct {
	Runtime *Runtime
	// Assembly declares the called method.
	Assembly *Assembly
	Args     []string
}

// Arg returns the i-th argument, or "".
func (c Call) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// Assembly is a loaded module.
type Assembly struct {
	Module *metadata.Module
	// Path is the file the module was loaded from, empty for in-memory loads.
	Path string

	// ready is closed once the initializer has returned; initErr holds its failure.
	ready   chan struct{}
	initErr error
}

// Name returns the module name.
func (a *Assembly) Name() string {
	return a.Module.Name
}

// Runtime hosts loaded assemblies.
type Runtime struct {
	store     ports.ModuleStore
	arch      domain.Arch
	probeDirs []string
	natives   ports.NativeLoader
	bindings  Bindings
	logger    ports.Logger
	stdout    io.Writer

	mu         sync.RWMutex
	assemblies map[string]*Assembly
	libraries  map[string]ports.NativeLibrary
	resolving  []funcRef
	unmanaged  []funcRef
}

// New creates a Runtime that decodes modules with store.
func New(store ports.ModuleStore, opts ...Option) *Runtime {
	arch, _ := domain.ParseArch(runtime.GOARCH)
	r := &Runtime{
		store:      store,
		arch:       arch,
		natives:    native.NewLoader(),
		bindings:   make(Bindings),
		logger:     nopLogger{},
		stdout:     os.Stdout,
		assemblies: make(map[string]*Assembly),
		libraries:  make(map[string]ports.NativeLibrary),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Arch returns the process architecture.
func (r *Runtime) Arch() domain.Arch {
	return r.arch
}

// Bind registers an internal-call implementation. It must be called before
// code using the binding runs.
func (r *Runtime) Bind(key string, b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[key] = b
}

// LoadFile loads the module stored at path.
func (r *Runtime) LoadFile(ctx context.Context, path string) (*Assembly, error) {
	m, err := r.store.Read(path)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, m, path)
}

// LoadBytes loads a module held in memory.
func (r *Runtime) LoadBytes(ctx context.Context, data []byte) (*Assembly, error) {
	m, err := r.store.Decode(data)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, m, "")
}

// LoadModule loads an already decoded module.
func (r *Runtime) LoadModule(ctx context.Context, m *metadata.Module) (*Assembly, error) {
	return r.load(ctx, m, "")
}

// load registers m under its name and runs its initializer. When a module with
// the same name is already loaded, that one is returned once its initializer
// has finished and m is discarded.
func (r *Runtime) load(ctx context.Context, m *metadata.Module, path string) (*Assembly, error) {
	key := strings.ToLower(m.Name)

	r.mu.Lock()
	if existing, ok := r.assemblies[key]; ok {
		r.mu.Unlock()
		return r.await(ctx, key, existing)
	}
	asm := &Assembly{Module: m, Path: path, ready: make(chan struct{})}
	r.assemblies[key] = asm
	r.mu.Unlock()

	r.logger.Debug("loaded module", "name", m.Name, "path", path)

	moduleType := m.FindType("", metadata.ModuleTypeName)
	if moduleType == nil || moduleType.Method(metadata.InitializerName) == nil {
		close(asm.ready)
		return asm, nil
	}
	if _, err := r.exec(withInitializing(ctx, key), asm, moduleType.Method(metadata.InitializerName), nil, 0); err != nil {
		r.mu.Lock()
		delete(r.assemblies, key)
		r.mu.Unlock()
		asm.initErr = zerr.With(zerr.Wrap(err, "module initializer failed"), "module", m.Name)
		close(asm.ready)
		return nil, asm.initErr
	}
	close(asm.ready)
	return asm, nil
}

// await blocks until the initializer of asm has returned. Loads issued from
// inside that initializer get asm immediately.
func (r *Runtime) await(ctx context.Context, key string, asm *Assembly) (*Assembly, error) {
	if asm.ready == nil || initializing(ctx, key) {
		return asm, nil
	}
	select {
	case <-asm.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if asm.initErr != nil {
		return nil, asm.initErr
	}
	return asm, nil
}

// acquire returns the assembly registered under name once it is usable.
func (r *Runtime) acquire(ctx context.Context, name string) (*Assembly, bool, error) {
	key := strings.ToLower(name)
	r.mu.RLock()
	asm, ok := r.assemblies[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	asm, err := r.await(ctx, key, asm)
	if err != nil {
		return nil, false, err
	}
	return asm, true, nil
}

// Loaded returns the assembly registered under name when its initializer has
// completed successfully.
func (r *Runtime) Loaded(name string) (*Assembly, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asm, ok := r.assemblies[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	if asm.ready != nil {
		select {
		case <-asm.ready:
		default:
			return nil, false
		}
	}
	return asm, asm.initErr == nil
}

// Load returns the module called name: already loaded, found in a probe
// directory, or produced by a resolving handler, in that order.
func (r *Runtime) Load(ctx context.Context, name string) (*Assembly, error) {
	if asm, ok, err := r.acquire(ctx, name); err != nil || ok {
		return asm, err
	}

	for _, dir := range r.probeDirs {
		p := filepath.Join(dir, name+domain.ModuleExt)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		asm, err := r.LoadFile(ctx, p)
		if err != nil {
			r.logger.Warn("failed to load probed module", "path", p, "error", err.Error())
			continue
		}
		return asm, nil
	}

	for _, h := range r.handlers(&r.resolving) {
		got, err := r.callRef(ctx, h, name)
		if err != nil {
			return nil, zerr.With(err, "name", name)
		}
		if got == "" {
			continue
		}
		if asm, ok, err := r.acquire(ctx, got); err != nil || ok {
			return asm, err
		}
	}

	return nil, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "no module matched"), "name", name)
}

// LoadNative opens the native library called name: from the cache, a probe
// directory, or a path returned by an unmanaged resolving handler.
func (r *Runtime) LoadNative(ctx context.Context, name string) (ports.NativeLibrary, error) {
	key := strings.ToLower(name)

	r.mu.RLock()
	lib, ok := r.libraries[key]
	r.mu.RUnlock()
	if ok {
		return lib, nil
	}

	var errs []error
	open := func(p string) ports.NativeLibrary {
		lib, err := r.natives.Open(p)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return lib
	}

	for _, dir := range r.probeDirs {
		for _, file := range native.FileNames(name) {
			p := filepath.Join(dir, file)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if lib = open(p); lib != nil {
				return r.publishNative(key, lib), nil
			}
		}
	}

	for _, h := range r.handlers(&r.unmanaged) {
		p, err := r.callRef(ctx, h, name)
		if err != nil {
			return nil, zerr.With(err, "name", name)
		}
		if p == "" {
			continue
		}
		if lib = open(p); lib != nil {
			return r.publishNative(key, lib), nil
		}
	}

	err := zerr.With(zerr.Wrap(domain.ErrNativeNotFound, "no native library matched"), "name", name)
	if len(errs) > 0 {
		err = errors.Join(append([]error{err}, errs...)...)
	}
	return nil, err
}

func (r *Runtime) publishNative(key string, lib ports.NativeLibrary) ports.NativeLibrary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.libraries[key]; ok {
		_ = lib.Close()
		return existing
	}
	r.libraries[key] = lib
	return lib
}

func (r *Runtime) handlers(list *[]funcRef) []funcRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]funcRef(nil), *list...)
}

func (r *Runtime) addHandler(list *[]funcRef, h funcRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, h)
}

// ResolvingHandlerCount returns how many module resolving handlers are registered.
func (r *Runtime) ResolvingHandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resolving)
}

// UnmanagedHandlerCount returns how many native resolving handlers are registered.
func (r *Runtime) UnmanagedHandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.unmanaged)
}

// Invoke runs the static method "Namespace.Type::Method" of asm.
func (r *Runtime) Invoke(ctx context.Context, asm *Assembly, method string, args ...string) (string, error) {
	typeName, methodName, ok := strings.Cut(method, "::")
	if !ok {
		return "", zerr.With(zerr.Wrap(domain.ErrMethodNotFound, "expected Namespace.Type::Method"), "method", method)
	}
	ref := metadata.MemberRef{Name: methodName}
	ref.Type.Namespace, ref.Type.Name = metadata.SplitFullName(typeName)

	target, meth, err := r.resolveMethod(ctx, asm, ref)
	if err != nil {
		return "", err
	}
	vals := make([]value, len(args))
	for i, a := range args {
		vals[i] = value{str: a}
	}
	v, err := r.exec(ctx, target, meth, vals, 0)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

// Close releases every opened native library.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for k, lib := range r.libraries {
		if err := lib.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.libraries, k)
	}
	return errors.Join(errs...)
}

type initializingKey struct{}

// withInitializing records that the initializer of key runs under ctx.
func withInitializing(ctx context.Context, key string) context.Context {
	parent, _ := ctx.Value(initializingKey{}).(map[string]struct{})
	set := make(map[string]struct{}, len(parent)+1)
	for k := range parent {
		set[k] = struct{}{}
	}
	set[key] = struct{}{}
	return context.WithValue(ctx, initializingKey{}, set)
}

func initializing(ctx context.Context, key string) bool {
	set, _ := ctx.Value(initializingKey{}).(map[string]struct{})
	_, ok := set[key]
	return ok
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(error)          {}
