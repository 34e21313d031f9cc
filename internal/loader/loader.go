// Package loader resolves modules and native libraries embedded in a module
// as resources. It implements the internal calls of the injected loader hook.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/weld/internal/adapters/native"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/host"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithArch overrides the process architecture used to pick native payloads.
func WithArch(arch domain.Arch) Option {
	return func(r *Resolver) {
		r.arch = arch
	}
}

// WithTempRoot sets the directory under which the per-process extraction
// directory is created. Defaults to os.TempDir().
func WithTempRoot(dir string) Option {
	return func(r *Resolver) {
		r.tempRoot = dir
	}
}

// WithTemporaryAssemblies makes every owner load managed dependencies from
// extracted files, whatever its loader hook records.
func WithTemporaryAssemblies() Option {
	return func(r *Resolver) {
		r.temporary = true
	}
}

// Resolver serves embedded dependencies.
type Resolver struct {
	compressor ports.Compressor
	store      ports.ModuleStore
	logger     ports.Logger
	arch       domain.Arch
	tempRoot   string
	temporary  bool

	tables    sync.Map // *metadata.Module -> *table
	extracted sync.Map // cache key -> path
	group     singleflight.Group

	tempOnce sync.Once
	tempDir  string
	tempErr  error
}

// New creates a Resolver.
func New(compressor ports.Compressor, store ports.ModuleStore, logger ports.Logger, opts ...Option) *Resolver {
	arch, _ := domain.ParseArch(runtime.GOARCH)
	r := &Resolver{
		compressor: compressor,
		store:      store,
		logger:     logger,
		arch:       arch,
		tempRoot:   os.TempDir(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// entry is one embedded dependency of an owner module.
type entry struct {
	res  domain.EmbeddedResource
	data []byte
}

// table indexes the weld resources of one owner. It is read-only once built.
type table struct {
	once    sync.Once
	entries map[domain.ResourceKey]entry
	// temporary is set when the owner's loader hook asks for managed
	// dependencies to be loaded from files.
	temporary bool
}

func (r *Resolver) table(owner *metadata.Module) *table {
	v, _ := r.tables.LoadOrStore(owner, &table{})
	t := v.(*table) //nolint:forcetypeassert // Only *table values are stored
	t.once.Do(func() {
		t.entries = make(map[domain.ResourceKey]entry)
		t.temporary = temporaryAssemblies(owner)
		for _, res := range owner.Resources {
			parsed, ok := domain.ParseResourceName(res.Name)
			if !ok {
				continue
			}
			if _, dup := t.entries[parsed.Key]; dup {
				continue
			}
			t.entries[parsed.Key] = entry{res: parsed, data: res.Data}
		}
	})
	return t
}

// temporaryAssemblies reports whether the loader hook of owner carries the
// temporary assemblies option.
func temporaryAssemblies(owner *metadata.Module) bool {
	hook := owner.FindType(domain.LoaderNamespace, domain.LoaderTypeName)
	if hook == nil {
		return false
	}
	for _, a := range hook.Attributes {
		if a.Type.Namespace == domain.OptionAttributeNamespace && a.Type.Name == domain.OptionAttributeName &&
			len(a.Args) == 2 && a.Args[0] == domain.TemporaryAssembliesOption {
			return a.Args[1] == "true"
		}
	}
	return false
}

func (r *Resolver) lookup(owner *metadata.Module, keys []domain.ResourceKey) (entry, bool) {
	t := r.table(owner)
	for _, k := range keys {
		if e, ok := t.entries[k]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// ResolveAssembly loads the managed or mixed module called name embedded in
// owner and returns its name. A miss returns false.
func (r *Resolver) ResolveAssembly(ctx context.Context, rt *host.Runtime, owner *host.Assembly, name string) (string, bool) {
	canonical := strings.ToLower(strings.TrimSpace(strings.SplitN(name, ",", 2)[0]))
	if canonical == "" {
		return "", false
	}

	e, ok := r.lookup(owner.Module, []domain.ResourceKey{
		{Kind: domain.KindManaged, Arch: domain.ArchAny, Name: canonical},
		{Kind: domain.KindMixed, Arch: r.arch, Name: canonical},
		{Kind: domain.KindMixed, Arch: domain.ArchAny, Name: canonical},
	})
	if !ok {
		r.logger.Debug("no embedded module", "owner", owner.Name(), "name", name)
		return "", false
	}

	asm, err := r.loadManaged(ctx, rt, owner, e)
	if err != nil {
		r.logger.Error(zerr.With(err, "resource", e.res.Name))
		return "", false
	}
	return asm.Name(), true
}

// loadManaged loads the managed portion of e into rt. The native image of a
// mixed module is extracted first; a mixed module without one has nothing to
// extract.
func (r *Resolver) loadManaged(ctx context.Context, rt *host.Runtime, owner *host.Assembly, e entry) (*host.Assembly, error) {
	data, err := r.payload(e)
	if err != nil {
		return nil, err
	}

	var decoded *metadata.Module
	if e.res.Key.Kind == domain.KindMixed {
		if decoded, err = r.store.Decode(data); err != nil {
			return nil, err
		}
		if len(decoded.Native) > 0 {
			image := decoded.Native
			if _, err := r.materialize(owner, e, native.FileNames(e.res.Key.Name)[0], func() ([]byte, error) {
				return image, nil
			}); err != nil {
				return nil, err
			}
		}
	}

	if r.temporary || r.table(owner.Module).temporary {
		path, err := r.materialize(owner, e, e.res.FileName, func() ([]byte, error) {
			return data, nil
		})
		if err != nil {
			return nil, err
		}
		return rt.LoadFile(ctx, path)
	}
	if decoded != nil {
		return rt.LoadModule(ctx, decoded)
	}
	return rt.LoadBytes(ctx, data)
}

// ResolveUnmanaged extracts the native library called name embedded in owner
// and returns the path of the extracted file. A miss returns false.
func (r *Resolver) ResolveUnmanaged(owner *host.Assembly, name string) (string, bool) {
	var keys []domain.ResourceKey
	for _, arch := range []domain.Arch{r.arch, domain.ArchAny} {
		for _, candidate := range nativeNames(name) {
			keys = append(keys,
				domain.ResourceKey{Kind: domain.KindNative, Arch: arch, Name: candidate},
				domain.ResourceKey{Kind: domain.KindMixed, Arch: arch, Name: candidate},
			)
		}
	}

	e, ok := r.lookup(owner.Module, keys)
	if !ok {
		r.logger.Debug("no embedded native library", "owner", owner.Name(), "name", name)
		return "", false
	}

	var (
		path string
		err  error
	)
	if e.res.Key.Kind == domain.KindMixed {
		path, err = r.materializeMixed(owner, e)
	} else {
		path, err = r.materialize(owner, e, e.res.FileName, func() ([]byte, error) {
			return r.payload(e)
		})
	}
	if err != nil {
		r.logger.Error(err)
		return "", false
	}
	return path, true
}

// Preload extracts the native library called name and loads it into rt.
func (r *Resolver) Preload(ctx context.Context, rt *host.Runtime, owner *host.Assembly, name string) bool {
	if _, ok := r.ResolveUnmanaged(owner, name); !ok {
		r.logger.Warn("preload target is not embedded", "owner", owner.Name(), "name", name)
		return false
	}
	if _, err := rt.LoadNative(ctx, name); err != nil {
		r.logger.Error(zerr.With(err, "owner", owner.Name()))
		return false
	}
	return true
}

// Bindings returns the internal-call implementations of the loader hook.
func (r *Resolver) Bindings() host.Bindings {
	return host.Bindings{
		domain.LoaderBinding(domain.ResolveAssemblyMethod): func(ctx context.Context, call host.Call) (string, error) {
			name, _ := r.ResolveAssembly(ctx, call.Runtime, call.Assembly, call.Arg(0))
			return name, nil
		},
		domain.LoaderBinding(domain.ResolveUnmanagedMethod): func(_ context.Context, call host.Call) (string, error) {
			path, _ := r.ResolveUnmanaged(call.Assembly, call.Arg(0))
			return path, nil
		},
		domain.LoaderBinding(domain.PreloadMethod): func(ctx context.Context, call host.Call) (string, error) {
			r.Preload(ctx, call.Runtime, call.Assembly, call.Arg(0))
			return "", nil
		},
	}
}

func (r *Resolver) payload(e entry) ([]byte, error) {
	if !e.res.Compressed {
		return e.data, nil
	}
	data, err := r.compressor.Decompress(e.data)
	if err != nil {
		return nil, zerr.With(err, "resource", e.res.Name)
	}
	return data, nil
}

// materializeMixed writes the native image of a mixed module to disk.
func (r *Resolver) materializeMixed(owner *host.Assembly, e entry) (string, error) {
	file := native.FileNames(e.res.Key.Name)[0]
	return r.materialize(owner, e, file, func() ([]byte, error) {
		data, err := r.payload(e)
		if err != nil {
			return nil, err
		}
		m, err := r.store.Decode(data)
		if err != nil {
			return nil, zerr.With(err, "resource", e.res.Name)
		}
		if len(m.Native) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrEmptyPayload, "mixed module has no native image"), "resource", e.res.Name)
		}
		return m.Native, nil
	})
}

// materialize writes the bytes produced by produce to
// <temp>/<owner>/<arch>/<file> once per process and returns the path.
// Concurrent callers for the same file share a single extraction.
func (r *Resolver) materialize(owner *host.Assembly, e entry, file string, produce func() ([]byte, error)) (string, error) {
	ownerDir, arch, file := strings.ToLower(owner.Name()), e.res.Key.Arch.String(), strings.ToLower(file)
	key := ownerDir + "/" + arch + "/" + file

	if p, ok := r.cached(key); ok {
		return p, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if p, ok := r.cached(key); ok {
			return p, nil
		}

		root, err := r.root()
		if err != nil {
			return "", err
		}
		dir := filepath.Join(root, ownerDir, arch)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", dir)
		}

		data, err := produce()
		if err != nil {
			return "", err
		}

		target := filepath.Join(dir, file)
		if err := writeFile(target, data); err != nil {
			return "", err
		}
		r.extracted.Store(key, target)
		r.logger.Debug("extracted embedded dependency", "resource", e.res.Name, "path", target)
		return target, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil //nolint:forcetypeassert // The group only returns strings
}

func (r *Resolver) cached(key string) (string, bool) {
	v, ok := r.extracted.Load(key)
	if !ok {
		return "", false
	}
	p := v.(string) //nolint:forcetypeassert // Only strings are stored
	if _, err := os.Stat(p); err != nil {
		r.extracted.Delete(key)
		return "", false
	}
	return p, true
}

func (r *Resolver) root() (string, error) {
	r.tempOnce.Do(func() {
		if err := os.MkdirAll(r.tempRoot, 0o750); err != nil {
			r.tempErr = zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", r.tempRoot)
			return
		}
		dir, err := os.MkdirTemp(r.tempRoot, fmt.Sprintf("weld-%d-*", os.Getpid()))
		if err != nil {
			r.tempErr = zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", r.tempRoot)
			return
		}
		r.tempDir = dir
	})
	return r.tempDir, r.tempErr
}

// TempDir returns the per-process extraction directory, creating it on first use.
// It returns "" when the directory cannot be created.
func (r *Resolver) TempDir() string {
	root, err := r.root()
	if err != nil {
		return ""
	}
	return root
}

func writeFile(target string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.tmp")
	if err != nil {
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", target)
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", tmp)
	}
	if err := os.Chmod(tmp, 0o755); err != nil { //nolint:gosec // Native libraries must be loadable
		_ = os.Remove(tmp)
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", tmp)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", target)
	}
	return nil
}

// nativeNames returns the canonical names a native request may be embedded under.
func nativeNames(name string) []string {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(name)))
	for _, ext := range []string{".dll", ".so", ".dylib"} {
		if trimmed, ok := strings.CutSuffix(base, ext); ok {
			base = trimmed
			break
		}
	}
	names := []string{base}
	if trimmed, ok := strings.CutPrefix(base, "lib"); ok && trimmed != "" {
		names = append(names, trimmed)
	} else {
		names = append(names, "lib"+base)
	}
	return names
}
