package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/compress"
	"go.trai.ch/weld/internal/adapters/modfile"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/metadata/metadatatest"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.trai.ch/weld/internal/engine/inject"
	"go.trai.ch/weld/internal/host"
	"go.trai.ch/weld/internal/loader"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return logger
}

// embedRaw adds data to owner under the resource name for key, deflated.
func embedRaw(t *testing.T, owner *metadata.Module, key domain.ResourceKey, file string, data []byte) {
	t.Helper()
	compressed, err := compress.NewDeflate().Compress(data)
	require.NoError(t, err)
	require.NoError(t, owner.AddResource(domain.ResourceName(key, file, true), compressed))
}

func embedModule(t *testing.T, owner *metadata.Module, kind domain.Kind, arch domain.Arch, m *metadata.Module) {
	t.Helper()
	data, err := modfile.Encode(m)
	require.NoError(t, err)
	key := domain.ResourceKey{Kind: kind, Arch: arch, Name: "liba"}
	embedRaw(t, owner, key, "liba"+domain.ModuleExt, data)
}

func libA() *metadata.Module {
	m := metadatatest.NewModule("LibA")
	metadatatest.AddReturn(m, "LibA", "Greeter", "Hello", "hello from LibA")
	return m
}

func mustLoaded(t *testing.T, rt *host.Runtime, name string) *host.Assembly {
	t.Helper()
	asm, ok := rt.Loaded(name)
	require.True(t, ok, name)
	return asm
}

func setup(t *testing.T, owner *metadata.Module, opts ...loader.Option) (*loader.Resolver, *host.Runtime, *host.Assembly) {
	t.Helper()
	opts = append([]loader.Option{loader.WithTempRoot(t.TempDir())}, opts...)
	r := loader.New(compress.NewDeflate(), modfile.NewStore(), quietLogger(t), opts...)
	rt := host.New(modfile.NewStore(), host.WithBindings(r.Bindings()))
	asm, err := rt.LoadModule(context.Background(), owner)
	require.NoError(t, err)
	return r, rt, asm
}

func TestResolveAssembly_Managed(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedModule(t, owner, domain.KindManaged, domain.ArchAny, libA())

	r, rt, asm := setup(t, owner)

	name, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA, Version=1.0.0.0")
	require.True(t, ok)
	assert.Equal(t, "LibA", name)

	_, loaded := rt.Loaded("LibA")
	assert.True(t, loaded)

	_, ok = r.ResolveAssembly(context.Background(), rt, asm, "Unknown")
	assert.False(t, ok)
}

func TestResolveAssembly_Mixed(t *testing.T) {
	mixed := libA()
	mixed.Native = []byte("mixed native image")

	owner := metadatatest.NewModule("App")
	embedModule(t, owner, domain.KindMixed, domain.ArchX64, mixed)

	r, rt, asm := setup(t, owner, loader.WithArch(domain.ArchX64))

	name, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA")
	require.True(t, ok)
	assert.Equal(t, "LibA", name)

	path, ok := r.ResolveUnmanaged(asm, "LibA")
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mixed.Native, data)
}

func TestResolveAssembly_MixedWithoutNativeImage(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedModule(t, owner, domain.KindMixed, domain.ArchX64, libA())

	r, rt, asm := setup(t, owner, loader.WithArch(domain.ArchX64))

	name, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA")
	require.True(t, ok)
	assert.Equal(t, "LibA", name)

	out, err := rt.Invoke(context.Background(), mustLoaded(t, rt, "LibA"), "LibA.Greeter::Hello")
	require.NoError(t, err)
	assert.Equal(t, "hello from LibA", out)

	_, ok = r.ResolveUnmanaged(asm, "LibA")
	assert.False(t, ok, "nothing to extract")
}

func TestResolveAssembly_TemporaryAssemblies(t *testing.T) {
	tests := []struct {
		name string
		hook bool
		opts []loader.Option
	}{
		{name: "loader hook option", hook: true},
		{name: "resolver option", opts: []loader.Option{loader.WithTemporaryAssemblies()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := metadatatest.NewModule("App")
			if tt.hook {
				owner.AddType(inject.Loader(domain.BaseLibrary, nil, true))
			}
			embedModule(t, owner, domain.KindManaged, domain.ArchAny, libA())

			r, rt, asm := setup(t, owner, tt.opts...)

			_, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA")
			require.True(t, ok)

			loaded := mustLoaded(t, rt, "LibA")
			require.NotEmpty(t, loaded.Path)
			assert.Equal(t, r.TempDir(), filepath.Dir(filepath.Dir(filepath.Dir(loaded.Path))))
			assert.Equal(t, "liba.wmod", filepath.Base(loaded.Path))
			assert.FileExists(t, loaded.Path)
		})
	}

	t.Run("in memory without the option", func(t *testing.T) {
		owner := metadatatest.NewModule("App")
		owner.AddType(inject.Loader(domain.BaseLibrary, nil, false))
		embedModule(t, owner, domain.KindManaged, domain.ArchAny, libA())

		r, rt, asm := setup(t, owner)

		_, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA")
		require.True(t, ok)
		assert.Empty(t, mustLoaded(t, rt, "LibA").Path)
	})
}

func TestResolve_ExtractionFailureIsAMiss(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("file"), 0o600))

	owner := metadatatest.NewModule("App")
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchAny, Name: "libnative"}, "libnative.dll", []byte("image"))
	embedModule(t, owner, domain.KindManaged, domain.ArchAny, libA())

	r, rt, asm := setup(t, owner, loader.WithTempRoot(blocked), loader.WithTemporaryAssemblies())

	path, ok := r.ResolveUnmanaged(asm, "libnative")
	assert.False(t, ok)
	assert.Empty(t, path)

	_, ok = r.ResolveAssembly(context.Background(), rt, asm, "LibA")
	assert.False(t, ok)
	assert.Empty(t, r.TempDir())
}

func TestResolveAssembly_DecompressionFailureIsAMiss(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedModule(t, owner, domain.KindManaged, domain.ArchAny, libA())

	compressor := mocks.NewMockCompressor(gomock.NewController(t))
	compressor.EXPECT().Decompress(gomock.Any()).Return(nil, assert.AnError)

	r := loader.New(compressor, modfile.NewStore(), quietLogger(t), loader.WithTempRoot(t.TempDir()))
	rt := host.New(modfile.NewStore(), host.WithBindings(r.Bindings()))
	asm, err := rt.LoadModule(context.Background(), owner)
	require.NoError(t, err)

	name, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA")
	assert.False(t, ok)
	assert.Empty(t, name)

	_, loaded := rt.Loaded("LibA")
	assert.False(t, loaded)
}

func TestResolveAssembly_CorruptPayloadIsAMiss(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindMixed, Arch: domain.ArchX64, Name: "liba"}, "liba.wmod", []byte("not a module"))

	r, rt, asm := setup(t, owner, loader.WithArch(domain.ArchX64))

	_, ok := r.ResolveAssembly(context.Background(), rt, asm, "LibA")
	assert.False(t, ok)
}

func TestResolveUnmanaged_ArchDisambiguation(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchX86, Name: "libnative"}, "libnative.dll", []byte("x86 build"))
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchX64, Name: "libnative"}, "libnative.dll", []byte("x64 build"))

	for _, tt := range []struct {
		arch domain.Arch
		want string
	}{
		{arch: domain.ArchX86, want: "x86 build"},
		{arch: domain.ArchX64, want: "x64 build"},
	} {
		t.Run(tt.arch.String(), func(t *testing.T) {
			r, _, asm := setup(t, owner, loader.WithArch(tt.arch))

			path, ok := r.ResolveUnmanaged(asm, "LibNative.dll")
			require.True(t, ok)
			assert.Equal(t, tt.arch.String(), filepath.Base(filepath.Dir(path)))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestResolveUnmanaged_AnyFallbackAndPrefix(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchAny, Name: "libz"}, "libz.so", []byte("zlib"))

	r, _, asm := setup(t, owner, loader.WithArch(domain.ArchX64))

	path, ok := r.ResolveUnmanaged(asm, "z")
	require.True(t, ok)
	assert.Equal(t, "libz.so", filepath.Base(path))

	_, ok = r.ResolveUnmanaged(asm, "missing")
	assert.False(t, ok)
}

func TestResolveUnmanaged_ConcurrentExtraction(t *testing.T) {
	payload := []byte("native x64 image")
	compressed, err := compress.NewDeflate().Compress(payload)
	require.NoError(t, err)

	owner := metadatatest.NewModule("App")
	key := domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchX64, Name: "libnative"}
	require.NoError(t, owner.AddResource(domain.ResourceName(key, "libnative.dll", true), compressed))

	compressor := mocks.NewMockCompressor(gomock.NewController(t))
	compressor.EXPECT().Decompress(compressed).Return(payload, nil).Times(1)

	r := loader.New(compressor, modfile.NewStore(), quietLogger(t),
		loader.WithArch(domain.ArchX64), loader.WithTempRoot(t.TempDir()))
	asm := &host.Assembly{Module: owner}

	const workers = 32
	paths := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], _ = r.ResolveUnmanaged(asm, "LibNative")
		}()
	}
	wg.Wait()

	for _, p := range paths {
		assert.Equal(t, paths[0], p)
	}
	entries, err := os.ReadDir(filepath.Dir(paths[0]))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, filepath.Base(r.TempDir()), "weld-")
}

func TestResolveUnmanaged_ReextractsVanishedFile(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchAny, Name: "libnative"}, "libnative.dll", []byte("image"))

	r, _, asm := setup(t, owner)

	first, ok := r.ResolveUnmanaged(asm, "libnative")
	require.True(t, ok)
	require.NoError(t, os.Remove(first))

	second, ok := r.ResolveUnmanaged(asm, "libnative")
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.FileExists(t, second)
}

func TestBindings_Preload(t *testing.T) {
	owner := metadatatest.NewModule("App")
	embedRaw(t, owner, domain.ResourceKey{Kind: domain.KindNative, Arch: domain.ArchAny, Name: "libnative"}, "libnative.dll", []byte("image"))

	ctrl := gomock.NewController(t)
	nativeLoader := mocks.NewMockNativeLoader(ctrl)
	lib := mocks.NewMockNativeLibrary(ctrl)

	r := loader.New(compress.NewDeflate(), modfile.NewStore(), quietLogger(t), loader.WithTempRoot(t.TempDir()))
	rt := host.New(modfile.NewStore(), host.WithBindings(r.Bindings()), host.WithNativeLoader(nativeLoader))

	// The unmanaged handler is registered by the module initializer in real
	// modules; here it is wired by hand.
	owner.AddType(&metadata.Type{Namespace: domain.LoaderNamespace, Name: domain.LoaderTypeName, Methods: []*metadata.Method{
		{Name: domain.ResolveUnmanagedMethod, Flags: metadata.MethodStatic | metadata.MethodInternalCall, Params: 1},
		{Name: domain.PreloadMethod, Flags: metadata.MethodStatic | metadata.MethodInternalCall, Params: 1},
		{Name: "Attach", Flags: metadata.MethodStatic, Body: []metadata.Instruction{
			{Op: metadata.OpLdFtn, Member: &metadata.MemberRef{
				Type: metadata.TypeRef{Namespace: domain.LoaderNamespace, Name: domain.LoaderTypeName},
				Name: domain.ResolveUnmanagedMethod,
			}},
			{Op: metadata.OpCall, Member: &metadata.MemberRef{
				Type: metadata.TypeRef{Scope: domain.BaseLibrary, Namespace: "System.Runtime.Loader", Name: "AssemblyLoadContext"},
				Name: "add_ResolvingUnmanagedDll",
			}},
			{Op: metadata.OpLdStr, Str: "libnative"},
			{Op: metadata.OpCall, Member: &metadata.MemberRef{
				Type: metadata.TypeRef{Namespace: domain.LoaderNamespace, Name: domain.LoaderTypeName},
				Name: domain.PreloadMethod,
			}},
			{Op: metadata.OpRet},
		}},
	}})
	owner.Initializer().Body = []metadata.Instruction{
		{Op: metadata.OpCall, Member: &metadata.MemberRef{
			Type: metadata.TypeRef{Namespace: domain.LoaderNamespace, Name: domain.LoaderTypeName},
			Name: "Attach",
		}},
		{Op: metadata.OpRet},
	}

	nativeLoader.EXPECT().Open(gomock.Any()).DoAndReturn(func(path string) (ports.NativeLibrary, error) {
		assert.FileExists(t, path)
		return lib, nil
	})

	_, err := rt.LoadModule(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.UnmanagedHandlerCount())
}
