package inject_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/metadata/metadatatest"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.trai.ch/weld/internal/engine/inject"
	"go.uber.org/mock/gomock"
)

func newInjector(t *testing.T) *inject.Injector {
	t.Helper()
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	return inject.New(logger)
}

func attachCalls(m *metadata.Module) int {
	n := 0
	for _, ins := range m.Initializer().Body {
		if ins.Op == metadata.OpCall && ins.Member != nil && ins.Member.Name == domain.AttachMethod {
			n++
		}
	}
	return n
}

func loaderTypes(m *metadata.Module) int {
	n := 0
	for _, t := range m.Types {
		if inject.IsGenerated(t) {
			n++
		}
	}
	return n
}

func TestInject_Fresh(t *testing.T) {
	m := metadatatest.NewModule("App")
	m.Initializer().Body = []metadata.Instruction{
		{Op: metadata.OpLdStr, Str: "user code"},
		{Op: metadata.OpRet},
	}

	res, err := newInjector(t).Inject(m, inject.Options{Preload: []string{"LibNative"}})
	require.NoError(t, err)

	assert.True(t, res.Added)
	assert.True(t, res.Changed())
	require.NoError(t, metadata.Verify(m))

	body := m.Initializer().Body
	require.Len(t, body, 3)
	assert.Equal(t, inject.AttachCall(), body[0])
	assert.Equal(t, "user code", body[1].Str)

	loader := m.FindType(domain.LoaderNamespace, domain.LoaderTypeName)
	require.NotNil(t, loader)
	assert.Equal(t, domain.HookVersion, inject.HookVersion(loader))
	assert.True(t, loader.Method(domain.ResolveAssemblyMethod).IsInternalCall())

	attach := loader.Method(domain.AttachMethod).Body
	assert.Equal(t, metadata.OpLdStr, attach[0].Op)
	assert.Equal(t, "LibNative", attach[0].Str)
	assert.Equal(t, domain.PreloadMethod, attach[1].Member.Name)
}

func TestInject_Idempotent(t *testing.T) {
	m := metadatatest.NewModule("App")
	inj := newInjector(t)

	_, err := inj.Inject(m, inject.Options{})
	require.NoError(t, err)
	loader := m.FindType(domain.LoaderNamespace, domain.LoaderTypeName)

	res, err := inj.Inject(m, inject.Options{})
	require.NoError(t, err)

	assert.False(t, res.Changed())
	assert.Same(t, loader, m.FindType(domain.LoaderNamespace, domain.LoaderTypeName))
	assert.Equal(t, 1, loaderTypes(m))
	assert.Equal(t, 1, attachCalls(m))
	assert.Equal(t, 1, m.ReferenceCount(domain.BaseLibrary))
}

func TestInject_TemporaryAssembliesOption(t *testing.T) {
	hasOption := func(m *metadata.Module) bool {
		loader := m.FindType(domain.LoaderNamespace, domain.LoaderTypeName)
		require.NotNil(t, loader)
		for _, a := range loader.Attributes {
			if a.Type.Name == domain.OptionAttributeName && len(a.Args) == 2 &&
				a.Args[0] == domain.TemporaryAssembliesOption && a.Args[1] == "true" {
				return true
			}
		}
		return false
	}

	m := metadatatest.NewModule("App")
	inj := newInjector(t)

	_, err := inj.Inject(m, inject.Options{TemporaryAssemblies: true})
	require.NoError(t, err)
	require.NoError(t, metadata.Verify(m))
	assert.True(t, hasOption(m))

	res, err := inj.Inject(m, inject.Options{})
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Empty(t, res.Removed)
	assert.False(t, hasOption(m))
	assert.Equal(t, 1, loaderTypes(m))
	assert.Equal(t, 1, attachCalls(m))
}

func TestInject_ReplacesStaleLoaders(t *testing.T) {
	m := metadatatest.NewModule("App")
	inj := newInjector(t)

	_, err := inj.Inject(m, inject.Options{})
	require.NoError(t, err)

	// An older hook version under the canonical name plus a leftover under another name.
	old := m.FindType(domain.LoaderNamespace, domain.LoaderTypeName)
	old.Attributes[1].Args[1] = "0"
	legacy := inject.Loader(domain.BaseLibrary, nil, false)
	legacy.Name = "LegacyLoader"
	m.AddType(legacy)
	init := m.Initializer()
	init.Body = append([]metadata.Instruction{{
		Op: metadata.OpCall,
		Member: &metadata.MemberRef{
			Type: metadata.TypeRef{Namespace: domain.LoaderNamespace, Name: "LegacyLoader"},
			Name: domain.AttachMethod,
		},
	}}, init.Body...)

	res, err := inj.Inject(m, inject.Options{})
	require.NoError(t, err)

	assert.True(t, res.Added)
	assert.Equal(t, []string{"Weld.LegacyLoader"}, res.Removed)
	assert.Equal(t, 1, res.RemovedCalls)
	assert.Equal(t, 1, loaderTypes(m))
	assert.Equal(t, 1, attachCalls(m))
	assert.Equal(t, domain.HookVersion, inject.HookVersion(m.FindType(domain.LoaderNamespace, domain.LoaderTypeName)))
	require.NoError(t, metadata.Verify(m))
}

func TestInject_BaseReference(t *testing.T) {
	t.Run("duplicates are merged", func(t *testing.T) {
		m := metadatatest.NewModule("App")
		m.References = append(m.References, &metadata.Reference{Name: "CorLib", Version: "4.5.0.0"})

		res, err := newInjector(t).Inject(m, inject.Options{})
		require.NoError(t, err)

		assert.Equal(t, 1, res.MergedReferences)
		assert.Equal(t, 1, m.ReferenceCount(domain.BaseLibrary))
		assert.Equal(t, "4.5.0.0", m.Reference(domain.BaseLibrary).Version)
		require.NoError(t, metadata.Verify(m))
	})

	t.Run("missing reference is resolved", func(t *testing.T) {
		m := metadatatest.NewModule("App")
		m.References = nil

		resolver := mocks.NewMockMetadataResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(domain.BaseLibrary).Return(metadatatest.Corlib(), nil)

		res, err := newInjector(t).Inject(m, inject.Options{Resolver: resolver})
		require.NoError(t, err)

		assert.True(t, res.ImportedBase)
		assert.Equal(t, 1, m.ReferenceCount(domain.BaseLibrary))
		require.NoError(t, metadata.Verify(m))
	})

	t.Run("unresolvable", func(t *testing.T) {
		m := metadatatest.NewModule("App")
		m.References = nil

		resolver := mocks.NewMockMetadataResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(domain.BaseLibrary).Return(nil, errors.Join(domain.ErrMetadataNotFound, errors.New("corlib")))

		_, err := newInjector(t).Inject(m, inject.Options{Resolver: resolver})
		require.ErrorIs(t, err, domain.ErrBaseLibraryUnresolved)
		require.ErrorIs(t, err, domain.ErrMetadataNotFound)
		assert.Nil(t, m.FindType(domain.LoaderNamespace, domain.LoaderTypeName))
	})
}
