package fs_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/fs"
	"go.trai.ch/weld/internal/adapters/modfile"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/metadata/metadatatest"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestModuleResolver_Resolve(t *testing.T) {
	store := modfile.NewStore()
	first, second := t.TempDir(), t.TempDir()

	require.NoError(t, store.Write(filepath.Join(second, "corlib.wmod"), metadatatest.Corlib()))
	shadow := metadatatest.Corlib()
	shadow.Version = "9.0.0.0"
	require.NoError(t, store.Write(filepath.Join(first, "corlib.wmod"), shadow))

	resolver := fs.NewModuleResolver(store, filepath.Join(first, "missing"), first, second)

	m, err := resolver.Resolve("CorLib")
	require.NoError(t, err)
	assert.Equal(t, "9.0.0.0", m.Version, "first directory wins")

	_, err = resolver.Resolve("unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMetadataNotFound))
}

func TestChain_Resolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockMetadataResolver(ctrl)
	second := mocks.NewMockMetadataResolver(ctrl)
	want := &metadata.Module{Name: "corlib"}

	first.EXPECT().Resolve("corlib").Return(nil, domain.ErrMetadataNotFound)
	second.EXPECT().Resolve("corlib").Return(want, nil)

	got, err := fs.Chain{first, second}.Resolve("corlib")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestChain_StopsOnHardError(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockMetadataResolver(ctrl)
	second := mocks.NewMockMetadataResolver(ctrl)
	boom := errors.New("disk on fire")

	first.EXPECT().Resolve("corlib").Return(nil, boom)

	_, err := fs.Chain{first, second}.Resolve("corlib")
	assert.ErrorIs(t, err, boom)

	_, err = fs.Chain{}.Resolve("corlib")
	assert.ErrorIs(t, err, domain.ErrMetadataNotFound)
}
