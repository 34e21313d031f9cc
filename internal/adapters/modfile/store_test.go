package modfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/modfile"
	"go.trai.ch/weld/internal/core/domain"
)

func TestStore_WriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "app.wmod")
	store := modfile.NewStore()

	m := sampleModule()
	require.NoError(t, store.Write(path, m))

	got, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestStore_WriteReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.wmod")
	store := modfile.NewStore()

	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))
	require.NoError(t, store.Write(path, sampleModule()))

	got, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "App", got.Name)
}

func TestStore_ReadErrors(t *testing.T) {
	dir := t.TempDir()
	store := modfile.NewStore()

	_, err := store.Read(filepath.Join(dir, "missing.wmod"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	native := filepath.Join(dir, "native.so")
	require.NoError(t, os.WriteFile(native, []byte("\x7fELF\x02\x01\x01"), 0o600))
	_, err = store.Read(native)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAModule))
}
