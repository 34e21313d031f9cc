package cas_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/cas"
	"go.trai.ch/weld/internal/adapters/fs"
	"go.trai.ch/weld/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), ".weld"), fs.NewHasher())
	require.NoError(t, err)

	key, err := store.Put([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, fs.NewHasher().Hash([]byte("payload")), key)

	again, err := store.Put([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, key, again)

	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
	assert.Equal(t, 7, store.Entries()[key].Size)
}

func TestStore_Persistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".weld")

	first, err := cas.NewStore(dir, fs.NewHasher())
	require.NoError(t, err)
	key, err := first.Put([]byte("persisted"))
	require.NoError(t, err)

	second, err := cas.NewStore(dir, fs.NewHasher())
	require.NoError(t, err)
	got, err := second.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	store, err := cas.NewStore(dir, fs.NewHasher())
	require.NoError(t, err)

	key, err := store.Put([]byte("gone soon"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(key))
	require.NoError(t, store.Remove(key))

	_, err = store.Get(key)
	assert.True(t, errors.Is(err, domain.ErrStagingFailed))
	_, statErr := os.Stat(filepath.Join(dir, "objects", key))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	store, err := cas.NewStore(dir, fs.NewHasher())
	require.NoError(t, err)

	key, err := store.Put([]byte("original"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "objects", key), []byte("changed"), 0o600))

	_, err = store.Get(key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStagingFailed))
}

func TestNewStore_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o600))

	_, err := cas.NewStore(dir, fs.NewHasher())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStagingFailed))
}
