package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/fs"
)

func TestWalker_WalkFiles(t *testing.T) {
	// tmp/
	//   .git/config
	//   .weld/staged
	//   ignored/file
	//   bin/liba.wmod
	//   bin/libnative.so
	//   bin/app.wmod.123.tmp
	tmpDir := t.TempDir()
	for _, dir := range []string{".git", ".weld", "ignored", "bin"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, dir), 0o750))
	}
	for _, file := range []string{
		".git/config", ".weld/staged", "ignored/file",
		"bin/liba.wmod", "bin/libnative.so", "bin/app.wmod.123.tmp",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, file), []byte("x"), 0o600))
	}

	var files []string
	for path := range fs.NewWalker().WalkFiles(tmpDir, []string{"ignored"}) {
		rel, err := filepath.Rel(tmpDir, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{"bin/liba.wmod", "bin/libnative.so"}, files)
}

func TestWalker_StopsEarly(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o600))
	}

	count := 0
	for range fs.NewWalker().WalkFiles(tmpDir, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestHasher(t *testing.T) {
	hasher := fs.NewHasher()
	path := filepath.Join(t.TempDir(), "file")
	content := []byte("hello world")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	fromFile, err := hasher.HashFile(path)
	require.NoError(t, err)

	assert.Len(t, fromFile, 16)
	assert.Equal(t, hasher.Hash(content), fromFile)
	assert.NotEqual(t, hasher.Hash([]byte("hello world!")), fromFile)

	_, err = hasher.HashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
