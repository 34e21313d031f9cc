package modfile

import (
	"os"
	"path/filepath"

	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ModuleStore = (*Store)(nil)

// Store implements ports.ModuleStore on the local file system.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Read loads the module stored at path.
func (s *Store) Read(path string) (*metadata.Module, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by trusted caller
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read module"), "path", path)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

// Write encodes m and replaces path with it. The data goes to a temporary file
// in the same directory first, so readers never observe a partial module.
func (s *Store) Write(path string, m *metadata.Module) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temporary file"), "path", dir)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to write module"), "path", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to sync module"), "path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close module"), "path", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // Modules are world readable
		return zerr.With(zerr.Wrap(err, "failed to set module permissions"), "path", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace module"), "path", path)
	}
	committed = true
	return nil
}

// Decode parses a module held in memory.
func (s *Store) Decode(data []byte) (*metadata.Module, error) {
	return Decode(data)
}

// Encode serializes m.
func (s *Store) Encode(m *metadata.Module) ([]byte, error) {
	return Encode(m)
}
