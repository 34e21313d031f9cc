package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.MetadataResolver = (*ModuleResolver)(nil)

// ModuleResolver resolves module names to .wmod files in a list of directories.
// Directories are searched in order; the first match wins.
type ModuleResolver struct {
	store ports.ModuleStore
	dirs  []string
}

// NewModuleResolver creates a resolver that reads modules with store.
func NewModuleResolver(store ports.ModuleStore, dirs ...string) *ModuleResolver {
	return &ModuleResolver{store: store, dirs: dirs}
}

// Resolve returns the module called name.
func (r *ModuleResolver) Resolve(name string) (*metadata.Module, error) {
	candidates := []string{name + domain.ModuleExt}
	if lower := strings.ToLower(name) + domain.ModuleExt; lower != candidates[0] {
		candidates = append(candidates, lower)
	}

	for _, dir := range r.dirs {
		for _, file := range candidates {
			path := filepath.Join(dir, file)
			if _, err := os.Stat(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, zerr.With(zerr.Wrap(err, "failed to stat module"), "path", path)
			}
			return r.store.Read(path)
		}
	}

	return nil, zerr.With(zerr.Wrap(domain.ErrMetadataNotFound, "module not found in search paths"), "name", name)
}

// Chain tries each resolver in turn and returns the first module found.
// Errors other than domain.ErrMetadataNotFound stop the search.
type Chain []ports.MetadataResolver

// Resolve implements ports.MetadataResolver.
func (c Chain) Resolve(name string) (*metadata.Module, error) {
	for _, r := range c {
		m, err := r.Resolve(name)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrMetadataNotFound) {
			return nil, err
		}
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrMetadataNotFound, "no resolver knows module"), "name", name)
}
