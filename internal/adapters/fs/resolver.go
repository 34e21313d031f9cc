package fs

import (
	"errors"
	"path/filepath"
	"sort"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ReferenceResolver = (*Resolver)(nil)

// Resolver implements ports.ReferenceResolver using filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveReferences resolves the given patterns to a sorted list of file paths.
func (r *Resolver) ResolveReferences(patterns []string, root string) ([]string, error) {
	unique := make(map[string]bool)

	for _, pattern := range patterns {
		path := pattern
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, pattern)
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, zerr.With(errors.Join(domain.ErrInvalidPattern, err), "pattern", pattern)
		}
		if len(matches) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrReferenceNotFound, "no file matches reference"), "path", path)
		}

		for _, match := range matches {
			unique[filepath.Clean(match)] = true
		}
	}

	result := make([]string, 0, len(unique))
	for path := range unique {
		result = append(result, path)
	}
	sort.Strings(result)

	return result, nil
}
