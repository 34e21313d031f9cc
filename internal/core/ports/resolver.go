package ports

import "go.trai.ch/weld/internal/core/metadata"

// MetadataResolver resolves module names to their metadata.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type MetadataResolver interface {
	// Resolve returns the module called name, or an error wrapping
	// domain.ErrMetadataNotFound.
	Resolve(name string) (*metadata.Module, error)
}

// ReferenceResolver expands reference patterns to concrete files.
type ReferenceResolver interface {
	// ResolveReferences resolves glob patterns relative to root to a sorted,
	// de-duplicated list of file paths. A pattern matching nothing is an error
	// wrapping domain.ErrReferenceNotFound.
	ResolveReferences(patterns []string, root string) ([]string, error)
}
