package ports

import "go.trai.ch/weld/internal/core/metadata"

// ModuleStore reads and writes managed modules.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ModuleStore interface {
	// Read loads the module stored at path.
	Read(path string) (*metadata.Module, error)
	// Write stores m at path, replacing any existing file atomically.
	Write(path string, m *metadata.Module) error
	// Decode parses a module held in memory.
	Decode(data []byte) (*metadata.Module, error)
	// Encode serializes m.
	Encode(m *metadata.Module) ([]byte, error)
}

// StagingStore holds intermediate resource payloads keyed by content hash.
type StagingStore interface {
	// Put stores data and returns its key.
	Put(data []byte) (string, error)
	// Get returns the data stored under key.
	Get(key string) ([]byte, error)
	// Remove deletes the entry stored under key.
	Remove(key string) error
}

// StagingOpener opens the staging store rooted at dir.
type StagingOpener func(dir string) (StagingStore, error)
