// Package cas implements a content addressable staging store for resource payloads.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	indexFile  = "index.json"
	objectsDir = "objects"
)

var _ ports.StagingStore = (*Store)(nil)

// Entry describes one staged object.
type Entry struct {
	Size     int       `json:"size"`
	StagedAt time.Time `json:"stagedAt"`
}

// Store implements ports.StagingStore with one file per object and a JSON index.
type Store struct {
	dir    string
	hasher ports.Hasher
	mu     sync.RWMutex
	index  map[string]Entry
}

// NewStore opens the staging store rooted at dir, loading an existing index.
func NewStore(dir string, hasher ports.Hasher) (*Store, error) {
	s := &Store{
		dir:    filepath.Clean(dir),
		hasher: hasher,
		index:  make(map[string]Entry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", s.dir)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.index); err != nil {
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", s.dir)
	}

	return nil
}

// save writes the index. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal staging index")
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", s.dir)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o644); err != nil {
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", s.dir)
	}

	return nil
}

func (s *Store) objectPath(key string) string {
	return filepath.Join(s.dir, objectsDir, key)
}

// Put stores data under its content hash and returns the hash.
func (s *Store) Put(data []byte) (string, error) {
	key := s.hasher.Hash(data)
	path := s.objectPath(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; ok {
		if _, err := os.Stat(path); err == nil {
			return key, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // Staged payloads are not secret
		return "", zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", path)
	}

	s.index[key] = Entry{Size: len(data), StagedAt: time.Now().UTC()}
	if err := s.save(); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the object stored under key, verifying its content hash.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	_, ok := s.index[key]
	s.mu.RUnlock()
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrStagingFailed, "unknown staged object"), "key", key)
	}

	path := s.objectPath(key)
	data, err := os.ReadFile(path) //nolint:gosec // Key is a hash produced by Put
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", path)
	}
	if got := s.hasher.Hash(data); got != key {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrStagingFailed, "staged object changed"), "key", key), "actual", got)
	}
	return data, nil
}

// Remove deletes the object stored under key. Removing an unknown key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; !ok {
		return nil
	}
	path := s.objectPath(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(errors.Join(domain.ErrStagingFailed, err), "path", path)
	}
	delete(s.index, key)
	return s.save()
}

// Entries returns a copy of the index.
func (s *Store) Entries() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Entry, len(s.index))
	for k, v := range s.index {
		out[k] = v
	}
	return out
}
