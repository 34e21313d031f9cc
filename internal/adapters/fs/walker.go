// Package fs provides file system adapters for finding, hashing and resolving
// module dependencies.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"go.trai.ch/weld/internal/core/ports"
)

var _ ports.Walker = (*Walker)(nil)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the regular files below root in lexical order. VCS metadata,
// weld staging directories, temporary files and anything matching ignores are skipped.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if skip, action := w.skip(path != root, d, ignores); skip {
				return action
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// skip reports whether the entry is excluded and what WalkDir should do about it.
func (w *Walker) skip(nested bool, d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() {
		switch name {
		case ".git", ".jj", ".weld":
			return nested, filepath.SkipDir
		}
	} else if strings.HasSuffix(name, ".tmp") {
		return true, nil
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return nested, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
