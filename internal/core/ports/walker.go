package ports

import "iter"

// Walker enumerates files below a directory.
type Walker interface {
	// WalkFiles yields the paths of regular files below root, skipping
	// VCS metadata and any directory named in ignores.
	WalkFiles(root string, ignores []string) iter.Seq[string]
}
