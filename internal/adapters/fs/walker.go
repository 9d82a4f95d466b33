// Package fs provides file system adapters for reading, globbing and writing manifests.
package fs

import (
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
)

// skippedDirs are never descended into while walking.
var skippedDirs = []string{".git", "node_modules"}

// Walker provides file walking functionality.
type Walker struct {
	fs afero.Fs
}

// NewWalker creates a new Walker on fs.
func NewWalker(fs afero.Fs) *Walker {
	return &Walker{fs: fs}
}

// WalkFiles yields all files below root, skipping version control and
// installed package directories. Paths start with root.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable entries are not matches.
			}

			if info.IsDir() {
				if path != root && slices.Contains(skippedDirs, info.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
