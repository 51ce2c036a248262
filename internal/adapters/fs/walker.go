// Package fs provides file system adapters for enumerating, hashing and locking mod artifacts.
package fs

import (
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/modman/internal/core/domain"
)

// Walker enumerates artifact files in a mods directory.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Artifacts yields the names of regular *.jar files directly inside dir, in name order.
// Subdirectories, hidden files and in-flight downloads are skipped.
func (w *Walker) Artifacts(dir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			yield("", err)
			return
		}

		for _, e := range entries {
			if !w.isArtifact(e) {
				continue
			}
			if !yield(e.Name(), nil) {
				return
			}
		}
	}
}

func (w *Walker) isArtifact(e os.DirEntry) bool {
	name := e.Name()
	if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), domain.ArtifactExt)
}
