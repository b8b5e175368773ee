// Package fs provides file system adapters for enumerating candidate binaries.
package fs

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/chainload/internal/core/ports"
)

var _ ports.BinaryWalker = (*Walker)(nil)

// alwaysSkipped are directory names never descended into.
var alwaysSkipped = []string{".git", ".jj", ".chainload"}

// Walker yields files whose base name matches one of its patterns.
type Walker struct {
	patterns []string
	ignores  []string
}

// NewWalker creates a Walker. Patterns and ignores are filepath.Match globs applied to
// base names; ignores apply to directories only.
func NewWalker(patterns, ignores []string) *Walker {
	return &Walker{
		patterns: slices.Clone(patterns),
		ignores:  slices.Clone(ignores),
	}
}

// Walk yields every matching file under root. Unreadable subdirectories are skipped and a
// missing root yields nothing.
func (w *Walker) Walk(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && w.skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !w.matches(d.Name()) || !isRegular(path, d) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) skipDir(name string) bool {
	if slices.Contains(alwaysSkipped, name) {
		return true
	}
	for _, ignore := range w.ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}

func (w *Walker) matches(name string) bool {
	for _, pattern := range w.patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// isRegular accepts regular files and symlinks that resolve to regular files.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
