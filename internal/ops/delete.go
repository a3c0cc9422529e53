package ops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Delete removes a file or, recursively, a directory. rootPath constrains
// deletion to strict descendants of the scan root; a parent directory that
// resolves outside the root through a symlink is refused. Symlinks are
// removed, never followed. Failures are returned as *DeletionError.
func Delete(path string, rootPath string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return categorize(path, fmt.Errorf("cannot resolve path: %w", err))
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return categorize(path, fmt.Errorf("cannot resolve root %s: %w", rootPath, err))
	}
	if !strictlyWithin(absRoot, absPath) {
		return categorize(absPath, ErrOutsideRoot)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return categorize(absPath, err)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(absPath))
	if err != nil {
		return categorize(absPath, err)
	}
	if parent != realRoot && !strictlyWithin(realRoot, parent) {
		return categorize(absPath, ErrOutsideRoot)
	}

	if err := deleteResolvedPath(parent, filepath.Base(absPath)); err != nil {
		return categorize(absPath, err)
	}
	return nil
}

// strictlyWithin reports whether target is below root and not root itself.
func strictlyWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Remover performs physical deletes for the engine.
type Remover struct{}

// Delete removes path, which must lie inside root.
func (Remover) Delete(path, root string) error { return Delete(path, root) }
