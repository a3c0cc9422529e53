//go:build windows

package ops

import (
	"os"
	"path/filepath"
)

// deleteResolvedPath removes baseName inside parentPath. Windows has no
// openat, so this falls back to path-based removal.
func deleteResolvedPath(parentPath, baseName string) error {
	target := filepath.Join(parentPath, baseName)
	info, err := os.Lstat(target)
	switch {
	case err != nil:
		return err
	case info.IsDir():
		return os.RemoveAll(target)
	default:
		return os.Remove(target)
	}
}
