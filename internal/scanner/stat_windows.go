//go:build windows

package scanner

import "os"

// fileKey is unavailable on Windows, so hardlinks are counted once per name.
func fileKey(info os.FileInfo) (key inodeKey, nlink uint64, ok bool) {
	return inodeKey{}, 0, false
}
