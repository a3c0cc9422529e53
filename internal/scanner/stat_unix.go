//go:build !windows

package scanner

import (
	"os"
	"syscall"
)

// fileKey identifies a file by device and inode. nlink > 1 means other
// names may refer to the same data.
func fileKey(info os.FileInfo) (key inodeKey, nlink uint64, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return inodeKey{}, 0, false
	}
	return inodeKey{dev: uint64(stat.Dev), ino: stat.Ino}, uint64(stat.Nlink), true
}
