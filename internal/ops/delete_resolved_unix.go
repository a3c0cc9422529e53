//go:build !windows

package ops

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// deleteResolvedPath removes baseName inside the already resolved directory
// parentPath. Every step below works on directory descriptors, so a path
// component swapped for a symlink mid-delete cannot redirect it.
func deleteResolvedPath(parentPath, baseName string) error {
	parentFD, err := unix.Open(parentPath, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(parentFD)

	return deleteAt(parentFD, baseName)
}

func mapNotExist(err error) error {
	if errors.Is(err, unix.ENOENT) {
		return fs.ErrNotExist
	}
	return err
}

// deleteAt removes name relative to parentFD without following symlinks.
func deleteAt(parentFD int, name string) error {
	err := unix.Unlinkat(parentFD, name, 0)
	if err == nil {
		return nil
	}
	// Linux reports EISDIR for directories, Darwin reports EPERM.
	if !errors.Is(err, unix.EISDIR) && !errors.Is(err, unix.EPERM) {
		return mapNotExist(err)
	}

	childFD, err := unix.Openat(parentFD, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		// Not a directory after all (or it changed type): unlink once more.
		if errors.Is(err, unix.ENOTDIR) {
			return mapNotExist(unix.Unlinkat(parentFD, name, 0))
		}
		return mapNotExist(err)
	}

	childDir := os.NewFile(uintptr(childFD), name)
	entries, err := childDir.ReadDir(-1)
	if err == nil {
		for _, entry := range entries {
			if err = deleteAt(childFD, entry.Name()); err != nil {
				break
			}
		}
	}
	if closeErr := childDir.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	return mapNotExist(unix.Unlinkat(parentFD, name, unix.AT_REMOVEDIR))
}
