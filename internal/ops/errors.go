package ops

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrOutsideRoot is returned for targets that are not strictly inside the
// scan root.
var ErrOutsideRoot = errors.New("path is outside the scan root")

// Reason categorizes why a deletion failed.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonPermissionDenied
	ReasonFileInUse
	ReasonNotFound
	ReasonOutsideRoot
)

func (r Reason) String() string {
	switch r {
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonFileInUse:
		return "file is in use"
	case ReasonNotFound:
		return "already gone"
	case ReasonOutsideRoot:
		return "outside scan root"
	default:
		return "unknown error"
	}
}

// DeletionError describes a failed physical delete. Nothing is retried.
type DeletionError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// categorize wraps err in a DeletionError with its Reason filled in.
func categorize(path string, err error) *DeletionError {
	de := &DeletionError{Path: path, Reason: ReasonUnknown, Err: err}
	var errno syscall.Errno
	switch {
	case errors.Is(err, ErrOutsideRoot):
		de.Reason = ReasonOutsideRoot
	case errors.Is(err, fs.ErrNotExist):
		de.Reason = ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		de.Reason = ReasonPermissionDenied
	case errors.As(err, &errno):
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			de.Reason = ReasonPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			de.Reason = ReasonFileInUse
		case syscall.ENOENT:
			de.Reason = ReasonNotFound
		}
	}
	return de
}
