package scanner

import (
	"context"
	"fmt"
	"os"

	"github.com/sadopc/birdseye/internal/model"
)

// Entry is one enumerated file or directory.
type Entry = model.Entry

// Sink receives enumeration output. An enumerator never calls a Sink from
// more than one goroutine at a time.
type Sink interface {
	// Entry records a file or directory.
	Entry(e Entry)
	// Skip records an entry that could not be read. The scan continues.
	Skip(path string, err error)
}

// Enumerator walks a subtree and feeds every entry to sink. It returns a
// *RootError when the root itself cannot be read and ctx.Err() when
// cancelled; per-entry failures go to Sink.Skip.
type Enumerator interface {
	Enumerate(ctx context.Context, root string, sink Sink) error
}

// Options configures the live filesystem walk.
type Options struct {
	// ShowHidden includes entries whose name starts with a dot.
	ShowHidden bool
	// FollowSymlinks descends into symlinked directories and sizes link targets.
	FollowSymlinks bool
	// Exclude lists entry names to skip.
	Exclude []string
	// Concurrency bounds parallel directory reads (0 = auto).
	Concurrency int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{ShowHidden: true}
}

// RootError reports a scan root that does not exist or cannot be read.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

// Dispatch picks the enumerator for a local root: directories are walked,
// anything else is opened as an archive.
func Dispatch(root string, opts Options) Enumerator {
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		return NewFSEnumerator(opts)
	}
	return ArchiveEnumerator{}
}
