package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// inodeKey uniquely identifies a file across filesystems using both device and
// inode number. Using inode alone can cause false dedup on cross-filesystem scans.
type inodeKey struct {
	dev uint64
	ino uint64
}

// FSEnumerator walks a live directory tree with bounded parallel reads.
type FSEnumerator struct {
	opts Options
}

// NewFSEnumerator creates a filesystem enumerator.
func NewFSEnumerator(opts Options) *FSEnumerator {
	return &FSEnumerator{opts: opts}
}

type item struct {
	entry Entry
	path  string
	err   error
}

type walker struct {
	ctx      context.Context
	opts     Options
	scanRoot string
	exclude  map[string]bool
	g        errgroup.Group
	out      chan item

	inodeMu sync.Mutex
	inodes  map[inodeKey]bool
	visited sync.Map
}

// Enumerate walks root. Paths are reported under root as given (made
// absolute), even when root itself is reached through a symlink.
func (e *FSEnumerator) Enumerate(ctx context.Context, root string, sink Sink) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return &RootError{Path: root, Err: err}
	}
	// Use Stat (not Lstat) so symlinked roots like /tmp -> /private/tmp work.
	info, err := os.Stat(absRoot)
	if err != nil {
		return &RootError{Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return &RootError{Path: absRoot, Err: errors.New("not a directory")}
	}
	scanRoot := absRoot
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		scanRoot = resolved
	}
	entries, err := os.ReadDir(scanRoot)
	if err != nil {
		return &RootError{Path: absRoot, Err: err}
	}

	concurrency := e.opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0) * 3
	}

	w := &walker{
		ctx:      ctx,
		opts:     e.opts,
		scanRoot: scanRoot,
		exclude:  make(map[string]bool, len(e.opts.Exclude)),
		out:      make(chan item, 256),
		inodes:   make(map[inodeKey]bool),
	}
	for _, name := range e.opts.Exclude {
		w.exclude[name] = true
	}
	w.g.SetLimit(concurrency)
	w.visited.Store(scanRoot, true)

	go func() {
		if w.send(item{entry: Entry{Path: absRoot, IsDir: true, Modified: info.ModTime(), ModifiedKnown: true}}) {
			w.walkEntries(scanRoot, absRoot, entries)
		}
		_ = w.g.Wait()
		close(w.out)
	}()

	// All sink calls happen here, on the caller's goroutine.
	for it := range w.out {
		if it.err != nil {
			sink.Skip(it.path, it.err)
			continue
		}
		sink.Entry(it.entry)
	}
	return ctx.Err()
}

func (w *walker) send(it item) bool {
	select {
	case w.out <- it:
		return true
	case <-w.ctx.Done():
		return false
	}
}

// spawn walks a subdirectory on a pool goroutine, or inline when the pool
// is saturated so no goroutine ever blocks waiting for a slot.
func (w *walker) spawn(fsPath, logical string) {
	if !w.g.TryGo(func() error {
		w.walk(fsPath, logical)
		return nil
	}) {
		w.walk(fsPath, logical)
	}
}

func (w *walker) walk(fsPath, logical string) {
	if w.ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		w.send(item{path: logical, err: err})
		return
	}
	w.walkEntries(fsPath, logical, entries)
}

func (w *walker) walkEntries(fsPath, logical string, entries []os.DirEntry) {
	for _, entry := range entries {
		if w.ctx.Err() != nil {
			return
		}

		name := entry.Name()
		if !w.opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if w.exclude[name] {
			continue
		}

		fullPath := filepath.Join(fsPath, name)
		logicalPath := filepath.Join(logical, name)

		switch {
		case entry.IsDir():
			scanPath := fullPath
			if resolved, err := filepath.EvalSymlinks(fullPath); err == nil {
				scanPath = resolved
			}
			dir := Entry{Path: logicalPath, IsDir: true}
			if info, err := entry.Info(); err == nil {
				dir.Modified, dir.ModifiedKnown = info.ModTime(), true
			}
			if !w.send(item{entry: dir}) {
				return
			}
			// Reached through another path already: keep the node, skip the
			// walk so sizes are not counted twice.
			if _, loaded := w.visited.LoadOrStore(scanPath, true); loaded {
				continue
			}
			w.spawn(scanPath, logicalPath)

		case entry.Type()&os.ModeSymlink != 0 && w.opts.FollowSymlinks:
			resolved, err := filepath.EvalSymlinks(fullPath)
			if err != nil {
				w.send(item{path: logicalPath, err: err})
				continue
			}
			target, err := os.Stat(resolved)
			if err != nil {
				w.send(item{path: logicalPath, err: err})
				continue
			}
			if !target.IsDir() {
				if !w.send(item{entry: w.fileEntry(logicalPath, target)}) {
					return
				}
				continue
			}
			if !w.send(item{entry: Entry{Path: logicalPath, IsDir: true, Modified: target.ModTime(), ModifiedKnown: true}}) {
				return
			}
			// Targets inside the root are walked through their canonical path.
			if isWithin(w.scanRoot, resolved) {
				continue
			}
			if _, loaded := w.visited.LoadOrStore(resolved, true); loaded {
				continue
			}
			w.spawn(resolved, logicalPath)

		default:
			info, err := entry.Info()
			if err != nil {
				w.send(item{path: logicalPath, err: err})
				continue
			}
			if !w.send(item{entry: w.fileEntry(logicalPath, info)}) {
				return
			}
		}
	}
}

// fileEntry builds a file entry, reporting size 0 for every name after the
// first that refers to already counted data.
func (w *walker) fileEntry(path string, info os.FileInfo) Entry {
	e := Entry{
		Path:          path,
		Size:          info.Size(),
		Modified:      info.ModTime(),
		ModifiedKnown: !info.ModTime().IsZero(),
	}
	key, nlink, ok := fileKey(info)
	if !ok || (nlink <= 1 && !w.opts.FollowSymlinks) {
		return e
	}
	w.inodeMu.Lock()
	defer w.inodeMu.Unlock()
	if w.inodes[key] {
		e.Size = 0
		return e
	}
	w.inodes[key] = true
	return e
}

func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
