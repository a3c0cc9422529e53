// Package remote enumerates directory trees on SSH hosts over SFTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/birdseye/internal/logging"
	"github.com/sadopc/birdseye/internal/scanner"
)

const defaultRemotePath = "."

type sftpClient interface {
	ReadDir(string) ([]os.FileInfo, error)
	Stat(string) (os.FileInfo, error)
	ReadLink(string) (string, error)
	RealPath(string) (string, error)
}

// SFTPEnumerator walks a remote tree. It implements scanner.Enumerator; the
// connection is opened on first use and kept until Close.
type SFTPEnumerator struct {
	cfg  Config
	opts scanner.Options
	log  *logging.Logger
	dial func(context.Context, Config) (sftpClient, io.Closer, error)

	mu     sync.Mutex
	client sftpClient
	closer io.Closer
}

// NewSFTPEnumerator creates a remote enumerator for cfg.Target.
func NewSFTPEnumerator(cfg Config, opts scanner.Options, log *logging.Logger) *SFTPEnumerator {
	return &SFTPEnumerator{cfg: cfg, opts: opts, log: log, dial: dialSFTP}
}

func (s *SFTPEnumerator) connect(ctx context.Context) (sftpClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	s.log.Info("connecting to %s port %d", s.cfg.Target, s.cfg.Port)
	client, closer, err := s.dial(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.client, s.closer = client, closer
	return client, nil
}

// Close releases the connection, if one was opened.
func (s *SFTPEnumerator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.client, s.closer = nil, nil
	return err
}

// Resolve connects if needed and returns the absolute remote form of
// remotePath. An empty path means the login directory.
func (s *SFTPEnumerator) Resolve(ctx context.Context, remotePath string) (string, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(remotePath) == "" {
		remotePath = defaultRemotePath
	}
	resolved, err := client.RealPath(cleanRemotePath(remotePath))
	if err != nil {
		return "", fmt.Errorf("cannot resolve remote path %q: %w", remotePath, err)
	}
	return cleanRemotePath(resolved), nil
}

// Enumerate walks root on the remote host. Entry paths are reported under
// root as given.
func (s *SFTPEnumerator) Enumerate(ctx context.Context, root string, sink scanner.Sink) error {
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}
	client, err := s.connect(ctx)
	if err != nil {
		return &scanner.RootError{Path: s.cfg.Target + ":" + root, Err: err}
	}
	return enumerate(ctx, client, root, s.opts, sink)
}

type item struct {
	entry scanner.Entry
	path  string
	err   error
}

type walker struct {
	ctx      context.Context
	client   sftpClient
	opts     scanner.Options
	scanRoot string
	exclude  map[string]bool
	g        errgroup.Group
	out      chan item

	visited sync.Map
	seen    sync.Map
}

func enumerate(ctx context.Context, client sftpClient, root string, opts scanner.Options, sink scanner.Sink) error {
	logical := cleanRemotePath(root)
	scanRoot := logical
	if resolved, err := client.RealPath(logical); err == nil {
		scanRoot = cleanRemotePath(resolved)
	}
	info, err := client.Stat(scanRoot)
	if err != nil {
		return &scanner.RootError{Path: logical, Err: err}
	}
	if !info.IsDir() {
		return &scanner.RootError{Path: logical, Err: errors.New("not a directory")}
	}
	entries, err := readRemoteDir(ctx, client, scanRoot)
	if err != nil {
		return &scanner.RootError{Path: logical, Err: err}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0) * 3
	}
	w := &walker{
		ctx:      ctx,
		client:   client,
		opts:     opts,
		scanRoot: scanRoot,
		exclude:  make(map[string]bool, len(opts.Exclude)),
		out:      make(chan item, 256),
	}
	for _, name := range opts.Exclude {
		w.exclude[name] = true
	}
	w.g.SetLimit(concurrency)
	w.visited.Store(scanRoot, true)

	go func() {
		rootEntry := scanner.Entry{Path: logical, IsDir: true, Modified: info.ModTime(), ModifiedKnown: !info.ModTime().IsZero()}
		if w.send(item{entry: rootEntry}) {
			w.walkEntries(scanRoot, logical, entries)
		}
		_ = w.g.Wait()
		close(w.out)
	}()

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

func (w *walker) spawn(remote, logical string) {
	if !w.g.TryGo(func() error {
		w.walk(remote, logical)
		return nil
	}) {
		w.walk(remote, logical)
	}
}

func (w *walker) walk(remote, logical string) {
	if w.ctx.Err() != nil {
		return
	}
	entries, err := readRemoteDir(w.ctx, w.client, remote)
	if err != nil {
		w.send(item{path: logical, err: err})
		return
	}
	w.walkEntries(remote, logical, entries)
}

func (w *walker) walkEntries(remote, logical string, entries []os.FileInfo) {
	for _, entry := range entries {
		if w.ctx.Err() != nil {
			return
		}

		name := entry.Name()
		if w.exclude[name] {
			continue
		}
		if !w.opts.ShowHidden && isHidden(name) {
			continue
		}
		mode := entry.Mode()
		if isSpecialRemoteMode(mode) {
			continue
		}

		fullPath := cleanRemotePath(pathpkg.Join(remote, name))
		logicalPath := pathpkg.Join(logical, name)

		switch {
		case mode&os.ModeSymlink != 0:
			if !w.opts.FollowSymlinks {
				if !w.send(item{entry: fileEntry(logicalPath, entry)}) {
					return
				}
				continue
			}
			resolved, target, err := resolveSymlinkTarget(w.client, fullPath)
			if err != nil {
				w.send(item{path: logicalPath, err: err})
				continue
			}
			if isSpecialRemoteMode(target.Mode()) {
				continue
			}
			if !target.IsDir() {
				e := fileEntry(logicalPath, target)
				if _, loaded := w.seen.LoadOrStore(resolved, true); loaded {
					e.Size = 0
				}
				if !w.send(item{entry: e}) {
					return
				}
				continue
			}
			if !w.send(item{entry: dirEntry(logicalPath, target)}) {
				return
			}
			if isWithinRemote(w.scanRoot, resolved) {
				continue
			}
			if _, loaded := w.visited.LoadOrStore(resolved, true); loaded {
				continue
			}
			w.spawn(resolved, logicalPath)

		case entry.IsDir():
			scanPath := fullPath
			if resolved, err := w.client.RealPath(fullPath); err == nil {
				scanPath = cleanRemotePath(resolved)
			}
			if !w.send(item{entry: dirEntry(logicalPath, entry)}) {
				return
			}
			if _, loaded := w.visited.LoadOrStore(scanPath, true); loaded {
				continue
			}
			w.spawn(scanPath, logicalPath)

		default:
			e := fileEntry(logicalPath, entry)
			if w.opts.FollowSymlinks {
				canonical := fullPath
				if resolved, err := w.client.RealPath(fullPath); err == nil {
					canonical = cleanRemotePath(resolved)
				}
				if _, loaded := w.seen.LoadOrStore(canonical, true); loaded {
					e.Size = 0
				}
			}
			if !w.send(item{entry: e}) {
				return
			}
		}
	}
}

func fileEntry(p string, info os.FileInfo) scanner.Entry {
	return scanner.Entry{
		Path:          p,
		Size:          max(info.Size(), 0),
		Modified:      info.ModTime(),
		ModifiedKnown: !info.ModTime().IsZero(),
	}
}

func dirEntry(p string, info os.FileInfo) scanner.Entry {
	return scanner.Entry{Path: p, IsDir: true, Modified: info.ModTime(), ModifiedKnown: !info.ModTime().IsZero()}
}

func resolveSymlinkTarget(client sftpClient, symlinkPath string) (string, os.FileInfo, error) {
	target, err := client.ReadLink(symlinkPath)
	if err != nil {
		return "", nil, err
	}
	if !pathpkg.IsAbs(target) {
		target = pathpkg.Join(pathpkg.Dir(symlinkPath), target)
	}
	resolved, err := client.RealPath(cleanRemotePath(target))
	if err != nil {
		return "", nil, err
	}
	resolved = cleanRemotePath(resolved)
	info, err := client.Stat(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, info, nil
}

func cleanRemotePath(p string) string {
	if p == "" {
		return defaultRemotePath
	}
	return pathpkg.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// isWithinRemote reports whether target is root or below it, using POSIX
// path semantics.
func isWithinRemote(root, target string) bool {
	root = pathpkg.Clean(root)
	target = pathpkg.Clean(target)
	if root == target {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(target, prefix)
}

func isSpecialRemoteMode(mode os.FileMode) bool {
	return mode&(os.ModeDevice|os.ModeCharDevice|os.ModeSocket|os.ModeNamedPipe|os.ModeIrregular) != 0
}

func readRemoteDir(ctx context.Context, client sftpClient, dirPath string) ([]os.FileInfo, error) {
	if rc, ok := client.(interface {
		ReadDirContext(context.Context, string) ([]os.FileInfo, error)
	}); ok {
		return rc.ReadDirContext(ctx, dirPath)
	}
	return client.ReadDir(dirPath)
}
