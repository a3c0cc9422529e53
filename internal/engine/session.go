// Package engine connects background scans and physical deletes to a
// single consumer that polls for results without ever blocking.
package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/sadopc/birdseye/internal/logging"
	"github.com/sadopc/birdseye/internal/scanner"
)

var (
	// ErrNoScan is returned by RequestDelete before any scan was started.
	ErrNoScan = errors.New("no scan has been started")
	// ErrDeleteUnsupported is returned when the session has no Deleter,
	// as for remote scans.
	ErrDeleteUnsupported = errors.New("deletion is not supported for this scan")
)

// Deleter removes a file or directory tree inside root.
type Deleter interface {
	Delete(path, root string) error
}

// Session owns the orchestrator, the deleter and the deletion queue.
// It is safe for concurrent use.
type Session struct {
	orch    *scanner.Orchestrator
	deleter Deleter
	log     *logging.Logger
	queue   *deletionQueue

	mu   sync.Mutex
	root string
}

// NewSession creates a session. deleter may be nil to disable deletion.
func NewSession(orch *scanner.Orchestrator, deleter Deleter, log *logging.Logger) *Session {
	return &Session{orch: orch, deleter: deleter, log: log, queue: newDeletionQueue()}
}

// StartScan begins a scan of root. Deletions are constrained to the root
// of the most recently started scan.
func (s *Session) StartScan(ctx context.Context, root string) *scanner.Scan {
	scan := s.orch.StartScan(ctx, root)
	s.mu.Lock()
	s.root = scan.Root()
	s.mu.Unlock()
	return scan
}

// CanDelete reports whether RequestDelete can succeed at all.
func (s *Session) CanDelete() bool { return s.deleter != nil }

// RequestDelete physically deletes path. On success the path is queued for
// the consumer; on failure the error is returned and nothing is queued.
func (s *Session) RequestDelete(path string) error {
	if s.deleter == nil {
		return ErrDeleteUnsupported
	}
	s.mu.Lock()
	root := s.root
	s.mu.Unlock()
	if root == "" {
		return ErrNoScan
	}

	path = filepath.Clean(path)
	if err := s.deleter.Delete(path, root); err != nil {
		s.log.Warn("delete %s failed: %v", path, err)
		return err
	}
	s.log.Info("deleted %s", path)
	s.queue.push(path)
	return nil
}

// Deleted is signalled after a deletion has been queued. It lets headless
// callers wait instead of polling.
func (s *Session) Deleted() <-chan struct{} { return s.queue.signal }
