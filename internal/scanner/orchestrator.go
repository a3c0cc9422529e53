package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/birdseye/internal/logging"
	"github.com/sadopc/birdseye/internal/model"
)

// PublishEvery is the number of entries between intermediate snapshots.
const PublishEvery = 2000

// Update is an intermediate snapshot and the progress at the time it was
// taken.
type Update struct {
	Snapshot *model.Snapshot
	Stats    Stats
}

// Completion is delivered exactly once per scan.
type Completion struct {
	Snapshot *model.Snapshot
	Stats    Stats
	// Err is a *RootError when the root could not be read, or the context
	// error when the scan was cancelled. The snapshot is still usable.
	Err      error
	Duration time.Duration
}

// Orchestrator starts background scans.
type Orchestrator struct {
	// Enumerator, when set, is used for every scan instead of choosing one
	// by root kind.
	Enumerator Enumerator
	Options    Options
	Logger     *logging.Logger
}

// Scan is one running scan. Its channels are independent of every other
// scan.
type Scan struct {
	id      string
	root    string
	updates chan Update
	done    chan Completion
}

// ID identifies the scan.
func (s *Scan) ID() string { return s.id }

// Root returns the root as the scan sees it.
func (s *Scan) Root() string { return s.root }

// Updates yields intermediate snapshots. It holds at most one value; a
// slow reader only ever sees the newest. It is closed after the last
// intermediate snapshot.
func (s *Scan) Updates() <-chan Update { return s.updates }

// Done yields the final snapshot once.
func (s *Scan) Done() <-chan Completion { return s.done }

// StartScan begins scanning root in a new goroutine and returns at once.
// Cancelling ctx stops the walk; completion still fires.
func (o *Orchestrator) StartScan(ctx context.Context, root string) *Scan {
	enum := o.Enumerator
	if enum == nil {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		enum = Dispatch(root, o.Options)
	}
	s := &Scan{
		id:      uuid.NewString(),
		root:    filepath.Clean(root),
		updates: make(chan Update, 1),
		done:    make(chan Completion, 1),
	}
	go o.run(ctx, s, enum)
	return s
}

// publish replaces any unread update so the scan never waits on the reader.
func (s *Scan) publish(u Update) {
	select {
	case s.updates <- u:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- u:
	default:
	}
}

type scanSink struct {
	scan    *Scan
	builder *model.Builder
	stats   Stats
	start   time.Time
	log     *logging.Logger
}

func (k *scanSink) Entry(e Entry) {
	k.builder.Add(e)
	k.stats.count(e)
	if k.builder.Seen()%PublishEvery == 0 {
		k.stats.Elapsed = time.Since(k.start)
		k.scan.publish(Update{Snapshot: k.builder.Snapshot(false), Stats: k.stats})
	}
}

func (k *scanSink) Skip(path string, err error) {
	k.stats.Errors++
	k.log.Debug("scan %s: skipped %s: %v", k.scan.id, path, err)
}

func (o *Orchestrator) run(ctx context.Context, s *Scan, enum Enumerator) {
	start := time.Now()
	sink := &scanSink{
		scan:    s,
		builder: model.NewBuilder(s.root, s.id),
		start:   start,
		log:     o.Logger,
	}
	o.Logger.Info("scan %s: start %s (%T)", s.id, s.root, enum)

	err := enum.Enumerate(ctx, s.root, sink)
	close(s.updates)

	var rootErr *RootError
	switch {
	case errors.As(err, &rootErr):
		o.Logger.Warn("scan %s: %v", s.id, err)
	case err != nil:
		o.Logger.Info("scan %s: stopped: %v", s.id, err)
	}

	sink.stats.Elapsed = time.Since(start)
	final := sink.builder.Snapshot(true)
	if sink.stats.Errors > 0 {
		o.Logger.Debug("scan %s: %d entries skipped", s.id, sink.stats.Errors)
	}
	o.Logger.Info("scan %s: finished %s: %d files, %d dirs, %d bytes in %s",
		s.id, s.root, sink.stats.Files, sink.stats.Dirs, sink.stats.Bytes, sink.stats.Elapsed)

	s.done <- Completion{
		Snapshot: final,
		Stats:    sink.stats,
		Err:      err,
		Duration: sink.stats.Elapsed,
	}
}
