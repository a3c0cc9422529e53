package engine

import (
	"context"

	"github.com/sadopc/birdseye/internal/model"
	"github.com/sadopc/birdseye/internal/scanner"
)

// PollResult describes what a Poll call changed.
type PollResult struct {
	// Updated is set when a newer snapshot was installed.
	Updated bool
	// Completed is set on the poll that installed the final snapshot.
	Completed bool
	// Deleted lists the deletions applied, in request order.
	Deleted []string
}

// Changed reports whether anything visible changed.
func (r PollResult) Changed() bool {
	return r.Updated || r.Completed || len(r.Deleted) > 0
}

// Consumer holds the consumer-owned snapshot. It must be used from a single
// goroutine, typically a UI loop calling Poll once per tick.
type Consumer struct {
	session *Session
	parent  context.Context
	cancel  context.CancelFunc

	scan    *scanner.Scan
	updates <-chan scanner.Update
	done    <-chan scanner.Completion

	snap    *model.Snapshot
	stats   scanner.Stats
	ready   bool
	err     error
	applied []string // deletions made during the current scan
}

// NewConsumer returns a consumer for session. Scans it starts derive their
// context from ctx.
func NewConsumer(ctx context.Context, session *Session) *Consumer {
	return &Consumer{session: session, parent: ctx}
}

// StartScan starts scanning root. A scan already in progress is cancelled
// and its remaining messages are ignored.
func (c *Consumer) StartScan(root string) {
	c.Close()
	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.scan = c.session.StartScan(ctx, root)
	c.updates = c.scan.Updates()
	c.done = c.scan.Done()
	c.snap = nil
	c.stats = scanner.Stats{}
	c.ready = false
	c.err = nil
	c.applied = nil
}

// Close cancels the current scan, if any.
func (c *Consumer) Close() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Poll applies, without blocking, the newest intermediate snapshot, then
// the completion, then every queued deletion in order.
func (c *Consumer) Poll() PollResult {
	var res PollResult

	if c.updates != nil {
		select {
		case u, ok := <-c.updates:
			if !ok {
				c.updates = nil
				break
			}
			c.install(u.Snapshot)
			c.stats = u.Stats
			res.Updated = true
		default:
		}
	}

	if c.done != nil {
		select {
		case comp := <-c.done:
			c.install(comp.Snapshot)
			c.stats = comp.Stats
			c.err = comp.Err
			c.ready = true
			c.done = nil
			c.updates = nil
			res.Updated = true
			res.Completed = true
		default:
		}
	}

	for _, path := range c.session.queue.drain() {
		// Replayed even when absent here: a later publication may contain it.
		c.applied = append(c.applied, path)
		if c.snap != nil {
			c.snap.Remove(path)
		}
		res.Deleted = append(res.Deleted, path)
	}
	return res
}

// install takes ownership of snap and replays deletions already applied to
// the snapshot it replaces.
func (c *Consumer) install(snap *model.Snapshot) {
	for _, path := range c.applied {
		snap.Remove(path)
	}
	c.snap = snap
}

// Snapshot returns the current snapshot, or nil before the first
// publication. It stays owned by the consumer.
func (c *Consumer) Snapshot() *model.Snapshot { return c.snap }

// Stats returns the progress reported with the current snapshot.
func (c *Consumer) Stats() scanner.Stats { return c.stats }

// Ready reports whether the current scan has completed.
func (c *Consumer) Ready() bool { return c.ready }

// Err returns the scan-level error of a completed scan.
func (c *Consumer) Err() error { return c.err }

// Scanning reports whether a scan was started and has not completed.
func (c *Consumer) Scanning() bool { return c.scan != nil && !c.ready }

// Root returns the root of the current scan.
func (c *Consumer) Root() string {
	if c.scan == nil {
		return ""
	}
	return c.scan.Root()
}

// Session returns the session the consumer polls.
func (c *Consumer) Session() *Session { return c.session }
