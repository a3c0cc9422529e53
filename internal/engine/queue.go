package engine

import "sync"

// deletionQueue is an unbounded FIFO of deleted paths. Any goroutine may
// push; the consumer drains it without blocking.
type deletionQueue struct {
	mu     sync.Mutex
	paths  []string
	signal chan struct{}
}

func newDeletionQueue() *deletionQueue {
	return &deletionQueue{signal: make(chan struct{}, 1)}
}

func (q *deletionQueue) push(path string) {
	q.mu.Lock()
	q.paths = append(q.paths, path)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// drain returns queued paths in push order and empties the queue.
func (q *deletionQueue) drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	paths := q.paths
	q.paths = nil
	return paths
}
