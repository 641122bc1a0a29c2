// Package queue carries submitted ledger matches to the rating workers.
//
// The in-memory implementation is a bounded buffered channel; Enqueue never
// blocks so callers can answer with backpressure instead.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/skillrate/internal/domain/model"
	"github.com/okian/skillrate/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Match is the payload type flowing through the queue.
type Match = model.Match

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a match to the queue.
	// Returns false if the queue is full or closed and the match was not enqueued.
	Enqueue(ctx context.Context, m Match) bool

	// Dequeue returns a channel that receives matches as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Match

	// Len returns the current number of queued matches.
	Len(ctx context.Context) int

	// Close stops accepting matches and closes the dequeue channel.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	matches    chan Match
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize <= 0 {
		q.bufferSize = q.capacity
	}
	q.matches = make(chan Match, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a match to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Match) bool { //nolint:gocritic // hugeParam: Match is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || len(q.matches) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.matches <- m:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel that receives matches as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Match {
	out := make(chan Match)
	go func() {
		defer close(out)
		for m := range q.matches {
			select {
			case out <- m:
				metrics.RecordQueueDequeue()
				if !m.SubmittedAt.IsZero() {
					metrics.RecordQueueWait(float64(time.Since(m.SubmittedAt).Milliseconds()))
				}
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued matches.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.updateGauges()
	return len(q.matches)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	close(q.matches)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.matches)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
