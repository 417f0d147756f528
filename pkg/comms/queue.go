package comms

import (
	"context"
	"sync"
)

// Queue is a closable byte-message queue between two parties. Closing it
// models the peer going away: pending and future sends observe
// ErrQueueClosed instead of blocking forever.
type Queue struct {
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue returns a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch:   make(chan []byte, capacity),
		done: make(chan struct{}),
	}
}

// Send enqueues payload, blocking while the queue is at capacity.
// A send after Close fails with ErrQueueClosed even when buffer space
// remains.
func (q *Queue) Send(ctx context.Context, payload []byte) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- payload:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C returns the channel messages are delivered on.
func (q *Queue) C() <-chan []byte {
	return q.ch
}

// Done is closed when the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Close marks the queue closed. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
