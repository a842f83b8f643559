// Package chanqueue is a channel-backed bounded FIFO with the same
// blocking Put/Get surface as blockingqueue. It exists as a baseline for
// the benchmark harness and as a behavioral cross-check in tests: Go's
// buffered channel already is a bounded blocking queue, just without the
// batch and task-tracking extensions.
package chanqueue

import (
	"time"

	"github.com/quvona/GoTaskQueue/pkg/blockingqueue"
)

// Queue wraps a buffered channel. All methods are safe for concurrent use.
type Queue[T any] struct {
	ch chan T
}

// New creates a queue holding at most maxsize items.
// Enforce minimum capacity of 1 to ensure proper bounded buffer semantics:
// a zero-capacity Go channel is an unbuffered synchronization primitive,
// not a zero-capacity buffer.
func New[T any](maxsize int) *Queue[T] {
	if maxsize < 1 {
		maxsize = 1
	}
	return &Queue[T]{ch: make(chan T, maxsize)}
}

// Put appends item, blocking per block/timeout like blockingqueue.Put.
// Returns blockingqueue.ErrFull when no slot frees up in time.
func (q *Queue[T]) Put(item T, block bool, timeout time.Duration) error {
	if timeout < 0 {
		return blockingqueue.ErrInvalidArgument
	}
	if !block {
		select {
		case q.ch <- item:
			return nil
		default:
			return blockingqueue.ErrFull
		}
	}
	if timeout == 0 {
		q.ch <- item
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- item:
		return nil
	case <-timer.C:
		return blockingqueue.ErrFull
	}
}

// Get removes the head item, blocking per block/timeout like
// blockingqueue.Get. Returns blockingqueue.ErrEmpty when no item arrives
// in time.
func (q *Queue[T]) Get(block bool, timeout time.Duration) (T, error) {
	var zero T
	if timeout < 0 {
		return zero, blockingqueue.ErrInvalidArgument
	}
	if !block {
		select {
		case item := <-q.ch:
			return item, nil
		default:
			return zero, blockingqueue.ErrEmpty
		}
	}
	if timeout == 0 {
		return <-q.ch, nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case item := <-q.ch:
		return item, nil
	case <-timer.C:
		return zero, blockingqueue.ErrEmpty
	}
}

// Len returns the number of items currently buffered.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Maxsize returns the channel capacity.
func (q *Queue[T]) Maxsize() int { return cap(q.ch) }
