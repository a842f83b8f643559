// Package blockingqueue provides a bounded, blocking FIFO queue with an
// unfinished-task counter, modeled after the classic producer/consumer
// work queue: producers Put items, consumers Get them, call TaskDone once
// per item when the work is finished, and Join blocks until every item
// that was ever Put has been marked done.
//
// A single mutex guards all state. Three condition variables (not-full,
// not-empty, all-tasks-done) implement the monitor pattern: every wait
// re-checks its predicate in a loop, and timed waits compute one absolute
// deadline at call entry so spurious wake-ups can never extend the wait.
//
// Items are held by the queue until they are dequeued. A queue that is
// dropped with items still inside simply releases them to the garbage
// collector; there is no explicit destruction step.
package blockingqueue

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrFull is returned by Put/PutMany when no slot became available
	// under the requested blocking policy.
	ErrFull = errors.New("blockingqueue: queue full")

	// ErrEmpty is returned by Get/GetMany when no item became available
	// under the requested blocking policy.
	ErrEmpty = errors.New("blockingqueue: queue empty")

	// ErrInvalidArgument is returned when a batch can structurally never
	// fit the configured maxsize, or a negative count or timeout is given.
	// It is detected before any waiting or mutation.
	ErrInvalidArgument = errors.New("blockingqueue: invalid argument")

	// ErrNoUnfinishedTasks is returned by TaskDone when the unfinished
	// counter is already zero, i.e. TaskDone was called more often than
	// items were put.
	ErrNoUnfinishedTasks = errors.New("blockingqueue: task done called too many times")
)

// Queue is a bounded, blocking FIFO queue. The zero value is not usable;
// construct with New. All methods are safe for concurrent use.
type Queue[T any] struct {
	mu           sync.Mutex
	notFull      *sync.Cond
	notEmpty     *sync.Cond
	allTasksDone *sync.Cond

	items      []T
	maxsize    int // 0 means unbounded
	unfinished int
}

// New creates a queue holding at most maxsize items. A maxsize of zero or
// less means the queue is unbounded, matching the semantics of the classic
// task-queue API this package follows.
func New[T any](maxsize int) *Queue[T] {
	if maxsize < 0 {
		maxsize = 0
	}
	q := &Queue[T]{maxsize: maxsize}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	q.allTasksDone = sync.NewCond(&q.mu)
	return q
}

// hasFree reports whether n more items fit. Caller must hold q.mu.
func (q *Queue[T]) hasFree(n int) bool {
	return q.maxsize == 0 || q.maxsize-len(q.items) >= n
}

// hasItems reports whether n items can be taken. Caller must hold q.mu.
func (q *Queue[T]) hasItems(n int) bool {
	return len(q.items) >= n
}

// waitDeadline blocks on cond until a wake-up arrives or the deadline
// passes, and reports whether the deadline is still in the future. Since
// sync.Cond has no timed wait, a timer broadcasts on the condition at the
// deadline; every waiter re-checks its own predicate afterwards. Caller
// must hold q.mu.
func (q *Queue[T]) waitDeadline(cond *sync.Cond, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.AfterFunc(remaining, func() {
		q.mu.Lock()
		cond.Broadcast()
		q.mu.Unlock()
	})
	cond.Wait()
	timer.Stop()
	return time.Now().Before(deadline)
}

// await blocks until ready() holds. With block=false it fails immediately
// with failErr. With timeout > 0 the deadline is computed once here, and
// the wait fails with failErr only after the deadline has truly elapsed
// and the predicate still does not hold. Caller must hold q.mu.
func (q *Queue[T]) await(cond *sync.Cond, ready func() bool, block bool, timeout time.Duration, failErr error) error {
	if ready() {
		return nil
	}
	if !block {
		return failErr
	}
	if timeout <= 0 {
		for !ready() {
			cond.Wait()
		}
		return nil
	}
	deadline := time.Now().Add(timeout)
	for !ready() {
		if !q.waitDeadline(cond, deadline) && !ready() {
			return failErr
		}
	}
	return nil
}

// Put appends item to the tail of the queue and increments the unfinished
// counter. When the queue is full, Put blocks until a slot frees up if
// block is true, waiting at most timeout when timeout > 0; otherwise it
// returns ErrFull. A timeout of zero with block=true waits indefinitely.
func (q *Queue[T]) Put(item T, block bool, timeout time.Duration) error {
	if timeout < 0 {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	if err := q.await(q.notFull, func() bool { return q.hasFree(1) }, block, timeout, ErrFull); err != nil {
		q.mu.Unlock()
		return err
	}
	q.items = append(q.items, item)
	q.unfinished++
	q.mu.Unlock()
	q.notEmpty.Signal()
	return nil
}

// Get removes and returns the head of the queue. When the queue is empty,
// Get blocks until an item arrives if block is true, waiting at most
// timeout when timeout > 0; otherwise it returns ErrEmpty. Get does not
// touch the unfinished counter; call TaskDone when the item's work is
// finished.
func (q *Queue[T]) Get(block bool, timeout time.Duration) (T, error) {
	var zero T
	if timeout < 0 {
		return zero, ErrInvalidArgument
	}
	q.mu.Lock()
	if err := q.await(q.notEmpty, func() bool { return q.hasItems(1) }, block, timeout, ErrEmpty); err != nil {
		q.mu.Unlock()
		return zero, err
	}
	item := q.items[0]
	q.items[0] = zero // release the reference before reslicing
	q.items = q.items[1:]
	q.mu.Unlock()
	q.notFull.Signal()
	return item, nil
}

// TryPut is Put with block=false.
func (q *Queue[T]) TryPut(item T) error {
	return q.Put(item, false, 0)
}

// TryGet is Get with block=false.
func (q *Queue[T]) TryGet() (T, error) {
	return q.Get(false, 0)
}

// PutMany appends all items as one indivisible step, or none at all. It
// waits (per block/timeout, like Put) until the queue has len(items) free
// slots, so no observer ever sees a partial batch. Because one batch can
// satisfy several waiting consumers at once, PutMany broadcasts to all
// not-empty waiters instead of waking just one. Returns ErrInvalidArgument
// when the batch can never fit a bounded queue.
func (q *Queue[T]) PutMany(items []T, block bool, timeout time.Duration) error {
	if timeout < 0 {
		return ErrInvalidArgument
	}
	n := len(items)
	if n == 0 {
		return nil
	}
	q.mu.Lock()
	if q.maxsize > 0 && n > q.maxsize {
		q.mu.Unlock()
		return ErrInvalidArgument
	}
	if err := q.await(q.notFull, func() bool { return q.hasFree(n) }, block, timeout, ErrFull); err != nil {
		q.mu.Unlock()
		return err
	}
	q.items = append(q.items, items...)
	q.unfinished += n
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	return nil
}

// GetMany removes and returns exactly n items in FIFO order as one
// indivisible step. It waits (per block/timeout, like Get) until n items
// are queued. n == 0 returns an empty slice immediately. Like PutMany it
// broadcasts, here to all not-full waiters, since one batch removal can
// free room for several waiting producers. Returns ErrInvalidArgument for
// a negative n or an n that can never be queued on a bounded queue.
func (q *Queue[T]) GetMany(n int, block bool, timeout time.Duration) ([]T, error) {
	if timeout < 0 || n < 0 {
		return nil, ErrInvalidArgument
	}
	if n == 0 {
		return []T{}, nil
	}
	q.mu.Lock()
	if q.maxsize > 0 && n > q.maxsize {
		q.mu.Unlock()
		return nil, ErrInvalidArgument
	}
	if err := q.await(q.notEmpty, func() bool { return q.hasItems(n) }, block, timeout, ErrEmpty); err != nil {
		q.mu.Unlock()
		return nil, err
	}
	out := make([]T, n)
	copy(out, q.items[:n])
	var zero T
	for i := 0; i < n; i++ {
		q.items[i] = zero
	}
	q.items = q.items[n:]
	q.mu.Unlock()
	q.notFull.Broadcast()
	return out, nil
}

// TaskDone signals that one previously put unit of work is finished. It is
// independent of Get: the contract only balances counts, so a consumer
// fanning one item out into sub-tasks still calls TaskDone exactly once
// for the original item. When the counter reaches zero all Join callers
// are woken. Returns ErrNoUnfinishedTasks when the counter is already
// zero.
func (q *Queue[T]) TaskDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.unfinished == 0 {
		return ErrNoUnfinishedTasks
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.allTasksDone.Broadcast()
	}
	return nil
}

// Join blocks until the unfinished counter reaches zero, returning
// immediately if it already is.
func (q *Queue[T]) Join() {
	q.mu.Lock()
	for q.unfinished > 0 {
		q.allTasksDone.Wait()
	}
	q.mu.Unlock()
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	n := len(q.items)
	q.mu.Unlock()
	return n
}

// Maxsize returns the configured capacity; zero means unbounded.
func (q *Queue[T]) Maxsize() int {
	return q.maxsize
}

// Empty reports whether the queue held no items at the time of the call.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue was at maxsize at the time of the call.
// An unbounded queue is never full.
func (q *Queue[T]) Full() bool {
	q.mu.Lock()
	full := q.maxsize > 0 && len(q.items) == q.maxsize
	q.mu.Unlock()
	return full
}

// Unfinished returns the current unfinished-task count: items put minus
// TaskDone calls.
func (q *Queue[T]) Unfinished() int {
	q.mu.Lock()
	n := q.unfinished
	q.mu.Unlock()
	return n
}
