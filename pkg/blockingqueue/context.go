package blockingqueue

import (
	"context"
	"sync"
)

// waitContext blocks on cond until a wake-up arrives or ctx is done. A
// short-lived watcher goroutine broadcasts on cancellation to interrupt
// the wait; the caller re-checks its predicate before honoring the
// returned ctx error, so a wait that raced with a satisfied predicate
// still succeeds. Caller must hold q.mu.
func (q *Queue[T]) waitContext(ctx context.Context, cond *sync.Cond) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			cond.Broadcast()
			q.mu.Unlock()
		case <-done:
		}
	}()
	cond.Wait()
	close(done)
	return ctx.Err()
}

// awaitContext is the context-driven counterpart of await. Caller must
// hold q.mu.
func (q *Queue[T]) awaitContext(ctx context.Context, cond *sync.Cond, ready func() bool) error {
	for !ready() {
		if err := q.waitContext(ctx, cond); err != nil && !ready() {
			return err
		}
	}
	return nil
}

// PutContext is Put with blocking bounded by ctx instead of a timeout.
// It returns ctx.Err() when the context is canceled or its deadline
// passes before a slot frees up.
func (q *Queue[T]) PutContext(ctx context.Context, item T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	q.mu.Lock()
	if err := q.awaitContext(ctx, q.notFull, func() bool { return q.hasFree(1) }); err != nil {
		q.mu.Unlock()
		return err
	}
	q.items = append(q.items, item)
	q.unfinished++
	q.mu.Unlock()
	q.notEmpty.Signal()
	return nil
}

// GetContext is Get with blocking bounded by ctx instead of a timeout.
// It returns the zero value and ctx.Err() when the context is canceled or
// its deadline passes before an item arrives.
func (q *Queue[T]) GetContext(ctx context.Context) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	q.mu.Lock()
	if err := q.awaitContext(ctx, q.notEmpty, func() bool { return q.hasItems(1) }); err != nil {
		q.mu.Unlock()
		return zero, err
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.mu.Unlock()
	q.notFull.Signal()
	return item, nil
}

// JoinContext is Join with blocking bounded by ctx. It returns nil once
// the unfinished counter reaches zero, or ctx.Err() if the context ends
// first.
func (q *Queue[T]) JoinContext(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	q.mu.Lock()
	err := q.awaitContext(ctx, q.allTasksDone, func() bool { return q.unfinished == 0 })
	q.mu.Unlock()
	return err
}
