package queue

import "time"

// Interface is the surface the bench harness and integrity tests drive.
// Both pkg/blockingqueue and pkg/chanqueue satisfy it; the harness only
// needs the blocking single-item operations plus the size snapshots.
type Interface[T any] interface {
	// Put appends an item, honoring the block flag and timeout.
	Put(item T, block bool, timeout time.Duration) error

	// Get removes and returns the oldest item, honoring the block flag
	// and timeout.
	Get(block bool, timeout time.Duration) (T, error)

	// Len returns how many items are currently queued.
	Len() int

	// Maxsize returns the configured capacity (0 = unbounded).
	Maxsize() int
}
