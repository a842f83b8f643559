package testbench

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quvona/GoTaskQueue/internal/queue"
	"github.com/quvona/GoTaskQueue/pkg/blockingqueue"
)

// Config describes one concurrency setting: how many producers, how many
// consumers.
type Config struct {
	NumProducers int
	NumConsumers int
}

// pollInterval is the timeout producers and consumers pass to Put/Get so
// they periodically notice that the run is over instead of blocking
// forever on a full or empty queue.
const pollInterval = 50 * time.Millisecond

// RunTimedTest spawns producers and consumers that run for the specified
// duration, measuring how many messages are actually enqueued/dequeued in
// that window. Once the duration expires, producers stop and consumers
// drain any remaining messages. Returns the total messages produced,
// total consumed, and the actual elapsed time.
func RunTimedTest[T any](
	q queue.Interface[T],
	cfg Config,
	testDuration time.Duration,
	valueGenerator func(int) T,
) (producedCount int64, consumedCount int64, elapsed time.Duration, err error) {

	ctx, cancel := context.WithTimeout(context.Background(), testDuration)
	defer cancel()

	var totalProduced atomic.Int64
	var totalConsumed atomic.Int64
	var msgIndex atomic.Int64
	var productionDone atomic.Bool
	var drainReady atomic.Bool

	start := time.Now()

	go func() {
		<-ctx.Done()
		productionDone.Store(true)
	}()

	var producers errgroup.Group
	for i := 0; i < cfg.NumProducers; i++ {
		producers.Go(func() error {
			for !productionDone.Load() {
				idx := msgIndex.Add(1) - 1
				msg := valueGenerator(int(idx))
				// Retry until the message fits or the run is over.
				for {
					putErr := q.Put(msg, true, pollInterval)
					if putErr == nil {
						totalProduced.Add(1)
						break
					}
					if !errors.Is(putErr, blockingqueue.ErrFull) {
						return putErr
					}
					if productionDone.Load() {
						return nil
					}
				}
			}
			return nil
		})
	}

	var consumers errgroup.Group
	for i := 0; i < cfg.NumConsumers; i++ {
		consumers.Go(func() error {
			for {
				if drainReady.Load() {
					// All producers have returned; drain what is left.
					for {
						if _, getErr := q.Get(false, 0); getErr != nil {
							if errors.Is(getErr, blockingqueue.ErrEmpty) {
								return nil
							}
							return getErr
						}
						totalConsumed.Add(1)
					}
				}
				if _, getErr := q.Get(true, pollInterval); getErr != nil {
					if !errors.Is(getErr, blockingqueue.ErrEmpty) {
						return getErr
					}
					continue
				}
				totalConsumed.Add(1)
			}
		})
	}

	<-ctx.Done()
	if err = producers.Wait(); err != nil {
		return 0, 0, 0, err
	}
	drainReady.Store(true)
	if err = consumers.Wait(); err != nil {
		return 0, 0, 0, err
	}

	elapsed = time.Since(start)
	return totalProduced.Load(), totalConsumed.Load(), elapsed, nil
}
