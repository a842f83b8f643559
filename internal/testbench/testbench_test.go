package testbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quvona/GoTaskQueue/pkg/blockingqueue"
	"github.com/quvona/GoTaskQueue/pkg/chanqueue"
)

func TestRunTimedTestCountsReconcile(t *testing.T) {
	q := blockingqueue.New[*int](256)

	produced, consumed, elapsed, err := RunTimedTest(
		q,
		Config{NumProducers: 4, NumConsumers: 4},
		200*time.Millisecond,
		func(i int) *int {
			v := i
			return &v
		},
	)
	require.NoError(t, err)

	// After the drain phase every produced message must have been consumed.
	assert.Equal(t, produced, consumed)
	assert.Equal(t, 0, q.Len())
	assert.Positive(t, produced)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}

func TestRunTimedTestChannelBaseline(t *testing.T) {
	q := chanqueue.New[*int](256)

	produced, consumed, _, err := RunTimedTest(
		q,
		Config{NumProducers: 2, NumConsumers: 2},
		100*time.Millisecond,
		func(i int) *int {
			v := i
			return &v
		},
	)
	require.NoError(t, err)
	assert.Equal(t, produced, consumed)
	assert.Equal(t, 0, q.Len())
}
