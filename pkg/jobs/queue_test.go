package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesRunToHandler(t *testing.T) {
	got := make(chan Job, 1)
	q := NewQueue(func(ctx context.Context, job Job) error {
		got <- job
		return nil
	}, QueueConfig{Workers: 1})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "run-1", Date: "2024-03-05"}))

	select {
	case job := <-got:
		assert.Equal(t, "run-1", job.ID)
		assert.Equal(t, "2024-03-05", job.Date)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("run was not dispatched")
	}
}

func TestQueueRetriesFailedRun(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	q := NewQueue(func(ctx context.Context, job Job) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "run-1", Date: "2024-03-05"}))

	select {
	case <-done:
		assert.Equal(t, int32(2), calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("run was not retried")
	}
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue(func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{Date: "2024-03-05"})
	require.ErrorIs(t, err, ErrNotStarted)
}
