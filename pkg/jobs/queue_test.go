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

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		done <- j
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "email"}))

	select {
	case j := <-done:
		assert.Equal(t, "j1", j.ID)
		assert.False(t, j.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{}, 1)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("gateway down")
		}
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "sms"}))

	select {
	case <-done:
		assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
	case <-time.After(time.Second):
		t.Fatal("job was never retried")
	}
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "j1"}))
}

func TestQueueRejectsWhenFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(_ context.Context, _ Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	// First job occupies the worker, second fills the buffer.
	require.NoError(t, q.Enqueue(Job{ID: "j1"}))
	require.Eventually(t, func() bool {
		return q.Enqueue(Job{ID: "j2"}) == nil
	}, time.Second, time.Millisecond)

	err := q.Enqueue(Job{ID: "j3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}
