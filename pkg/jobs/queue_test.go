package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, Options{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Kind: "email"}))

	select {
	case job := <-done:
		assert.Equal(t, "j1", job.ID)
		assert.Equal(t, "email", job.Kind)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("delivery was never handled")
	}
}

func TestQueueRetriesFailedDeliveries(t *testing.T) {
	attempts := make(chan int, 4)
	calls := 0
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		calls++
		attempts <- job.Attempt
		if calls == 1 {
			return errors.New("provider down")
		}
		return nil
	}, Options{Workers: 1, RetryAfter: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Kind: "sms"}))

	readAttempt := func() int {
		select {
		case a := <-attempts:
			return a
		case <-time.After(time.Second):
			t.Fatal("expected another delivery attempt")
			return -1
		}
	}
	assert.Equal(t, 0, readAttempt())
	assert.Equal(t, 1, readAttempt())
}

func TestQueueRejectsEnqueueWhenNotRunning(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, Options{})
	assert.Error(t, q.Enqueue(Job{ID: "j1"}))
}
