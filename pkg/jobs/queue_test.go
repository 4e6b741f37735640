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

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var attempts int32
	q := NewQueue("backups", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("drive unavailable")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Kind: "visible_backup"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	gaveUp := make(chan Job, 1)
	q := NewQueue("backups", func(ctx context.Context, job Job) error {
		return errors.New("forbidden")
	}, QueueConfig{MaxRetries: 1, RetryDelay: 5 * time.Millisecond, OnGiveUp: func(j Job, err error) {
		gaveUp <- j
	}})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{ID: "job-1", Kind: "visible_backup"})
	require.NoError(t, err)

	select {
	case job := <-gaveUp:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 2, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("expected give-up callback")
	}
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("backups", func(context.Context, Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue(Job{Kind: "visible_backup"})
	require.Error(t, err)
}
