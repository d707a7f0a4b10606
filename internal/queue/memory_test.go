package queue

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_ImmediateDelivery(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Message{SessionID: "sess-1", CycleCount: 2}, 0))

	msg, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "sess-1", msg.SessionID)
	assert.Equal(t, 2, msg.CycleCount)
	assert.False(t, msg.EnqueueAt.IsZero())
}

func TestMemoryQueue_DelayHoldsDelivery(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Message{SessionID: "sess-1"}, time.Minute))

	msg, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Equal(t, 1, q.Len())

	due, ok := q.NextDue()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), due, 2*time.Second)
}

func TestMemoryQueue_OrderedByDueTime(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Message{SessionID: "later"}, -time.Second))
	require.NoError(t, q.Enqueue(ctx, Message{SessionID: "sooner"}, -time.Minute))

	msg, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "sooner", msg.SessionID)
}

func TestMemoryQueue_EmptyDequeue(t *testing.T) {
	q := NewMemory()
	msg, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMemoryQueue_FailNext(t *testing.T) {
	q := NewMemory()
	q.FailNext = eris.New("broker down")

	err := q.Enqueue(context.Background(), Message{SessionID: "sess-1"}, 0)
	require.Error(t, err)

	// One-shot: the next enqueue succeeds again.
	require.NoError(t, q.Enqueue(context.Background(), Message{SessionID: "sess-1"}, 0))
}
