package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue for tests and single-process runs.
type MemoryQueue struct {
	mu    sync.Mutex
	items []memoryItem

	// FailNext forces the next Enqueue to fail, for stalled-path tests.
	FailNext error
}

type memoryItem struct {
	msg Message
	due time.Time
}

// NewMemory returns an empty in-process queue.
func NewMemory() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg Message, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.FailNext != nil {
		err := q.FailNext
		q.FailNext = nil
		return err
	}
	if msg.EnqueueAt.IsZero() {
		msg.EnqueueAt = time.Now().UTC()
	}
	q.items = append(q.items, memoryItem{msg: msg, due: time.Now().Add(delay)})
	sort.SliceStable(q.items, func(i, j int) bool { return q.items[i].due.Before(q.items[j].due) })
	return nil
}

func (q *MemoryQueue) Dequeue(context.Context) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || q.items[0].due.After(time.Now()) {
		return nil, nil
	}
	msg := q.items[0].msg
	q.items = q.items[1:]
	return &msg, nil
}

// Len reports how many messages are pending, due or not.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// NextDue exposes the earliest due time, for delay assertions in tests.
func (q *MemoryQueue) NextDue() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].due, true
}

func (q *MemoryQueue) Close() error { return nil }
