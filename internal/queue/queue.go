// Package queue carries resume trigger messages between cycles. Delivery is
// at-least-once; the orchestrator's cycle-token check makes duplicates safe.
package queue

import (
	"context"
	"time"
)

// Message is one resume trigger. CycleCount is the idempotency token: a
// delivery whose count no longer matches the control document is stale and
// must be dropped by the consumer. ForceTerminalize requests a terminal-only
// pass instead of a normal cycle; the watchdog sets it when a session exceeds
// its cycle cap.
type Message struct {
	SessionID        string    `json:"session_id"`
	CycleCount       int       `json:"cycle_count"`
	Reason           string    `json:"reason,omitempty"`
	RequestedBy      string    `json:"requested_by,omitempty"`
	RunID            string    `json:"run_id,omitempty"`
	ForceTerminalize bool      `json:"force_terminalize,omitempty"`
	EnqueueAt        time.Time `json:"enqueue_at"`
}

// Queue is the re-enqueue transport. Enqueue schedules delivery after the
// given delay; Dequeue returns the next due message or nil when none is due
// yet.
type Queue interface {
	Enqueue(ctx context.Context, msg Message, delay time.Duration) error
	Dequeue(ctx context.Context) (*Message, error)
	Close() error
}
