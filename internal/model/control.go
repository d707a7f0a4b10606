package model

import "time"

// ControlStatus is the resume control document's state machine value. It is
// written only by the orchestrator's end-of-cycle decision point.
type ControlStatus string

const (
	ControlQueued   ControlStatus = "queued"
	ControlRunning  ControlStatus = "running"
	ControlComplete ControlStatus = "complete"
	ControlStalled  ControlStatus = "stalled"
	ControlBlocked  ControlStatus = "blocked"
	ControlTerminal ControlStatus = "terminal"
	ControlStopped  ControlStatus = "stopped"
)

// FieldProgressStatus is the per-field progress state mirrored on the control
// document.
type FieldProgressStatus string

const (
	ProgressOK        FieldProgressStatus = "ok"
	ProgressRetryable FieldProgressStatus = "retryable"
	ProgressTerminal  FieldProgressStatus = "terminal"
)

// FieldProgress mirrors a record field's attempt metadata on the control
// document. LastCycleAttempted equal to the current cycle count means the
// field was already attempted this cycle and must not run again.
type FieldProgress struct {
	Attempts           int                 `json:"attempts"`
	LastAttemptAt      *time.Time          `json:"last_attempt_at,omitempty"`
	LastCycleAttempted int                 `json:"last_cycle_attempted"`
	Status             FieldProgressStatus `json:"status"`
	LastError          *FieldError         `json:"last_error,omitempty"`
	Diag               string              `json:"diag,omitempty"`
}

// ResumeControl is the orchestrator's durable state machine record, one per
// session.
type ResumeControl struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Status    ControlStatus `json:"status"`

	// CycleCount increments once per real invocation. Lock/backoff
	// short-circuit exits do not consume a cycle.
	CycleCount int `json:"cycle_count"`

	LockExpiresAt    *time.Time `json:"lock_expires_at,omitempty"`
	NextAllowedRunAt *time.Time `json:"next_allowed_run_at,omitempty"`

	// MissingByRecord lists still-retryable field names per record id.
	MissingByRecord map[string][]Field `json:"missing_by_company,omitempty"`

	// Progress holds per-record per-field attempt mirrors used for backoff
	// classification and intra-cycle idempotency.
	Progress map[string]map[Field]*FieldProgress `json:"enrichment_progress,omitempty"`

	// This-cycle telemetry.
	PlannedFields   []string `json:"planned_fields,omitempty"`
	AttemptedFields []string `json:"attempted_fields,omitempty"`

	LastBackoffReason  string      `json:"last_backoff_reason,omitempty"`
	LastFieldAttempted string      `json:"last_field_attempted,omitempty"`
	LastFieldResult    string      `json:"last_field_result,omitempty"`
	LastError          *FieldError `json:"last_error,omitempty"`
	BlockedReason      string      `json:"blocked_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordProgress returns the progress map for a record, creating it if
// needed.
func (c *ResumeControl) RecordProgress(recordID string) map[Field]*FieldProgress {
	if c.Progress == nil {
		c.Progress = make(map[string]map[Field]*FieldProgress)
	}
	p := c.Progress[recordID]
	if p == nil {
		p = make(map[Field]*FieldProgress)
		c.Progress[recordID] = p
	}
	return p
}

// FieldProgressFor returns the progress entry for one record field, creating
// it if needed.
func (c *ResumeControl) FieldProgressFor(recordID string, f Field) *FieldProgress {
	p := c.RecordProgress(recordID)
	fp := p[f]
	if fp == nil {
		fp = &FieldProgress{Status: ProgressRetryable}
		p[f] = fp
	}
	return fp
}

// Locked reports whether the lock lease is unexpired at the given time.
func (c *ResumeControl) Locked(now time.Time) bool {
	return c.LockExpiresAt != nil && c.LockExpiresAt.After(now)
}

// BackoffRemaining returns how long until the backoff gate opens, or zero.
func (c *ResumeControl) BackoffRemaining(now time.Time) time.Duration {
	if c.NextAllowedRunAt == nil || !c.NextAllowedRunAt.After(now) {
		return 0
	}
	return c.NextAllowedRunAt.Sub(now)
}

// Session groups the records produced by one import request. Its markers
// mirror, but never replace, the authoritative per-record state.
type Session struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`

	SavedRecordIDs []string `json:"saved_record_ids,omitempty"`
	ResumeNeeded   bool     `json:"resume_needed"`
	Status         string   `json:"status,omitempty"`

	ResumeCycleCount int        `json:"resume_cycle_count,omitempty"`
	LastEnteredAt    *time.Time `json:"worker_last_entered_at,omitempty"`
	LastFinishedAt   *time.Time `json:"worker_last_finished_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StopControl is the stop sentinel. Its presence means "cancel, do not
// self-reschedule"; it is created externally and read-only here.
type StopControl struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Stopped   bool      `json:"stopped"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Document id helpers. Control documents share the record keyspace and are
// prefixed so record queries can exclude them.
func ControlDocID(sessionID string) string { return "_resume_" + sessionID }
func SessionDocID(sessionID string) string { return "_session_" + sessionID }
func StopDocID(sessionID string) string    { return "_stop_" + sessionID }
