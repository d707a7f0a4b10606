// Package ledger maintains the per-field attempt bookkeeping on a record.
// All writes are idempotent with respect to queue redelivery: the same
// request id never counts an attempt twice.
package ledger

import (
	"time"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// maxErrorMessage bounds stored error descriptors. Payloads are never
// persisted, only a truncated message plus code/status.
const maxErrorMessage = 500

// Bump increments the attempt counter for a field unless this request id was
// already counted, and stamps last_attempt_at either way. Returns true when
// the counter actually advanced.
func Bump(r *model.Record, f model.Field, requestID string, now time.Time) bool {
	r.EnsureMaps()
	m := r.Meta(f)

	counted := requestID != "" && m.LastRequestID == requestID
	m.LastAttemptAt = &now
	m.LastRequestID = requestID
	if counted {
		return false
	}
	r.Attempts[f]++
	return true
}

// MarkSuccess records a successful attempt outcome and clears the field's
// last error.
func MarkSuccess(r *model.Record, f model.Field, now time.Time) {
	m := r.Meta(f)
	m.LastSuccessAt = &now
	m.LastError = nil
}

// MarkError records a bounded error descriptor for the field.
func MarkError(r *model.Record, f model.Field, msg, code string, status int) {
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	r.Meta(f).LastError = &model.FieldError{Message: msg, Code: code, Status: status}
}

// BumpLowQuality advances the separate low-quality counter used by the
// terminalization policy's tighter cap.
func BumpLowQuality(r *model.Record, f model.Field) int {
	r.EnsureMaps()
	r.LowQualityAttempts[f]++
	return r.LowQualityAttempts[f]
}
