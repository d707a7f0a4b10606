// Package terminal implements the terminalization policy: the only writer of
// terminal missing-reasons. Every transition here is monotonic; a field that
// is already terminally settled is never rewritten or downgraded.
package terminal

import (
	"time"

	"github.com/sells-group/resume-orchestrator/internal/fields"
	"github.com/sells-group/resume-orchestrator/internal/model"
)

// Reviews incomplete reasons. The user-facing stage is always "incomplete";
// the typed reason says why retries ended.
const (
	IncompleteUpstreamTimeout     = "upstream_timeout"
	IncompleteUpstreamUnreachable = "upstream_unreachable"
	IncompleteInsufficientReviews = "insufficient_verified_reviews"
	IncompleteNoValidReviews      = "no_valid_reviews_found"
)

// Terminalize settles a missing field permanently, dispatching on the field's
// class. reason must be terminal; non-terminal reasons are coerced to
// exhausted. Returns false when the field was already terminal (no-op).
func Terminalize(r *model.Record, f model.Field, reason model.MissingReason, now time.Time) bool {
	if fields.TerminallyMissing(r, f) {
		return false
	}
	if f.Class() == model.ClassReviews && r.ReviewCursor != nil && r.ReviewCursor.Exhausted {
		return false
	}
	if !reason.Terminal() {
		reason = model.ReasonExhausted
	}
	r.EnsureMaps()

	switch f.Class() {
	case model.ClassLocation:
		terminalizeLocation(r, f, reason)
	case model.ClassList, model.ClassText:
		terminalizeValueField(r, f, reason)
	case model.ClassLogo:
		if r.LogoStageStatus == "" {
			r.LogoStageStatus = model.LogoStageMissing
		}
		r.MissingReason[f] = reason
	case model.ClassReviews:
		terminalizeReviews(r, now)
	}
	return true
}

// terminalizeLocation writes the visible sentinel only for a confirmed
// not_disclosed; every other terminal reason clears the value and records
// exhaustion.
func terminalizeLocation(r *model.Record, f model.Field, reason model.MissingReason) {
	disclosedDenied := reason == model.ReasonNotDisclosed

	switch f {
	case model.FieldHeadquarters:
		if disclosedDenied {
			r.HeadquartersLocation = model.NotDisclosed
			r.HQUnknown = true
			r.HQUnknownReason = string(model.ReasonNotDisclosed)
			r.MissingReason[f] = model.ReasonNotDisclosed
			return
		}
		r.HeadquartersLocation = ""
		r.HQUnknown = true
		r.HQUnknownReason = string(reason)
		r.MissingReason[f] = reason

	case model.FieldManufacturing:
		if disclosedDenied {
			r.ManufacturingLocations = []string{model.NotDisclosed}
			r.MfgUnknown = true
			r.MfgUnknownReason = string(model.ReasonNotDisclosed)
			r.MissingReason[f] = model.ReasonNotDisclosed
			return
		}
		r.ManufacturingLocations = nil
		r.MfgUnknown = true
		r.MfgUnknownReason = string(reason)
		r.MissingReason[f] = reason
	}
}

// terminalizeValueField clears the canonical value so placeholder strings
// never persist; missingness lives in the *_unknown flag plus the reason map.
func terminalizeValueField(r *model.Record, f model.Field, reason model.MissingReason) {
	switch f {
	case model.FieldIndustries:
		r.Industries = nil
		r.IndustriesUnknown = true
	case model.FieldKeywords:
		r.ProductKeywords = nil
		r.ProductKeywordsUnknown = true
	case model.FieldTagline:
		r.Tagline = ""
		r.TaglineUnknown = true
	}
	r.MissingReason[f] = reason
}

// terminalizeReviews fixes the user-facing stage at "incomplete" (never
// "pending" or "exhausted") and marks the cursor exhausted. Terminality for
// reviews is carried by the cursor, not the stage.
func terminalizeReviews(r *model.Record, now time.Time) {
	c := r.Cursor()
	c.Exhausted = true
	c.StageStatus = model.StageIncomplete
	if c.ExhaustedAt == nil {
		c.ExhaustedAt = &now
	}
	if c.IncompleteReason == "" {
		c.IncompleteReason = deriveIncompleteReason(r)
	}
	r.ReviewsStageStatus = model.StageIncomplete
	r.MissingReason[model.FieldReviews] = model.ReasonExhausted
}

func deriveIncompleteReason(r *model.Record) string {
	if c := r.ReviewCursor; c != nil && c.LastError != nil {
		switch c.LastError.Code {
		case IncompleteUpstreamTimeout, IncompleteUpstreamUnreachable:
			return c.LastError.Code
		}
	}
	if len(r.CuratedReviews) > 0 {
		return IncompleteInsufficientReviews
	}
	return IncompleteNoValidReviews
}

// ForceTerminalizeAll settles every still-retryable missing field with the
// given reason. Used when the cycle cap is exhausted or a watchdog demands a
// terminal-only pass.
func ForceTerminalizeAll(r *model.Record, reason model.MissingReason, now time.Time) []model.Field {
	var settled []model.Field
	for _, f := range fields.RetryableMissing(r) {
		if Terminalize(r, f, reason, now) {
			settled = append(settled, f)
		}
	}
	return settled
}
