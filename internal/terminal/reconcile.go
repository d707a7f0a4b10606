package terminal

import (
	"strings"
	"time"

	"github.com/sells-group/resume-orchestrator/internal/fields"
	"github.com/sells-group/resume-orchestrator/internal/model"
)

func normKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// Reconcile repairs placeholder hygiene on a record before scheduling.
// Premature sentinels and "Unknown" values written by earlier pipeline stages
// are cleared back to retryable-missing unless the field is confirmed
// terminal, so a placeholder never silently stops retries. Returns true when
// anything changed.
func Reconcile(r *model.Record, maxLocationAttempts int, now time.Time) bool {
	changed := false
	r.EnsureMaps()

	// Never persist "Unknown" as a canonical list value for retryable fields.
	if len(r.Industries) == 1 && fields.Placeholder(r.Industries[0]) &&
		!fields.TerminallyMissing(r, model.FieldIndustries) {
		r.Industries = nil
		r.IndustriesUnknown = true
		if r.MissingReason[model.FieldIndustries] == "" {
			r.MissingReason[model.FieldIndustries] = model.ReasonNotFound
		}
		changed = true
	}

	if allPlaceholders(r.ProductKeywords) && len(r.ProductKeywords) > 0 &&
		!fields.TerminallyMissing(r, model.FieldKeywords) {
		r.ProductKeywords = nil
		r.ProductKeywordsUnknown = true
		if r.MissingReason[model.FieldKeywords] == "" {
			r.MissingReason[model.FieldKeywords] = model.ReasonNotFound
		}
		changed = true
	}

	if fields.Sentinel(r.HeadquartersLocation) {
		changed = reconcileHQSentinel(r, maxLocationAttempts) || changed
	}
	if len(r.ManufacturingLocations) > 0 && allSentinels(r.ManufacturingLocations) {
		changed = reconcileMfgSentinel(r, maxLocationAttempts) || changed
	}

	changed = reconcileReviews(r, now) || changed
	return changed
}

func allPlaceholders(list []string) bool {
	for _, v := range list {
		if !fields.Placeholder(v) {
			return false
		}
	}
	return true
}

func allSentinels(list []string) bool {
	for _, v := range list {
		if normKey(v) == "" {
			continue
		}
		if !fields.Sentinel(v) {
			return false
		}
	}
	return true
}

func reconcileHQSentinel(r *model.Record, maxAttempts int) bool {
	changed := false
	reason := normKey(string(r.MissingReason[model.FieldHeadquarters]))
	if reason == "" {
		reason = normKey(r.HQUnknownReason)
	}
	confirmed := reason == string(model.ReasonNotDisclosed) ||
		r.AttemptCount(model.FieldHeadquarters) >= maxAttempts

	if !confirmed {
		// Premature sentinel: clear the visible value and keep the field
		// retryable.
		if strings.TrimSpace(r.HeadquartersLocation) != "" {
			r.HeadquartersLocation = ""
			changed = true
		}
		if !r.HQUnknown {
			r.HQUnknown = true
			changed = true
		}
		if normKey(r.HQUnknownReason) != string(model.ReasonPending) {
			r.HQUnknownReason = string(model.ReasonPending)
			changed = true
		}
		stored := r.MissingReason[model.FieldHeadquarters]
		if stored == "" || stored == model.ReasonNotDisclosed {
			r.MissingReason[model.FieldHeadquarters] = model.ReasonNotDisclosedPend
			changed = true
		}
		return changed
	}

	if !r.HQUnknown {
		r.HQUnknown = true
		changed = true
	}
	if normKey(r.HQUnknownReason) != string(model.ReasonNotDisclosed) {
		r.HQUnknownReason = string(model.ReasonNotDisclosed)
		changed = true
	}
	if r.MissingReason[model.FieldHeadquarters] != model.ReasonNotDisclosed {
		r.MissingReason[model.FieldHeadquarters] = model.ReasonNotDisclosed
		changed = true
	}
	return changed
}

func reconcileMfgSentinel(r *model.Record, maxAttempts int) bool {
	changed := false
	reason := normKey(string(r.MissingReason[model.FieldManufacturing]))
	if reason == "" {
		reason = normKey(r.MfgUnknownReason)
	}
	confirmed := reason == string(model.ReasonNotDisclosed) ||
		r.AttemptCount(model.FieldManufacturing) >= maxAttempts

	if !confirmed {
		if len(r.ManufacturingLocations) > 0 {
			r.ManufacturingLocations = nil
			changed = true
		}
		if !r.MfgUnknown {
			r.MfgUnknown = true
			changed = true
		}
		if normKey(r.MfgUnknownReason) != string(model.ReasonPending) {
			r.MfgUnknownReason = string(model.ReasonPending)
			changed = true
		}
		stored := r.MissingReason[model.FieldManufacturing]
		if stored == "" || stored == model.ReasonNotDisclosed {
			r.MissingReason[model.FieldManufacturing] = model.ReasonNotDisclosedPend
			changed = true
		}
		return changed
	}

	if !(len(r.ManufacturingLocations) == 1 && fields.Sentinel(r.ManufacturingLocations[0])) {
		r.ManufacturingLocations = []string{model.NotDisclosed}
		changed = true
	}
	if !r.MfgUnknown {
		r.MfgUnknown = true
		changed = true
	}
	if normKey(r.MfgUnknownReason) != string(model.ReasonNotDisclosed) {
		r.MfgUnknownReason = string(model.ReasonNotDisclosed)
		changed = true
	}
	if r.MissingReason[model.FieldManufacturing] != model.ReasonNotDisclosed {
		r.MissingReason[model.FieldManufacturing] = model.ReasonNotDisclosed
		changed = true
	}
	return changed
}

// reconcileReviews normalizes any exhausted reviews state onto the canonical
// terminal shape: cursor.exhausted carries terminality, the user-facing stage
// is "incomplete", never "pending" or "exhausted".
func reconcileReviews(r *model.Record, now time.Time) bool {
	stage := normKey(r.ReviewsStageStatus)
	cursorExhausted := r.ReviewCursor != nil && r.ReviewCursor.Exhausted
	if stage != "exhausted" && !cursorExhausted {
		return false
	}

	changed := false
	c := r.Cursor()
	if !c.Exhausted {
		c.Exhausted = true
		changed = true
	}
	if stage == "" || stage == model.StagePending || stage == "exhausted" {
		r.ReviewsStageStatus = model.StageIncomplete
		changed = true
	}
	cs := normKey(c.StageStatus)
	if cs == "" || cs == model.StagePending || cs == "exhausted" {
		c.StageStatus = model.StageIncomplete
		changed = true
	}
	if c.ExhaustedAt == nil {
		c.ExhaustedAt = &now
		changed = true
	}
	if c.IncompleteReason == "" {
		c.IncompleteReason = deriveIncompleteReason(r)
		changed = true
	}
	if r.MissingReason[model.FieldReviews] != model.ReasonExhausted {
		r.MissingReason[model.FieldReviews] = model.ReasonExhausted
		changed = true
	}
	return changed
}
