// Package fields implements the required-fields contract: the pure, total
// presence check that decides which target fields of a record still need
// enrichment, plus the sanitizers that keep placeholder junk out of the
// canonical values.
package fields

import (
	"strings"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// ReviewsMinViable is the minimum curated review count below which an
// exhausted reviews pipeline stays retryable. A single verified review is
// below the quality bar; a fresh attempt may discover different source URLs.
const ReviewsMinViable = 2

// looksLikeHQ accepts "City, Region" style strings, or any two-word string of
// reasonable length. Kept simple and deterministic.
func looksLikeHQ(s string) bool {
	s = meaningfulString(s)
	if s == "" || isSentinel(s) {
		return false
	}
	parts := strings.Split(s, ",")
	if len(parts) >= 2 {
		city := strings.TrimSpace(parts[0])
		region := strings.TrimSpace(parts[1])
		if len(city) >= 2 && len(region) >= 2 {
			return true
		}
	}
	if len(strings.Fields(s)) >= 2 && len(s) <= 80 {
		return true
	}
	return false
}

// hasRealLocationEntry reports whether any list entry is neither empty,
// placeholder nor sentinel.
func hasRealLocationEntry(list []string) bool {
	for _, loc := range list {
		key := normalizeKey(loc)
		if key == "" {
			continue
		}
		if _, p := placeholderStrings[key]; p {
			continue
		}
		if _, s := sentinelStrings[key]; s {
			continue
		}
		return true
	}
	return false
}

// sentinelAccepted reports whether a location field's "Not disclosed" value
// may satisfy the contract: only with the matching typed reason recorded, so
// the sentinel is never a silent placeholder.
func sentinelAccepted(r *model.Record, f model.Field) bool {
	return DeriveReason(r, f) == model.ReasonNotDisclosed
}

// IsPresent is the required-fields contract check for one field. It is pure
// (no writes) and total (any record state yields an answer). A field is
// present when it holds a real meaningful value, or an explicit typed
// sentinel acceptable for terminal completion.
func IsPresent(f model.Field, r *model.Record) bool {
	switch f {
	case model.FieldIndustries:
		return len(SanitizeIndustries(r.Industries)) > 0

	case model.FieldKeywords:
		return len(SanitizeKeywords(r.ProductKeywords)) > 0

	case model.FieldTagline:
		return meaningfulString(r.Tagline) != ""

	case model.FieldHeadquarters:
		// Data wins over flag: a real value satisfies the field even when a
		// stale hq_unknown flag survived a partial write.
		if isSentinel(r.HeadquartersLocation) {
			return sentinelAccepted(r, f)
		}
		return looksLikeHQ(r.HeadquartersLocation)

	case model.FieldManufacturing:
		if hasRealLocationEntry(r.ManufacturingLocations) {
			return true
		}
		for _, loc := range r.ManufacturingLocations {
			if isSentinel(loc) {
				return sentinelAccepted(r, f)
			}
		}
		return false

	case model.FieldLogo:
		if meaningfulString(r.LogoURL) != "" {
			return true
		}
		// A terminal stage status is an accepted outcome: the site was
		// inspected and verifiably has no logo.
		switch normalizeKey(r.LogoStageStatus) {
		case model.LogoStageNotFoundOnSite, model.LogoStageMissing:
			return true
		}
		return false

	case model.FieldReviews:
		if len(r.CuratedReviews) > 0 {
			return true
		}
		if r.ReviewCount > 0 && normalizeKey(r.ReviewsStageStatus) == model.StageOK {
			return true
		}
		// Exhaustion marker: retries are over, the field is settled.
		return r.ReviewCursor != nil && r.ReviewCursor.Exhausted
	}

	// Unknown fields are conservatively absent.
	return false
}

// Missing returns the target fields the record still lacks, in evaluation
// order.
func Missing(r *model.Record) []model.Field {
	var missing []model.Field
	for _, f := range model.TargetFields() {
		if !IsPresent(f, r) {
			missing = append(missing, f)
		}
	}
	return missing
}

// DeriveReason resolves the typed missing-reason for a field, preferring the
// explicit per-field reason map and falling back to field-specific markers.
// "Not disclosed" values without a confirmed reason deliberately derive
// nothing, so a premature sentinel never stops retries.
func DeriveReason(r *model.Record, f model.Field) model.MissingReason {
	switch f {
	case model.FieldHeadquarters:
		if reason := firstReason(r.MissingReason[f], model.MissingReason(normalizeKey(r.HQUnknownReason))); reason == model.ReasonNotDisclosed {
			return model.ReasonNotDisclosed
		}
	case model.FieldManufacturing:
		if reason := firstReason(r.MissingReason[f], model.MissingReason(normalizeKey(r.MfgUnknownReason))); reason == model.ReasonNotDisclosed {
			return model.ReasonNotDisclosed
		}
	case model.FieldReviews:
		stage := normalizeKey(r.ReviewsStageStatus)
		cursorExhausted := r.ReviewCursor != nil && r.ReviewCursor.Exhausted
		if stage == "exhausted" || cursorExhausted {
			if len(r.CuratedReviews) < ReviewsMinViable {
				return model.ReasonExhaustedRetryable
			}
			return model.ReasonExhausted
		}
	}

	if direct, ok := r.MissingReason[f]; ok && direct != "" {
		return direct
	}

	if f == model.FieldLogo && normalizeKey(r.LogoStageStatus) == model.LogoStageNotFoundOnSite {
		return model.ReasonNotFoundOnSite
	}
	return ""
}

func firstReason(reasons ...model.MissingReason) model.MissingReason {
	for _, r := range reasons {
		if r != "" {
			return r
		}
	}
	return ""
}

// TerminallyMissing reports whether a field is missing for a reason that
// permanently ends retries.
func TerminallyMissing(r *model.Record, f model.Field) bool {
	return DeriveReason(r, f).Terminal()
}

// RetryableMissing returns the missing fields that are still worth
// attempting: missing under the contract and not terminally settled.
func RetryableMissing(r *model.Record) []model.Field {
	var out []model.Field
	for _, f := range Missing(r) {
		if !TerminallyMissing(r, f) {
			out = append(out, f)
		}
	}
	return out
}

// Meaningful exposes the placeholder-rejecting string check for other
// packages (reconcile pass, terminalization writes).
func Meaningful(s string) string { return meaningfulString(s) }

// Placeholder reports whether s is one of the junk placeholder strings.
func Placeholder(s string) bool { return isPlaceholder(s) }

// Sentinel reports whether s is a typed not-disclosed sentinel.
func Sentinel(s string) bool { return isSentinel(s) }
