// Package scheduler decides which still-missing fields get attempted in the
// current cycle, trading field minimum-time requirements against the
// remaining run budget.
package scheduler

import (
	"sort"
	"time"

	"github.com/sells-group/resume-orchestrator/internal/fields"
	"github.com/sells-group/resume-orchestrator/internal/model"
)

// Request carries one record's scheduling inputs for a cycle.
type Request struct {
	Record *model.Record

	// Progress is the control document's per-field mirror for this record; a
	// field already attempted at the current cycle index is off the table.
	Progress map[model.Field]*model.FieldProgress

	// CycleCount is the zero-based index of the cycle being planned.
	CycleCount int

	RemainingBudget time.Duration

	// SingleRecord enables the one-heavy-field-per-cycle throttle.
	SingleRecord bool
}

// Plan returns the fields to attempt this cycle, heavy field first. When any
// candidates are outstanding the plan is never empty, even if minimum-time
// thresholds would otherwise exclude everything.
func Plan(req Request, policy *Policy) []model.Field {
	candidates := candidateFields(req)
	if len(candidates) == 0 {
		return nil
	}

	freshSeed := req.Record.FreshSeed()

	// On a fresh seed the budget is sliced evenly across all outstanding
	// fields so every field gets some attempt before the first backoff;
	// afterwards a field that cannot possibly finish in the remaining budget
	// is deferred.
	var eligible []model.Field
	if freshSeed {
		eligible = candidates
	} else {
		for _, f := range candidates {
			if policy.MinBudget(f) <= req.RemainingBudget {
				eligible = append(eligible, f)
			}
		}
	}

	plan := assemble(req, eligible)

	// Fallback: never plan zero while work is outstanding, or the session
	// would loop without progress forever.
	if len(plan) == 0 {
		plan = []model.Field{cheapest(candidates, policy)}
	}
	return plan
}

// FieldBudget returns the per-field share of the remaining budget for a plan.
// Fresh seeds slice evenly; otherwise each field gets the full remainder and
// the orchestrator deducts as it goes.
func FieldBudget(req Request, planned int) time.Duration {
	if planned <= 0 {
		return req.RemainingBudget
	}
	if req.Record.FreshSeed() {
		return req.RemainingBudget / time.Duration(planned)
	}
	return req.RemainingBudget
}

func candidateFields(req Request) []model.Field {
	var out []model.Field
	for _, f := range fields.RetryableMissing(req.Record) {
		if fp, ok := req.Progress[f]; ok && fp.Attempts > 0 && fp.LastCycleAttempted == req.CycleCount {
			continue
		}
		out = append(out, f)
	}
	return out
}

// assemble applies the heavy throttle: in single-record mode only the best
// heavy candidate survives, light fields all pass. Fresh seeds are exempt
// from the throttle; the first cycle slices its budget across every
// outstanding field, heavy ones included.
func assemble(req Request, eligible []model.Field) []model.Field {
	var heavy, light []model.Field
	for _, f := range eligible {
		if f.Heavy() {
			heavy = append(heavy, f)
		} else {
			light = append(light, f)
		}
	}

	sortHeavy(req.Record, heavy)
	if req.SingleRecord && len(heavy) > 1 && !req.Record.FreshSeed() {
		heavy = heavy[:1]
	}
	return append(heavy, light...)
}

// sortHeavy orders heavy candidates lowest-attempt-count first, then
// least-recently-attempted, then by the fixed field priority.
func sortHeavy(r *model.Record, heavy []model.Field) {
	sort.SliceStable(heavy, func(i, j int) bool {
		ai, aj := r.AttemptCount(heavy[i]), r.AttemptCount(heavy[j])
		if ai != aj {
			return ai < aj
		}
		ti, tj := lastAttempt(r, heavy[i]), lastAttempt(r, heavy[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return heavy[i].Priority() < heavy[j].Priority()
	})
}

func lastAttempt(r *model.Record, f model.Field) time.Time {
	if m, ok := r.AttemptMeta[f]; ok && m != nil && m.LastAttemptAt != nil {
		return *m.LastAttemptAt
	}
	return time.Time{}
}

func cheapest(candidates []model.Field, policy *Policy) model.Field {
	best := candidates[0]
	for _, f := range candidates[1:] {
		if policy.MinBudget(f) < policy.MinBudget(best) {
			best = f
		}
	}
	return best
}
