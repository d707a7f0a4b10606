package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

func emptyRecord() *model.Record {
	return &model.Record{ID: "rec-1", SessionID: "sess-1"}
}

func TestPlan_FreshSeedPlansEverything(t *testing.T) {
	req := Request{
		Record:          emptyRecord(),
		CycleCount:      1,
		RemainingBudget: 2 * time.Minute,
	}

	plan := Plan(req, nil)

	// A fresh seed ignores minimum-time thresholds so every outstanding
	// field gets some attempt before the first backoff.
	require.Len(t, plan, len(model.TargetFields()))
	assert.ElementsMatch(t, model.TargetFields(), plan)
}

func TestPlan_BudgetExcludesExpensiveFields(t *testing.T) {
	r := emptyRecord()
	// Not a fresh seed anymore.
	r.Attempts = map[model.Field]int{model.FieldTagline: 1}

	req := Request{
		Record:          r,
		CycleCount:      2,
		RemainingBudget: 8 * time.Second,
	}

	plan := Plan(req, nil)

	// Only tagline and logo fit in 8s (built-in minimum 5s); every heavy
	// field needs at least 10s.
	assert.ElementsMatch(t, []model.Field{model.FieldTagline, model.FieldLogo}, plan)
}

func TestPlan_SingleRecordOneHeavyPerCycle(t *testing.T) {
	r := emptyRecord()
	r.Attempts = map[model.Field]int{model.FieldTagline: 1}

	req := Request{
		Record:          r,
		CycleCount:      2,
		RemainingBudget: 5 * time.Minute,
		SingleRecord:    true,
	}

	plan := Plan(req, nil)

	heavyCount := 0
	for _, f := range plan {
		if f.Heavy() {
			heavyCount++
		}
	}
	assert.Equal(t, 1, heavyCount)
	// Light fields still ride along.
	assert.Contains(t, plan, model.FieldTagline)
	assert.Contains(t, plan, model.FieldLogo)
	// Headquarters wins the priority tie at equal attempt counts.
	assert.Equal(t, model.FieldHeadquarters, plan[0])
}

func TestPlan_SingleRecordFreshSeedPlansAllHeavy(t *testing.T) {
	req := Request{
		Record:          emptyRecord(),
		CycleCount:      0,
		RemainingBudget: 2 * time.Minute,
		SingleRecord:    true,
	}

	plan := Plan(req, nil)

	// The one-heavy throttle does not apply to a fresh seed: the first cycle
	// gives every outstanding field some attempt, heavy ones included.
	require.Len(t, plan, len(model.TargetFields()))
	assert.ElementsMatch(t, model.TargetFields(), plan)
}

func TestPlan_HeavySelectionPrefersLowestAttempts(t *testing.T) {
	r := emptyRecord()
	r.Attempts = map[model.Field]int{
		model.FieldHeadquarters:  2,
		model.FieldManufacturing: 1,
		model.FieldReviews:       2,
		model.FieldIndustries:    2,
		model.FieldKeywords:      2,
	}

	req := Request{
		Record:          r,
		CycleCount:      3,
		RemainingBudget: 5 * time.Minute,
		SingleRecord:    true,
	}

	plan := Plan(req, nil)
	require.NotEmpty(t, plan)
	assert.Equal(t, model.FieldManufacturing, plan[0])
}

func TestPlan_HeavyTieBrokenByLeastRecentlyAttempted(t *testing.T) {
	r := emptyRecord()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	r.Attempts = map[model.Field]int{
		model.FieldHeadquarters:  1,
		model.FieldManufacturing: 1,
	}
	r.AttemptMeta = map[model.Field]*model.AttemptMeta{
		model.FieldHeadquarters:  {LastAttemptAt: &newer},
		model.FieldManufacturing: {LastAttemptAt: &older},
	}

	req := Request{
		Record:          r,
		CycleCount:      2,
		RemainingBudget: 5 * time.Minute,
		SingleRecord:    true,
	}

	plan := Plan(req, nil)
	require.NotEmpty(t, plan)
	assert.Equal(t, model.FieldManufacturing, plan[0])
}

func TestPlan_SkipsFieldsAttemptedThisCycle(t *testing.T) {
	req := Request{
		Record:     emptyRecord(),
		CycleCount: 3,
		Progress: map[model.Field]*model.FieldProgress{
			model.FieldTagline: {Attempts: 1, LastCycleAttempted: 3},
			model.FieldLogo:    {Attempts: 1, LastCycleAttempted: 2},
		},
		RemainingBudget: 2 * time.Minute,
	}

	plan := Plan(req, nil)
	assert.NotContains(t, plan, model.FieldTagline)
	assert.Contains(t, plan, model.FieldLogo)
}

func TestPlan_ZeroCycleIndexDistinguishesAttempted(t *testing.T) {
	req := Request{
		Record:     emptyRecord(),
		CycleCount: 0,
		Progress: map[model.Field]*model.FieldProgress{
			// Attempted during cycle 0: excluded.
			model.FieldTagline: {Attempts: 1, LastCycleAttempted: 0},
			// Never attempted: a bare progress entry does not exclude.
			model.FieldLogo: {},
		},
		RemainingBudget: 2 * time.Minute,
	}

	plan := Plan(req, nil)
	assert.NotContains(t, plan, model.FieldTagline)
	assert.Contains(t, plan, model.FieldLogo)
}

func TestPlan_FallbackGuaranteesOneField(t *testing.T) {
	r := emptyRecord()
	r.Attempts = map[model.Field]int{model.FieldTagline: 1}

	req := Request{
		Record:          r,
		CycleCount:      2,
		RemainingBudget: time.Second, // below every minimum
	}

	plan := Plan(req, nil)
	require.Len(t, plan, 1)
	// The cheapest candidate is picked so it has the best chance to finish.
	assert.Equal(t, model.FieldTagline.MinBudget(), plan[0].MinBudget())
}

func TestPlan_NothingOutstanding(t *testing.T) {
	r := &model.Record{
		Tagline:              "Industrial sensors that last",
		HeadquartersLocation: "Austin, TX",
		ManufacturingLocations: []string{
			"Monterrey, Mexico",
		},
		Industries:         []string{"Technology"},
		ProductKeywords:    []string{"pressure sensor"},
		LogoURL:            "https://cdn.example.com/logo.png",
		ReviewCount:        4,
		ReviewsStageStatus: model.StageOK,
	}

	assert.Empty(t, Plan(Request{Record: r, CycleCount: 1, RemainingBudget: time.Minute}, nil))
}

func TestPolicy_Resolution(t *testing.T) {
	p := &Policy{
		Defaults: PolicyDefaults{MinBudgetSeconds: 7, MaxAttempts: 4},
		Fields: map[string]FieldPolicyConfig{
			string(model.FieldReviews): {MinBudgetSeconds: 90, MaxAttempts: 2},
		},
	}

	assert.Equal(t, 90*time.Second, p.MinBudget(model.FieldReviews))
	assert.Equal(t, 2, p.MaxAttempts(model.FieldReviews))
	assert.Equal(t, 7*time.Second, p.MinBudget(model.FieldTagline))
	assert.Equal(t, 4, p.MaxAttempts(model.FieldTagline))

	// Nil policy falls back to the built-in field table.
	var nilPolicy *Policy
	assert.Equal(t, model.FieldReviews.MinBudget(), nilPolicy.MinBudget(model.FieldReviews))
	assert.Equal(t, model.FieldReviews.DefaultMaxAttempts(), nilPolicy.MaxAttempts(model.FieldReviews))
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	data := []byte(`scheduling:
  defaults:
    min_budget_seconds: 5
    max_attempts: 3
  fields:
    reviews:
      min_budget_seconds: 45
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, p.MinBudget(model.FieldReviews))
	assert.Equal(t, 5*time.Second, p.MinBudget(model.FieldTagline))

	_, err = LoadPolicy(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
