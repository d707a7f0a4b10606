package terminal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resume-orchestrator/internal/fields"
	"github.com/sells-group/resume-orchestrator/internal/model"
)

const maxLocAttempts = 3

func TestReconcile_ClearsUnknownIndustries(t *testing.T) {
	r := &model.Record{Industries: []string{"Unknown"}}

	require.True(t, Reconcile(r, maxLocAttempts, time.Now()))

	assert.Empty(t, r.Industries)
	assert.True(t, r.IndustriesUnknown)
	assert.Equal(t, model.ReasonNotFound, r.MissingReason[model.FieldIndustries])
	// Still retryable: hygiene must not terminalize.
	assert.Contains(t, fields.RetryableMissing(r), model.FieldIndustries)
}

func TestReconcile_PrematureHQSentinelClearedToRetryable(t *testing.T) {
	r := &model.Record{HeadquartersLocation: model.NotDisclosed}

	require.True(t, Reconcile(r, maxLocAttempts, time.Now()))

	assert.Empty(t, r.HeadquartersLocation)
	assert.True(t, r.HQUnknown)
	assert.Equal(t, string(model.ReasonPending), r.HQUnknownReason)
	assert.Equal(t, model.ReasonNotDisclosedPend, r.MissingReason[model.FieldHeadquarters])
	assert.Contains(t, fields.RetryableMissing(r), model.FieldHeadquarters)
}

func TestReconcile_ConfirmedHQSentinelKept(t *testing.T) {
	r := &model.Record{
		HeadquartersLocation: model.NotDisclosed,
		HQUnknownReason:      string(model.ReasonNotDisclosed),
	}

	Reconcile(r, maxLocAttempts, time.Now())

	assert.Equal(t, model.NotDisclosed, r.HeadquartersLocation)
	assert.Equal(t, model.ReasonNotDisclosed, r.MissingReason[model.FieldHeadquarters])
	assert.True(t, fields.IsPresent(model.FieldHeadquarters, r))
}

func TestReconcile_HQSentinelConfirmedByAttemptCap(t *testing.T) {
	r := &model.Record{
		HeadquartersLocation: model.NotDisclosed,
		Attempts:             map[model.Field]int{model.FieldHeadquarters: maxLocAttempts},
	}

	Reconcile(r, maxLocAttempts, time.Now())
	assert.Equal(t, model.ReasonNotDisclosed, r.MissingReason[model.FieldHeadquarters])
	assert.Equal(t, model.NotDisclosed, r.HeadquartersLocation)
}

func TestReconcile_PrematureMfgSentinelCleared(t *testing.T) {
	r := &model.Record{ManufacturingLocations: []string{model.NotDisclosed}}

	require.True(t, Reconcile(r, maxLocAttempts, time.Now()))

	assert.Empty(t, r.ManufacturingLocations)
	assert.Equal(t, model.ReasonNotDisclosedPend, r.MissingReason[model.FieldManufacturing])
	assert.Contains(t, fields.RetryableMissing(r), model.FieldManufacturing)
}

func TestReconcile_ExhaustedStageNormalized(t *testing.T) {
	r := &model.Record{ReviewsStageStatus: "exhausted"}
	now := time.Now()

	require.True(t, Reconcile(r, maxLocAttempts, now))

	assert.Equal(t, model.StageIncomplete, r.ReviewsStageStatus)
	require.NotNil(t, r.ReviewCursor)
	assert.True(t, r.ReviewCursor.Exhausted)
	assert.Equal(t, model.StageIncomplete, r.ReviewCursor.StageStatus)
	assert.NotEmpty(t, r.ReviewCursor.IncompleteReason)
	assert.Equal(t, model.ReasonExhausted, r.MissingReason[model.FieldReviews])
}

func TestReconcile_Idempotent(t *testing.T) {
	r := &model.Record{
		HeadquartersLocation:   model.NotDisclosed,
		ManufacturingLocations: []string{model.NotDisclosed},
		Industries:             []string{"unknown"},
		ReviewsStageStatus:     "exhausted",
	}
	now := time.Now()

	require.True(t, Reconcile(r, maxLocAttempts, now))
	assert.False(t, Reconcile(r, maxLocAttempts, now.Add(time.Minute)))
}

func TestReconcile_CleanRecordUntouched(t *testing.T) {
	r := &model.Record{
		Tagline:              "Precision optics for labs",
		HeadquartersLocation: "Boulder, CO",
		Industries:           []string{"Technology"},
	}
	assert.False(t, Reconcile(r, maxLocAttempts, time.Now()))
	assert.Equal(t, "Boulder, CO", r.HeadquartersLocation)
}
