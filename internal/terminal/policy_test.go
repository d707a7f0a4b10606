package terminal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resume-orchestrator/internal/fields"
	"github.com/sells-group/resume-orchestrator/internal/model"
)

func TestTerminalize_HeadquartersNotDisclosed(t *testing.T) {
	r := &model.Record{}
	now := time.Now()

	require.True(t, Terminalize(r, model.FieldHeadquarters, model.ReasonNotDisclosed, now))

	assert.Equal(t, model.NotDisclosed, r.HeadquartersLocation)
	assert.True(t, r.HQUnknown)
	assert.Equal(t, string(model.ReasonNotDisclosed), r.HQUnknownReason)
	assert.Equal(t, model.ReasonNotDisclosed, r.MissingReason[model.FieldHeadquarters])

	// The sentinel plus confirmed reason satisfies the contract.
	assert.True(t, fields.IsPresent(model.FieldHeadquarters, r))
}

func TestTerminalize_HeadquartersExhaustedClearsValue(t *testing.T) {
	r := &model.Record{HeadquartersLocation: "unknown"}
	now := time.Now()

	require.True(t, Terminalize(r, model.FieldHeadquarters, model.ReasonExhausted, now))

	assert.Empty(t, r.HeadquartersLocation)
	assert.True(t, r.HQUnknown)
	assert.Equal(t, model.ReasonExhausted, r.MissingReason[model.FieldHeadquarters])
}

func TestTerminalize_ManufacturingSentinel(t *testing.T) {
	r := &model.Record{}
	now := time.Now()

	require.True(t, Terminalize(r, model.FieldManufacturing, model.ReasonNotDisclosed, now))
	assert.Equal(t, []string{model.NotDisclosed}, r.ManufacturingLocations)
	assert.True(t, fields.IsPresent(model.FieldManufacturing, r))
}

func TestTerminalize_ValueFieldsNeverKeepPlaceholders(t *testing.T) {
	r := &model.Record{
		Industries:      []string{"Unknown"},
		ProductKeywords: []string{"unknown"},
		Tagline:         "n/a",
	}
	now := time.Now()

	Terminalize(r, model.FieldIndustries, model.ReasonNotFoundTerminal, now)
	Terminalize(r, model.FieldKeywords, model.ReasonLowQualityTermin, now)
	Terminalize(r, model.FieldTagline, model.ReasonNotFoundTerminal, now)

	assert.Empty(t, r.Industries)
	assert.Empty(t, r.ProductKeywords)
	assert.Empty(t, r.Tagline)
	assert.True(t, r.IndustriesUnknown)
	assert.True(t, r.ProductKeywordsUnknown)
	assert.True(t, r.TaglineUnknown)
	assert.Equal(t, model.ReasonLowQualityTermin, r.MissingReason[model.FieldKeywords])
}

func TestTerminalize_ReviewsFixesStageIncomplete(t *testing.T) {
	r := &model.Record{ReviewsStageStatus: model.StagePending}
	now := time.Now()

	require.True(t, Terminalize(r, model.FieldReviews, model.ReasonExhausted, now))

	// Terminal completion must never leave the stage at "pending";
	// terminality is carried by the cursor, the stage stays "incomplete".
	assert.Equal(t, model.StageIncomplete, r.ReviewsStageStatus)
	require.NotNil(t, r.ReviewCursor)
	assert.True(t, r.ReviewCursor.Exhausted)
	assert.Equal(t, model.StageIncomplete, r.ReviewCursor.StageStatus)
	assert.Equal(t, IncompleteNoValidReviews, r.ReviewCursor.IncompleteReason)
	require.NotNil(t, r.ReviewCursor.ExhaustedAt)
	assert.True(t, fields.IsPresent(model.FieldReviews, r))
}

func TestTerminalize_ReviewsIncompleteReasonFromLastError(t *testing.T) {
	r := &model.Record{
		ReviewCursor: &model.ReviewCursor{
			LastError: &model.FieldError{Code: IncompleteUpstreamTimeout},
		},
	}
	Terminalize(r, model.FieldReviews, model.ReasonExhausted, time.Now())
	assert.Equal(t, IncompleteUpstreamTimeout, r.ReviewCursor.IncompleteReason)
}

func TestTerminalize_Monotonic(t *testing.T) {
	r := &model.Record{}
	now := time.Now()

	require.True(t, Terminalize(r, model.FieldHeadquarters, model.ReasonNotDisclosed, now))
	// A later exhausted write must not downgrade the confirmed sentinel.
	require.False(t, Terminalize(r, model.FieldHeadquarters, model.ReasonExhausted, now.Add(time.Hour)))
	assert.Equal(t, model.NotDisclosed, r.HeadquartersLocation)
	assert.Equal(t, model.ReasonNotDisclosed, r.MissingReason[model.FieldHeadquarters])

	require.True(t, Terminalize(r, model.FieldReviews, model.ReasonExhausted, now))
	require.False(t, Terminalize(r, model.FieldReviews, model.ReasonExhausted, now.Add(time.Hour)))
}

func TestTerminalize_NonTerminalReasonCoerced(t *testing.T) {
	r := &model.Record{}
	Terminalize(r, model.FieldTagline, model.ReasonLowQuality, time.Now())
	assert.Equal(t, model.ReasonExhausted, r.MissingReason[model.FieldTagline])
}

func TestForceTerminalizeAll(t *testing.T) {
	r := &model.Record{Tagline: "Real tagline with meaning"}
	now := time.Now()

	settled := ForceTerminalizeAll(r, model.ReasonCycleCapExhausted, now)

	// Tagline was present; everything else settles.
	assert.NotContains(t, settled, model.FieldTagline)
	assert.Len(t, settled, len(model.TargetFields())-1)

	// No field remains retryable afterwards.
	assert.Empty(t, fields.RetryableMissing(r))
	assert.Equal(t, model.ReasonCycleCapExhausted, r.MissingReason[model.FieldIndustries])
}
