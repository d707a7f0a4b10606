package model

import "time"

// NotDisclosed is the typed sentinel written into location fields once a
// not_disclosed terminal reason is confirmed. It is never written without the
// matching MissingReason entry.
const NotDisclosed = "Not disclosed"

// Stage status values shared by the reviews and logo pipelines.
const (
	StagePending    = "pending"
	StageOK         = "ok"
	StageIncomplete = "incomplete"

	LogoStageNotFoundOnSite = "not_found_on_site"
	LogoStageMissing        = "missing"
)

// MissingReason is the typed reason a field is known-missing. Terminal
// reasons end retries permanently; the rest stay retryable.
type MissingReason string

const (
	ReasonNotFound           MissingReason = "not_found"
	ReasonLowQuality         MissingReason = "low_quality"
	ReasonPending            MissingReason = "pending"
	ReasonNotDisclosedPend   MissingReason = "not_disclosed_pending"
	ReasonExhaustedRetryable MissingReason = "exhausted_retryable"

	ReasonNotDisclosed      MissingReason = "not_disclosed"
	ReasonExhausted         MissingReason = "exhausted"
	ReasonNotFoundTerminal  MissingReason = "not_found_terminal"
	ReasonLowQualityTermin  MissingReason = "low_quality_terminal"
	ReasonNotFoundOnSite    MissingReason = "not_found_on_site"
	ReasonCycleCapExhausted MissingReason = "cycle_cap_exhausted"
)

// Terminal reports whether the reason permanently ends retries for a field.
func (r MissingReason) Terminal() bool {
	switch r {
	case ReasonNotDisclosed, ReasonExhausted, ReasonNotFoundTerminal,
		ReasonLowQualityTermin, ReasonNotFoundOnSite, ReasonCycleCapExhausted:
		return true
	}
	return false
}

// FieldError is a bounded error descriptor stored per field. Message is
// truncated at write time; payloads are never stored.
type FieldError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// AttemptMeta records per-field attempt bookkeeping on the record.
type AttemptMeta struct {
	LastAttemptAt *time.Time  `json:"last_attempt_at,omitempty"`
	LastSuccessAt *time.Time  `json:"last_success_at,omitempty"`
	LastError     *FieldError `json:"last_error,omitempty"`
	LastRequestID string      `json:"last_request_id,omitempty"`
}

// Review is a single curated review entry.
type Review struct {
	Author    string  `json:"author,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Text      string  `json:"text"`
	SourceURL string  `json:"source_url,omitempty"`
	Verified  bool    `json:"verified,omitempty"`
}

// ReviewCursor tracks the reviews sub-pipeline's retry state. Exhausted is
// the terminal marker the orchestrator reads; the user-facing stage status is
// kept separate because downstream consumers read it as final.
type ReviewCursor struct {
	Exhausted        bool        `json:"exhausted"`
	StageStatus      string      `json:"reviews_stage_status,omitempty"`
	IncompleteReason string      `json:"incomplete_reason,omitempty"`
	AttemptedURLs    []string    `json:"attempted_urls,omitempty"`
	ExhaustedAt      *time.Time  `json:"exhausted_at,omitempty"`
	LastError        *FieldError `json:"last_error,omitempty"`
}

// Record is an organization profile under enrichment. Canonical field values
// never hold placeholder strings; missingness is encoded via the *_unknown
// flags plus the MissingReason map.
type Record struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Domain    string `json:"normalized_domain"`

	Tagline        string `json:"tagline,omitempty"`
	TaglineUnknown bool   `json:"tagline_unknown,omitempty"`

	HeadquartersLocation string `json:"headquarters_location,omitempty"`
	HQUnknown            bool   `json:"hq_unknown,omitempty"`
	HQUnknownReason      string `json:"hq_unknown_reason,omitempty"`

	ManufacturingLocations []string `json:"manufacturing_locations,omitempty"`
	MfgUnknown             bool     `json:"mfg_unknown,omitempty"`
	MfgUnknownReason       string   `json:"mfg_unknown_reason,omitempty"`

	Industries        []string `json:"industries,omitempty"`
	IndustriesUnknown bool     `json:"industries_unknown,omitempty"`

	ProductKeywords        []string `json:"product_keywords,omitempty"`
	ProductKeywordsUnknown bool     `json:"product_keywords_unknown,omitempty"`

	LogoURL         string `json:"logo_url,omitempty"`
	LogoStageStatus string `json:"logo_stage_status,omitempty"`

	CuratedReviews     []Review      `json:"curated_reviews,omitempty"`
	ReviewCount        int           `json:"review_count"`
	ReviewsStageStatus string        `json:"reviews_stage_status,omitempty"`
	ReviewCursor       *ReviewCursor `json:"review_cursor,omitempty"`

	Attempts           map[Field]int           `json:"attempts,omitempty"`
	LowQualityAttempts map[Field]int           `json:"low_quality_attempts,omitempty"`
	AttemptMeta        map[Field]*AttemptMeta  `json:"attempt_meta,omitempty"`
	MissingReason      map[Field]MissingReason `json:"missing_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnsureMaps lazily initializes the attempt bookkeeping maps.
func (r *Record) EnsureMaps() {
	if r.Attempts == nil {
		r.Attempts = make(map[Field]int)
	}
	if r.LowQualityAttempts == nil {
		r.LowQualityAttempts = make(map[Field]int)
	}
	if r.AttemptMeta == nil {
		r.AttemptMeta = make(map[Field]*AttemptMeta)
	}
	if r.MissingReason == nil {
		r.MissingReason = make(map[Field]MissingReason)
	}
}

// Meta returns the attempt metadata block for a field, creating it if needed.
func (r *Record) Meta(f Field) *AttemptMeta {
	r.EnsureMaps()
	m := r.AttemptMeta[f]
	if m == nil {
		m = &AttemptMeta{}
		r.AttemptMeta[f] = m
	}
	return m
}

// AttemptCount returns the real attempt count for a field.
func (r *Record) AttemptCount(f Field) int {
	if r.Attempts == nil {
		return 0
	}
	return r.Attempts[f]
}

// Cursor returns the review cursor, creating it if needed.
func (r *Record) Cursor() *ReviewCursor {
	if r.ReviewCursor == nil {
		r.ReviewCursor = &ReviewCursor{}
	}
	return r.ReviewCursor
}

// FreshSeed reports whether no field of the record has ever been attempted.
// The scheduler slices the budget evenly across all outstanding fields on a
// fresh seed so every field gets some attempt before the first backoff.
func (r *Record) FreshSeed() bool {
	for _, n := range r.Attempts {
		if n > 0 {
			return false
		}
	}
	return true
}
