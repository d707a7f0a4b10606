// Package provider is the client for the upstream enrichment service: one
// field-fetch call with a soft deadline and a typed result status. Expected
// upstream outcomes (not found, not disclosed, timeout, unreachable) are
// statuses on the result, never Go errors; an error return means the request
// itself could not be performed.
package provider

import (
	"context"
	"time"
)

// Status classifies one fetch outcome.
type Status string

const (
	StatusOK                  Status = "ok"
	StatusNotFound            Status = "not_found"
	StatusNotDisclosed        Status = "not_disclosed"
	StatusDeferred            Status = "deferred"
	StatusUpstreamTimeout     Status = "upstream_timeout"
	StatusUpstreamUnreachable Status = "upstream_unreachable"
)

// FieldRequest identifies the record field to fetch and the time budget the
// upstream must respect as a soft deadline.
type FieldRequest struct {
	Field    string        `json:"field"`
	RecordID string        `json:"record_id"`
	Name     string        `json:"name,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Budget   time.Duration `json:"-"`
}

// FieldResult is the typed fetch outcome.
type FieldResult struct {
	Status Status `json:"status"`

	// Value holds the fetched values on StatusOK. Single-valued fields use
	// one element.
	Value []string `json:"value,omitempty"`

	// LowQuality marks an ok result whose content failed the quality gate
	// upstream; the caller counts it separately toward the low-quality cap.
	LowQuality bool `json:"low_quality,omitempty"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics carries upstream telemetry for backoff classification.
type Diagnostics struct {
	HTTPStatus  int           `json:"http_status,omitempty"`
	RateLimited bool          `json:"rate_limited,omitempty"`
	Message     string        `json:"message,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ms,omitempty"`
}

// Client fetches one field for one record.
type Client interface {
	FetchField(ctx context.Context, req FieldRequest) (*FieldResult, error)
}
