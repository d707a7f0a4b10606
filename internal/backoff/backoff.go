// Package backoff classifies a cycle's field outcomes and picks the re-run
// delay. Each class carries its own fixed schedule indexed by consecutive
// cycle count; classification precedence is first-match-wins.
package backoff

import "time"

// Reason labels the dominant outcome class of a cycle. Stored on the control
// document as last_backoff_reason.
type Reason string

const (
	ReasonRateLimited Reason = "rate_limited"
	ReasonTimeout     Reason = "upstream_timeout"
	ReasonNetwork     Reason = "upstream_unreachable"
	ReasonNotFound    Reason = "not_found"
	ReasonBudgetSkip  Reason = "budget_skip"
	ReasonDefault     Reason = "default"
)

// Observation is what the orchestrator saw for the fields of one cycle.
type Observation struct {
	RateLimited bool
	TimedOut    bool
	NetworkErr  bool
	NotFound    bool
	BudgetSkip  bool
}

// Rate limiting gets the longest, most aggressively growing schedule; a clean
// not-found retries on a short flat delay since upstream results vary run to
// run.
var schedules = map[Reason][]time.Duration{
	ReasonRateLimited: {60 * time.Second, 120 * time.Second, 300 * time.Second, 600 * time.Second},
	ReasonTimeout:     {30 * time.Second, 60 * time.Second, 120 * time.Second},
	ReasonNetwork:     {30 * time.Second, 60 * time.Second, 120 * time.Second},
	ReasonNotFound:    {60 * time.Second},
	ReasonBudgetSkip:  {30 * time.Second},
	ReasonDefault:     {30 * time.Second},
}

// Classify maps the merged cycle observation onto a reason, in precedence
// order.
func Classify(o Observation) Reason {
	switch {
	case o.RateLimited:
		return ReasonRateLimited
	case o.TimedOut:
		return ReasonTimeout
	case o.NetworkErr:
		return ReasonNetwork
	case o.NotFound:
		return ReasonNotFound
	case o.BudgetSkip:
		return ReasonBudgetSkip
	default:
		return ReasonDefault
	}
}

// Delay returns the schedule entry for a reason at the given cycle count,
// clamped at the schedule's tail.
func Delay(reason Reason, cycleCount int) time.Duration {
	sched, ok := schedules[reason]
	if !ok {
		sched = schedules[ReasonDefault]
	}
	idx := cycleCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sched) {
		idx = len(sched) - 1
	}
	return sched[idx]
}

// NextDelay classifies and schedules in one step.
func NextDelay(o Observation, cycleCount int) (Reason, time.Duration) {
	r := Classify(o)
	return r, Delay(r, cycleCount)
}
