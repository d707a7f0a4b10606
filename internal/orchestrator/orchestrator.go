// Package orchestrator drives enrichment sessions to completion: it owns the
// resume control document's state machine, plans and executes field attempts
// per cycle, and decides at a single end-of-cycle point whether the session is
// complete, terminal, blocked, stalled, or re-queued with backoff.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/resume-orchestrator/internal/backoff"
	"github.com/sells-group/resume-orchestrator/internal/fields"
	"github.com/sells-group/resume-orchestrator/internal/ledger"
	"github.com/sells-group/resume-orchestrator/internal/model"
	"github.com/sells-group/resume-orchestrator/internal/queue"
	"github.com/sells-group/resume-orchestrator/internal/scheduler"
	"github.com/sells-group/resume-orchestrator/internal/store"
	"github.com/sells-group/resume-orchestrator/internal/terminal"
	"github.com/sells-group/resume-orchestrator/pkg/provider"
)

// Config holds the orchestrator's caps and budgets.
type Config struct {
	MaxCycles         int
	LowQualityCap     int
	LockLease         time.Duration
	RunBudget         time.Duration
	RecordConcurrency int
}

// Exit reasons reported on the result envelope when an invocation does no
// cycle work.
const (
	ExitStopped      = "stopped"
	ExitBackoffWait  = "backoff_wait"
	ExitStaleCycle   = "stale_cycle"
	ExitResumeLocked = "resume_locked"
)

// Result is the invocation envelope returned to the transport layer.
type Result struct {
	OK            bool                `json:"ok"`
	SessionID     string              `json:"session_id"`
	DidWork       bool                `json:"did_work"`
	DidWorkReason string              `json:"did_work_reason,omitempty"`
	Status        model.ControlStatus `json:"status"`
	CycleCount    int                 `json:"cycle_count"`
	EnteredAt     time.Time           `json:"handler_entered_at"`
}

// Orchestrator runs resume cycles for enrichment sessions.
type Orchestrator struct {
	store    store.Store
	queue    queue.Queue
	provider provider.Client
	policy   *scheduler.Policy
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger overrides the default global logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an orchestrator. Zero config values fall back to the documented
// defaults.
func New(st store.Store, q queue.Queue, p provider.Client, pol *scheduler.Policy, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = 10
	}
	if cfg.LowQualityCap <= 0 {
		cfg.LowQualityCap = 2
	}
	if cfg.LockLease <= 0 {
		cfg.LockLease = 60 * time.Second
	}
	if cfg.RunBudget <= 0 {
		cfg.RunBudget = 120 * time.Second
	}
	if cfg.RecordConcurrency <= 0 {
		cfg.RecordConcurrency = 4
	}
	o := &Orchestrator{
		store:    st,
		queue:    q,
		provider: p,
		policy:   pol,
		cfg:      cfg,
		log:      zap.L(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// errStopRequested aborts the record fan-out when the stop sentinel appears
// mid-cycle. Already-applied per-field writes are kept.
var errStopRequested = errors.New("orchestrator: stop requested")

// cycleState is the mutable shared state of one cycle's fan-out.
type cycleState struct {
	mu          sync.Mutex
	planned     int
	increments  int
	observation backoff.Observation
}

// Resume runs one invocation of the resume state machine for the session the
// message names. Short-circuit exits (stop, backoff gate, stale delivery,
// lock held) do not consume a cycle. A force-terminalize message bypasses the
// state machine and settles every outstanding field instead.
func (o *Orchestrator) Resume(ctx context.Context, msg queue.Message) (*Result, error) {
	if msg.ForceTerminalize {
		return o.ForceTerminalize(ctx, msg.SessionID, model.ReasonCycleCapExhausted)
	}

	entered := o.now()
	log := o.log.With(zap.String("session_id", msg.SessionID))

	ctrl, err := o.loadOrCreateControl(ctx, msg.SessionID)
	if err != nil {
		return nil, err
	}

	res := &Result{OK: true, SessionID: msg.SessionID, EnteredAt: entered}

	stopped, err := o.store.IsStopped(ctx, msg.SessionID)
	if err != nil {
		return nil, err
	}
	if stopped {
		ctrl.Status = model.ControlStopped
		ctrl.LockExpiresAt = nil
		ctrl.UpdatedAt = entered
		if err := o.store.UpsertControl(ctx, ctrl); err != nil {
			return nil, err
		}
		res.Status, res.CycleCount, res.DidWorkReason = ctrl.Status, ctrl.CycleCount, ExitStopped
		log.Info("resume stopped by sentinel", zap.Int("cycle_count", ctrl.CycleCount))
		return res, nil
	}

	if rem := ctrl.BackoffRemaining(entered); rem > 0 {
		res.Status, res.CycleCount, res.DidWorkReason = ctrl.Status, ctrl.CycleCount, ExitBackoffWait
		follow := queue.Message{
			SessionID:  msg.SessionID,
			CycleCount: ctrl.CycleCount,
			Reason:     ExitBackoffWait,
			RunID:      msg.RunID,
		}
		if err := o.queue.Enqueue(ctx, follow, rem); err != nil {
			log.Error("re-enqueue during backoff failed", zap.Error(err))
			ctrl.Status = model.ControlStalled
			ctrl.UpdatedAt = entered
			if uerr := o.store.UpsertControl(ctx, ctrl); uerr != nil {
				return nil, uerr
			}
			res.Status = ctrl.Status
		}
		return res, nil
	}

	// At-least-once delivery safety: a message minted for an older cycle is a
	// duplicate and must not cause side effects.
	if msg.CycleCount != ctrl.CycleCount {
		res.Status, res.CycleCount, res.DidWorkReason = ctrl.Status, ctrl.CycleCount, ExitStaleCycle
		log.Debug("stale cycle token, ignoring delivery",
			zap.Int("message_cycle", msg.CycleCount),
			zap.Int("control_cycle", ctrl.CycleCount))
		return res, nil
	}

	if ctrl.Locked(entered) {
		res.Status, res.CycleCount, res.DidWorkReason = ctrl.Status, ctrl.CycleCount, ExitResumeLocked
		return res, nil
	}

	// Acquire the lease and consume a cycle.
	lockExp := entered.Add(o.cfg.LockLease)
	ctrl.LockExpiresAt = &lockExp
	ctrl.NextAllowedRunAt = nil
	ctrl.CycleCount++
	ctrl.Status = model.ControlRunning
	ctrl.PlannedFields = nil
	ctrl.AttemptedFields = nil
	ctrl.UpdatedAt = entered
	if err := o.store.UpsertControl(ctx, ctrl); err != nil {
		return nil, err
	}
	o.markSessionEntered(ctx, msg.SessionID, ctrl.CycleCount, entered)

	runID := msg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	records, err := o.store.ListSessionRecords(ctx, msg.SessionID)
	if err != nil {
		return nil, err
	}

	state := &cycleState{}
	deadline := entered.Add(o.cfg.RunBudget)
	cycleIndex := ctrl.CycleCount - 1
	singleRecord := len(records) == 1

	stoppedMidCycle := o.runCycle(ctx, log, ctrl, records, state, runID, cycleIndex, deadline, singleRecord)

	// Reconcile and recompute missingness from the documents themselves,
	// never from cached flags.
	missingByRecord := make(map[string][]model.Field)
	outstanding := 0
	for _, rec := range records {
		if terminal.Reconcile(rec, o.maxAttempts(model.FieldHeadquarters), o.now()) {
			o.persistRecord(ctx, log, rec)
		}
		missing := fields.RetryableMissing(rec)
		if len(missing) > 0 {
			missingByRecord[rec.ID] = missing
			outstanding++
		}
	}
	ctrl.MissingByRecord = missingByRecord

	finished := o.now()
	res.DidWork = true
	res.DidWorkReason = "cycle_ran"

	switch {
	case stoppedMidCycle:
		ctrl.Status = model.ControlStopped
		res.DidWorkReason = ExitStopped

	case outstanding == 0:
		ctrl.Status = model.ControlComplete

	case ctrl.CycleCount >= o.cfg.MaxCycles:
		for _, rec := range records {
			if settled := terminal.ForceTerminalizeAll(rec, model.ReasonCycleCapExhausted, finished); len(settled) > 0 {
				o.persistRecord(ctx, log, rec)
			}
		}
		ctrl.MissingByRecord = nil
		ctrl.Status = model.ControlTerminal
		log.Warn("cycle cap exhausted, force-terminalized remaining fields",
			zap.Int("cycle_count", ctrl.CycleCount))

	case state.planned >= 1 && state.increments == 0:
		// A planner/executor mismatch would otherwise loop forever as a
		// sequence of no-op cycles.
		ctrl.Status = model.ControlBlocked
		ctrl.BlockedReason = "planned_fields_without_progress"
		log.Error("zero ledger increments despite planned fields",
			zap.Int("planned", state.planned))

	default:
		reason, delay := backoff.NextDelay(state.observation, ctrl.CycleCount)
		next := finished.Add(delay)
		ctrl.NextAllowedRunAt = &next
		ctrl.LastBackoffReason = string(reason)
		ctrl.Status = model.ControlQueued

		follow := queue.Message{
			SessionID:  msg.SessionID,
			CycleCount: ctrl.CycleCount,
			Reason:     string(reason),
		}
		if err := o.queue.Enqueue(ctx, follow, delay); err != nil {
			log.Error("follow-up enqueue failed", zap.Error(err))
			ctrl.Status = model.ControlStalled
			ctrl.LastError = &model.FieldError{Message: err.Error(), Code: "enqueue_failed"}
		}
	}

	ctrl.LockExpiresAt = nil
	ctrl.UpdatedAt = finished
	if err := o.store.UpsertControl(ctx, ctrl); err != nil {
		return nil, err
	}
	o.markSessionFinished(ctx, msg.SessionID, ctrl, finished)

	res.Status = ctrl.Status
	res.CycleCount = ctrl.CycleCount
	log.Info("cycle finished",
		zap.Int("cycle_count", ctrl.CycleCount),
		zap.String("status", string(ctrl.Status)),
		zap.Int("planned", state.planned),
		zap.Int("increments", state.increments))
	return res, nil
}

// runCycle fans field attempts out across records. Returns true when the stop
// sentinel appeared mid-cycle.
func (o *Orchestrator) runCycle(
	ctx context.Context,
	log *zap.Logger,
	ctrl *model.ResumeControl,
	records []*model.Record,
	state *cycleState,
	runID string,
	cycleIndex int,
	deadline time.Time,
	singleRecord bool,
) bool {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.RecordConcurrency)

	for _, rec := range records {
		rec := rec
		if len(fields.RetryableMissing(rec)) == 0 {
			continue
		}
		g.Go(func() error {
			return o.processRecord(gctx, log, ctrl, rec, state, runID, cycleIndex, deadline, singleRecord)
		})
	}

	err := g.Wait()
	if errors.Is(err, errStopRequested) {
		return true
	}
	if err != nil {
		log.Error("record fan-out error", zap.Error(err))
	}
	return false
}

// processRecord plans and attempts one record's fields, persisting the record
// after every field application so partial progress survives a crash.
func (o *Orchestrator) processRecord(
	ctx context.Context,
	log *zap.Logger,
	ctrl *model.ResumeControl,
	rec *model.Record,
	state *cycleState,
	runID string,
	cycleIndex int,
	deadline time.Time,
	singleRecord bool,
) error {
	stopped, err := o.store.IsStopped(ctx, rec.SessionID)
	if err == nil && stopped {
		return errStopRequested
	}

	state.mu.Lock()
	progress := copyProgress(ctrl.RecordProgress(rec.ID))
	state.mu.Unlock()

	freshSeed := rec.FreshSeed()
	req := scheduler.Request{
		Record:          rec,
		Progress:        progress,
		CycleCount:      cycleIndex,
		RemainingBudget: time.Until(deadline),
		SingleRecord:    singleRecord,
	}
	plan := scheduler.Plan(req, o.policy)
	if len(plan) == 0 {
		return nil
	}

	state.mu.Lock()
	state.planned += len(plan)
	for _, f := range plan {
		ctrl.PlannedFields = append(ctrl.PlannedFields, rec.ID+":"+string(f))
	}
	state.mu.Unlock()

	fieldBudget := scheduler.FieldBudget(req, len(plan))

	for _, f := range plan {
		if stopped, err := o.store.IsStopped(ctx, rec.SessionID); err == nil && stopped {
			return errStopRequested
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			state.mu.Lock()
			state.observation.BudgetSkip = true
			state.mu.Unlock()
			return nil
		}

		budget := fieldBudget
		if budget > remaining {
			budget = remaining
		}
		minBudget := o.policy.MinBudget(f)
		if budget > 0 && budget < minBudget && !freshSeed {
			state.mu.Lock()
			state.observation.BudgetSkip = true
			state.mu.Unlock()
			continue
		}

		o.attemptField(ctx, ctrl, rec, f, state, runID, cycleIndex, budget)
		o.persistRecord(ctx, log, rec)
	}
	return nil
}

// attemptField runs one upstream fetch and applies the outcome through the
// ledger and, when a cap binds, the terminalization policy.
func (o *Orchestrator) attemptField(
	ctx context.Context,
	ctrl *model.ResumeControl,
	rec *model.Record,
	f model.Field,
	state *cycleState,
	runID string,
	cycleIndex int,
	budget time.Duration,
) {
	now := o.now()
	requestID := fmt.Sprintf("%s:%s:%s", runID, rec.ID, f)
	counted := ledger.Bump(rec, f, requestID, now)

	res, err := o.provider.FetchField(ctx, provider.FieldRequest{
		Field:    string(f),
		RecordID: rec.ID,
		Name:     rec.Name,
		Domain:   rec.Domain,
		Budget:   budget,
	})
	if err != nil {
		// Unexpected transport-layer failure. Classified as unreachable so
		// sibling fields and records still run.
		ledger.MarkError(rec, f, err.Error(), "provider_error", 0)
		res = &provider.FieldResult{Status: provider.StatusUpstreamUnreachable}
	}

	o.applyResult(rec, f, res, now)

	state.mu.Lock()
	defer state.mu.Unlock()
	if counted {
		state.increments++
	}
	mergeObservation(&state.observation, res)

	fp := ctrl.FieldProgressFor(rec.ID, f)
	fp.Attempts = rec.AttemptCount(f)
	fp.LastAttemptAt = &now
	fp.LastCycleAttempted = cycleIndex
	fp.Status = progressStatus(rec, f)
	if m := rec.AttemptMeta[f]; m != nil {
		fp.LastError = m.LastError
	}
	ctrl.AttemptedFields = append(ctrl.AttemptedFields, rec.ID+":"+string(f))
	ctrl.LastFieldAttempted = string(f)
	ctrl.LastFieldResult = string(res.Status)
}

// applyResult folds one provider outcome into the record.
func (o *Orchestrator) applyResult(rec *model.Record, f model.Field, res *provider.FieldResult, now time.Time) {
	rec.EnsureMaps()

	switch res.Status {
	case provider.StatusOK:
		if res.LowQuality || !applyValue(rec, f, res.Value) {
			o.recordLowQuality(rec, f, now)
			return
		}
		ledger.MarkSuccess(rec, f, now)
		delete(rec.MissingReason, f)
		return

	case provider.StatusNotFound:
		ledger.MarkError(rec, f, "upstream reported not found", string(res.Status), res.Diagnostics.HTTPStatus)
		rec.MissingReason[f] = model.ReasonNotFound
		if rec.AttemptCount(f) >= o.maxAttempts(f) {
			terminal.Terminalize(rec, f, model.ReasonNotFoundTerminal, now)
		}
		return

	case provider.StatusNotDisclosed:
		// A definitive denial from the source settles the field immediately;
		// locations get the visible sentinel.
		ledger.MarkError(rec, f, "upstream reported not disclosed", string(res.Status), res.Diagnostics.HTTPStatus)
		terminal.Terminalize(rec, f, model.ReasonNotDisclosed, now)
		return

	case provider.StatusDeferred, provider.StatusUpstreamTimeout, provider.StatusUpstreamUnreachable:
		msg := res.Diagnostics.Message
		if msg == "" {
			msg = string(res.Status)
		}
		ledger.MarkError(rec, f, msg, string(res.Status), res.Diagnostics.HTTPStatus)
		if _, ok := rec.MissingReason[f]; !ok {
			rec.MissingReason[f] = model.ReasonPending
		}
		if rec.AttemptCount(f) >= o.maxAttempts(f) {
			terminal.Terminalize(rec, f, model.ReasonExhausted, now)
		}
		return
	}
}

// recordLowQuality counts a rejected-ok outcome against the low-quality cap.
func (o *Orchestrator) recordLowQuality(rec *model.Record, f model.Field, now time.Time) {
	n := ledger.BumpLowQuality(rec, f)
	ledger.MarkError(rec, f, "result failed quality gate", "low_quality", 0)
	rec.MissingReason[f] = model.ReasonLowQuality
	if n >= o.cfg.LowQualityCap {
		terminal.Terminalize(rec, f, model.ReasonLowQualityTermin, now)
	}
}

// applyValue writes an accepted upstream value onto the record. Returns false
// when nothing usable survives sanitization.
func applyValue(rec *model.Record, f model.Field, values []string) bool {
	switch f {
	case model.FieldTagline:
		v := firstMeaningful(values)
		if v == "" {
			return false
		}
		rec.Tagline = v
		rec.TaglineUnknown = false

	case model.FieldHeadquarters:
		v := firstMeaningful(values)
		if v == "" || fields.Sentinel(v) {
			return false
		}
		rec.HeadquartersLocation = v
		rec.HQUnknown = false
		rec.HQUnknownReason = ""

	case model.FieldManufacturing:
		var locs []string
		for _, raw := range values {
			if v := fields.Meaningful(raw); v != "" && !fields.Sentinel(v) {
				locs = append(locs, v)
			}
		}
		if len(locs) == 0 {
			return false
		}
		rec.ManufacturingLocations = locs
		rec.MfgUnknown = false
		rec.MfgUnknownReason = ""

	case model.FieldIndustries:
		s := fields.SanitizeIndustries(values)
		if len(s) == 0 {
			return false
		}
		rec.Industries = s
		rec.IndustriesUnknown = false

	case model.FieldKeywords:
		s := fields.SanitizeKeywords(values)
		if len(s) == 0 {
			return false
		}
		rec.ProductKeywords = s
		rec.ProductKeywordsUnknown = false

	case model.FieldLogo:
		v := firstMeaningful(values)
		if v == "" {
			return false
		}
		rec.LogoURL = v
		rec.LogoStageStatus = model.StageOK

	case model.FieldReviews:
		added := 0
		for _, raw := range values {
			if v := fields.Meaningful(raw); v != "" {
				rec.CuratedReviews = append(rec.CuratedReviews, model.Review{Text: v})
				added++
			}
		}
		if added == 0 {
			return false
		}
		rec.ReviewCount = len(rec.CuratedReviews)
		rec.ReviewsStageStatus = model.StageOK

	default:
		return false
	}
	return true
}

func firstMeaningful(values []string) string {
	for _, raw := range values {
		if v := fields.Meaningful(raw); v != "" {
			return v
		}
	}
	return ""
}

func progressStatus(rec *model.Record, f model.Field) model.FieldProgressStatus {
	switch {
	case fields.IsPresent(f, rec):
		return model.ProgressOK
	case fields.TerminallyMissing(rec, f):
		return model.ProgressTerminal
	default:
		return model.ProgressRetryable
	}
}

func mergeObservation(obs *backoff.Observation, res *provider.FieldResult) {
	switch res.Status {
	case provider.StatusDeferred:
		obs.RateLimited = true
	case provider.StatusUpstreamTimeout:
		obs.TimedOut = true
	case provider.StatusUpstreamUnreachable:
		obs.NetworkErr = true
	case provider.StatusNotFound:
		obs.NotFound = true
	}
	if res.Diagnostics.RateLimited {
		obs.RateLimited = true
	}
}

func copyProgress(src map[model.Field]*model.FieldProgress) map[model.Field]*model.FieldProgress {
	dst := make(map[model.Field]*model.FieldProgress, len(src))
	for f, fp := range src {
		cp := *fp
		dst[f] = &cp
	}
	return dst
}

func (o *Orchestrator) maxAttempts(f model.Field) int {
	return o.policy.MaxAttempts(f)
}

func (o *Orchestrator) loadOrCreateControl(ctx context.Context, sessionID string) (*model.ResumeControl, error) {
	ctrl, err := o.store.GetControl(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		now := o.now()
		ctrl = &model.ResumeControl{
			ID:        model.ControlDocID(sessionID),
			SessionID: sessionID,
			Status:    model.ControlQueued,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := o.store.UpsertControl(ctx, ctrl); err != nil {
			return nil, err
		}
		return ctrl, nil
	}
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

// persistRecord upserts one record; write failures are logged and the field's
// progress is simply re-attempted next cycle.
func (o *Orchestrator) persistRecord(ctx context.Context, log *zap.Logger, rec *model.Record) {
	rec.UpdatedAt = o.now()
	if err := o.store.UpsertRecord(ctx, rec); err != nil {
		log.Error("record upsert failed",
			zap.String("record_id", rec.ID),
			zap.Error(err))
	}
}

func (o *Orchestrator) markSessionEntered(ctx context.Context, sessionID string, cycle int, now time.Time) {
	sess, err := o.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		sess = &model.Session{
			ID:        model.SessionDocID(sessionID),
			SessionID: sessionID,
			CreatedAt: now,
		}
	} else if err != nil {
		o.log.Warn("session load failed", zap.Error(err))
		return
	}
	sess.ResumeCycleCount = cycle
	sess.LastEnteredAt = &now
	sess.UpdatedAt = now
	if err := o.store.UpsertSession(ctx, sess); err != nil {
		o.log.Warn("session upsert failed", zap.Error(err))
	}
}

func (o *Orchestrator) markSessionFinished(ctx context.Context, sessionID string, ctrl *model.ResumeControl, now time.Time) {
	sess, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		o.log.Warn("session load failed", zap.Error(err))
		return
	}
	sess.ResumeNeeded = ctrl.Status == model.ControlQueued
	sess.ResumeCycleCount = ctrl.CycleCount
	sess.Status = string(ctrl.Status)
	sess.LastFinishedAt = &now
	sess.UpdatedAt = now
	if err := o.store.UpsertSession(ctx, sess); err != nil {
		o.log.Warn("session upsert failed", zap.Error(err))
	}
}

// ForceTerminalize runs a terminal-only pass: every still-retryable missing
// field of every record in the session is settled with the given reason, no
// upstream attempts, no re-enqueue.
func (o *Orchestrator) ForceTerminalize(ctx context.Context, sessionID string, reason model.MissingReason) (*Result, error) {
	now := o.now()
	ctrl, err := o.loadOrCreateControl(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	records, err := o.store.ListSessionRecords(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log := o.log.With(zap.String("session_id", sessionID))
	for _, rec := range records {
		if settled := terminal.ForceTerminalizeAll(rec, reason, now); len(settled) > 0 {
			o.persistRecord(ctx, log, rec)
		}
	}

	ctrl.Status = model.ControlTerminal
	ctrl.MissingByRecord = nil
	ctrl.LockExpiresAt = nil
	ctrl.NextAllowedRunAt = nil
	ctrl.UpdatedAt = now
	if err := o.store.UpsertControl(ctx, ctrl); err != nil {
		return nil, err
	}
	o.markSessionFinished(ctx, sessionID, ctrl, now)

	return &Result{
		OK:            true,
		SessionID:     sessionID,
		DidWork:       true,
		DidWorkReason: "force_terminalize",
		Status:        ctrl.Status,
		CycleCount:    ctrl.CycleCount,
		EnteredAt:     now,
	}, nil
}
