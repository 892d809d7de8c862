package respond

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a Run.
type Option func(*runner)

// WithLogger sets the logger used for per-target decisions.
func WithLogger(l *zap.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithObserver registers a callback invoked after each outcome is recorded,
// in processing order.
func WithObserver(fn func(Outcome)) Option {
	return func(r *runner) {
		r.observe = fn
	}
}

type runner struct {
	up      Upstream
	cfg     Config
	log     *zap.Logger
	observe func(Outcome)
	pacer   *Pacer

	// accepted holds targets that would be responded to in dry-run;
	// submitted holds every target that reached Submit, whatever the result.
	// Later duplicates of either are never submitted again.
	accepted  map[string]bool
	submitted map[string]bool
	counted   int
}

// Run processes targetIDs in order against the upstream and returns one
// outcome per target occurrence.
//
// Per-target failures are recorded and never abort the batch. The returned
// error is non-nil only for a *ConfigError (before any network call) or a
// *ConnectivityError from the upstream preflight. When ctx is cancelled the
// target in progress is finished and recorded, the remaining targets are left
// untouched and the result is marked Aborted.
func Run(ctx context.Context, up Upstream, targetIDs []string, cfg Config, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &runner{
		up:        up,
		cfg:       cfg,
		log:       zap.NewNop(),
		pacer:     NewPacer(cfg.RateLimit),
		accepted:  make(map[string]bool),
		submitted: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	// A batch cancelled before it starts is aborted, not unreachable.
	if p, ok := up.(Pinger); ok && len(targetIDs) > 0 && ctx.Err() == nil {
		if err := p.Ping(ctx); err != nil && ctx.Err() == nil {
			return nil, &ConnectivityError{Cause: err}
		}
	}

	res := &Result{
		BatchID:   uuid.New(),
		DryRun:    cfg.DryRun,
		Outcomes:  make([]Outcome, 0, len(targetIDs)),
		StartedAt: time.Now(),
	}
	r.log.Info("mass response started",
		zap.String("batch_id", res.BatchID.String()),
		zap.Int("targets", len(targetIDs)),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Int("limit", cfg.Limit),
	)

	// Calls for a target already in progress must not be cut short by the
	// caller's cancellation.
	work := context.WithoutCancel(ctx)

	for i, id := range targetIDs {
		if ctx.Err() != nil {
			res.Aborted = true
			r.log.Warn("mass response aborted", zap.Int("processed", i), zap.Error(ctx.Err()))
			break
		}
		if cfg.Limit > 0 && r.counted >= cfg.Limit {
			for _, rest := range targetIDs[i:] {
				r.record(res, Outcome{TargetID: rest, Status: StatusSkippedOverCap})
			}
			break
		}
		r.record(res, r.process(work, id))
	}

	res.FinishedAt = time.Now()
	r.log.Info("mass response finished",
		zap.String("batch_id", res.BatchID.String()),
		zap.Int("responded", res.Summary.Responded),
		zap.Int("would_respond", res.Summary.WouldRespond),
		zap.Int("skipped", res.Summary.Skipped),
		zap.Int("failed", res.Summary.Failed),
		zap.Bool("aborted", res.Aborted),
	)
	return res, nil
}

func (r *runner) record(res *Result, o Outcome) {
	if o.Status.counted() {
		r.counted++
		r.accepted[o.TargetID] = true
	}
	res.Outcomes = append(res.Outcomes, o)
	res.Summary.add(o)

	fields := []zap.Field{zap.String("vacancy_id", o.TargetID), zap.String("status", string(o.Status))}
	if o.Reason != "" {
		fields = append(fields, zap.String("reason", o.Reason))
	}
	if o.Note != "" {
		fields = append(fields, zap.String("note", o.Note))
	}
	r.log.Debug("target processed", fields...)

	if r.observe != nil {
		r.observe(o)
	}
}

// process runs check-then-submit for one target as a single unit.
func (r *runner) process(ctx context.Context, id string) Outcome {
	if r.submitted[id] {
		return Outcome{TargetID: id, Status: StatusSkippedTested, Note: "already submitted in this batch"}
	}
	if r.accepted[id] {
		return Outcome{TargetID: id, Status: StatusSkippedTested, Note: "duplicate of an earlier target in this batch"}
	}

	if r.cfg.SkipTested {
		contacted, err := r.up.AlreadyContacted(ctx, id)
		if err != nil {
			return failed(id, &IndeterminateError{Op: "contact check", TargetID: id, Cause: err})
		}
		if contacted {
			return Outcome{TargetID: id, Status: StatusSkippedTested, Note: "already responded"}
		}
	}

	verdict, err := r.up.CheckEligible(ctx, id, r.cfg.ResumeID)
	if err != nil {
		return failed(id, &IndeterminateError{Op: "eligibility check", TargetID: id, Cause: err})
	}
	if !verdict.Eligible {
		return Outcome{TargetID: id, Status: StatusSkippedIneligible, Note: verdict.Note}
	}
	if verdict.RequiresLetter && r.cfg.Message == "" {
		return Outcome{TargetID: id, Status: StatusSkippedIneligible, Note: "cover letter required"}
	}

	if r.cfg.DryRun {
		return Outcome{TargetID: id, Status: StatusDryRun}
	}

	// The pacer waits on the detached context too, so the wait always ends.
	_ = r.pacer.Wait(ctx)
	r.submitted[id] = true
	sub, err := r.up.Submit(ctx, id, r.cfg.ResumeID, r.cfg.Message)
	r.pacer.Done()
	if err != nil {
		if d := retryDelayOf(err); d > 0 {
			r.pacer.Extend(d)
		}
		return failed(id, err)
	}
	return respondedOutcome(id, sub)
}
