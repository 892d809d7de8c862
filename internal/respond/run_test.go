package respond

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllEligibleResponds(t *testing.T) {
	up := newFakeUpstream()
	cfg := testConfig()

	res, err := Run(context.Background(), up, []string{"A", "B", "C"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusResponded, StatusResponded, StatusResponded}, res.Statuses())
	assert.Equal(t, []string{"A", "B", "C"}, up.submitCalls)
	assert.Equal(t, []string{"A", "B", "C"}, up.eligCalls)
	assert.Empty(t, up.contactCalls)
	assert.Equal(t, 3, res.Summary.Responded)
	assert.Equal(t, "neg-B", res.Outcomes[1].NegotiationID)
	assert.Equal(t, 201, res.Outcomes[1].HTTPStatus)
	assert.NotEqual(t, res.StartedAt, time.Time{})
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestRun_SkipTested(t *testing.T) {
	up := newFakeUpstream()
	up.contacted["A"] = true
	cfg := testConfig()
	cfg.SkipTested = true

	res, err := Run(context.Background(), up, []string{"A", "B"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusSkippedTested, StatusResponded}, res.Statuses())
	assert.Equal(t, []string{"A", "B"}, up.contactCalls)
	assert.Equal(t, []string{"B"}, up.eligCalls, "no eligibility call for an already tested target")
	assert.Equal(t, []string{"B"}, up.submitCalls)
	assert.Equal(t, 1, res.Summary.Skipped)
}

func TestRun_ItemCap(t *testing.T) {
	up := newFakeUpstream()
	cfg := testConfig()
	cfg.Limit = 1

	res, err := Run(context.Background(), up, []string{"A", "B", "C"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusResponded, StatusSkippedOverCap, StatusSkippedOverCap}, res.Statuses())
	assert.Equal(t, []string{"A", "B", "C"}, []string{res.Outcomes[0].TargetID, res.Outcomes[1].TargetID, res.Outcomes[2].TargetID})
	assert.Equal(t, []string{"A"}, up.eligCalls)
	assert.Equal(t, []string{"A"}, up.submitCalls)
}

func TestRun_ItemCapCountsOnlyAccepted(t *testing.T) {
	up := newFakeUpstream()
	up.ineligible["A"] = "resume not allowed"
	up.submitErr["B"] = &fakeAPIError{status: 403, reason: "limit_exceeded"}
	cfg := testConfig()
	cfg.Limit = 2

	res, err := Run(context.Background(), up, []string{"A", "B", "C", "D", "E"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{
		StatusSkippedIneligible,
		StatusFailed,
		StatusResponded,
		StatusResponded,
		StatusSkippedOverCap,
	}, res.Statuses())
}

func TestRun_ItemCapInDryRun(t *testing.T) {
	up := newFakeUpstream()
	cfg := testConfig()
	cfg.DryRun = true
	cfg.Limit = 2

	res, err := Run(context.Background(), up, []string{"A", "B", "C", "D"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusDryRun, StatusDryRun, StatusSkippedOverCap, StatusSkippedOverCap}, res.Statuses())
	assert.Equal(t, 2, res.Summary.WouldRespond)
	assert.Equal(t, 2, res.Summary.Skipped)
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{name: "empty resume id", cfg: Config{ResumeID: ""}, field: "resume_id"},
		{name: "blank resume id", cfg: Config{ResumeID: "   "}, field: "resume_id"},
		{name: "letter required without message", cfg: Config{ResumeID: "R1", RequireLetter: true}, field: "message"},
		{name: "negative rate limit", cfg: Config{ResumeID: "R1", RateLimit: -time.Second}, field: "rate_limit"},
		{name: "negative limit", cfg: Config{ResumeID: "R1", Limit: -1}, field: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUpstream()
			pinging := pingingUpstream{up}

			res, err := Run(context.Background(), pinging, []string{"A", "B"}, tt.cfg)
			require.Error(t, err)
			assert.Nil(t, res)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.True(t, IsConfigError(err))

			assert.Zero(t, up.pings)
			assert.Empty(t, up.contactCalls)
			assert.Empty(t, up.eligCalls)
			assert.Empty(t, up.submitCalls)
		})
	}
}

func TestRun_RequireLetterWithMessage(t *testing.T) {
	up := newFakeUpstream()
	cfg := testConfig()
	cfg.RequireLetter = true
	cfg.Message = "Hello"

	res, err := Run(context.Background(), up, []string{"A"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusResponded}, res.Statuses())
	assert.Equal(t, []string{"Hello"}, up.messages)
}

func TestRun_DryRunIsIdempotent(t *testing.T) {
	up := newFakeUpstream()
	up.contacted["B"] = true
	up.ineligible["C"] = "archived"
	cfg := testConfig()
	cfg.DryRun = true
	cfg.SkipTested = true
	targets := []string{"A", "B", "C", "D"}

	first, err := Run(context.Background(), up, targets, cfg)
	require.NoError(t, err)
	second, err := Run(context.Background(), up, targets, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Statuses(), second.Statuses())
	assert.Equal(t, []Status{StatusDryRun, StatusSkippedTested, StatusSkippedIneligible, StatusDryRun}, first.Statuses())
	assert.Empty(t, up.submitCalls)
	assert.Len(t, up.eligCalls, 6, "eligibility checks still run in dry-run")
	assert.True(t, first.DryRun)
	assert.NotEqual(t, first.BatchID, second.BatchID)
}

func TestRun_RateLimitSpacing(t *testing.T) {
	up := newFakeUpstream()
	up.submitDelay = 5 * time.Millisecond
	cfg := testConfig()
	cfg.RateLimit = 30 * time.Millisecond
	targets := []string{"A", "B", "C", "D"}

	res, err := Run(context.Background(), up, targets, cfg)
	require.NoError(t, err)
	require.Len(t, up.submitStarts, len(targets))

	for i := 1; i < len(targets); i++ {
		gap := up.submitStarts[i].Sub(up.submitEnds[i-1])
		assert.GreaterOrEqual(t, gap, cfg.RateLimit, "gap before submission %d", i)
	}
	total := up.submitStarts[len(targets)-1].Sub(up.submitStarts[0])
	assert.GreaterOrEqual(t, total, time.Duration(len(targets)-1)*cfg.RateLimit)
	assert.Equal(t, len(targets), res.Summary.Responded)
}

func TestRun_RetryHintExtendsNextWait(t *testing.T) {
	up := newFakeUpstream()
	up.submitErr["A"] = &fakeAPIError{status: 429, reason: "too_many_requests", delay: 40 * time.Millisecond}
	cfg := testConfig()

	res, err := Run(context.Background(), up, []string{"A", "B"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusFailed, StatusResponded}, res.Statuses())
	require.Len(t, up.submitStarts, 2)
	assert.GreaterOrEqual(t, up.submitStarts[1].Sub(up.submitEnds[0]), 40*time.Millisecond)
}

func TestRun_FailuresDoNotAbort(t *testing.T) {
	up := newFakeUpstream()
	up.submitErr["A"] = &fakeAPIError{status: 403, reason: "negotiations_limit_exceeded"}
	up.submitErr["B"] = errConnRefused
	cfg := testConfig()

	res, err := Run(context.Background(), up, []string{"A", "B", "C"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusFailed, StatusFailed, StatusResponded}, res.Statuses())
	assert.Equal(t, "hh api: 403 negotiations_limit_exceeded", res.Outcomes[0].Reason)
	assert.Equal(t, 403, res.Outcomes[0].HTTPStatus)
	assert.Equal(t, "req-err", res.Outcomes[0].RequestID)
	assert.Equal(t, errConnRefused.Error(), res.Outcomes[1].Reason)
	assert.Zero(t, res.Outcomes[1].HTTPStatus)
	assert.Equal(t, 2, res.Summary.Failed)
	assert.Equal(t, 1, res.Summary.Responded)
}

func TestRun_IndeterminateEligibilityFails(t *testing.T) {
	up := newFakeUpstream()
	up.eligErr["A"] = &fakeAPIError{status: 502, reason: "bad gateway"}
	cfg := testConfig()

	res, err := Run(context.Background(), up, []string{"A", "B"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusFailed, StatusResponded}, res.Statuses())
	assert.Contains(t, res.Outcomes[0].Reason, "eligibility check for A indeterminate")
	assert.Contains(t, res.Outcomes[0].Reason, "bad gateway")
	assert.Equal(t, 502, res.Outcomes[0].HTTPStatus)
	assert.Equal(t, []string{"B"}, up.submitCalls, "never submit when eligibility is unknown")
}

func TestRun_ContactCheckErrorFails(t *testing.T) {
	up := newFakeUpstream()
	up.contactErr["A"] = errConnRefused
	cfg := testConfig()
	cfg.SkipTested = true

	res, err := Run(context.Background(), up, []string{"A"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusFailed}, res.Statuses())
	assert.Contains(t, res.Outcomes[0].Reason, "contact check for A indeterminate")
	assert.Empty(t, up.eligCalls)
}

func TestRun_Ineligible(t *testing.T) {
	up := newFakeUpstream()
	up.ineligible["A"] = "resume not allowed for this vacancy"
	up.letter["B"] = true
	cfg := testConfig()

	res, err := Run(context.Background(), up, []string{"A", "B", "C"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusSkippedIneligible, StatusSkippedIneligible, StatusResponded}, res.Statuses())
	assert.Equal(t, "resume not allowed for this vacancy", res.Outcomes[0].Note)
	assert.Equal(t, "cover letter required", res.Outcomes[1].Note)
	assert.Empty(t, res.Outcomes[0].Reason)
	assert.Equal(t, []string{"C"}, up.submitCalls)
}

func TestRun_DuplicateTargets(t *testing.T) {
	up := newFakeUpstream()
	up.submitErr["B"] = errConnRefused
	cfg := testConfig()

	res, err := Run(context.Background(), up, []string{"A", "B", "A", "B"}, cfg)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 4)
	assert.Equal(t, []Status{StatusResponded, StatusFailed, StatusSkippedTested, StatusSkippedTested}, res.Statuses())
	assert.Equal(t, []string{"A", "B"}, up.submitCalls, "no target is submitted twice in one batch")
	assert.Equal(t, "already submitted in this batch", res.Outcomes[3].Note)
	assert.Empty(t, res.Outcomes[3].Reason)
}

func TestRun_FailedSubmissionNotRepeated(t *testing.T) {
	up := newFakeUpstream()
	up.submitErr["A"] = errConnRefused

	res, err := Run(context.Background(), up, []string{"A", "A"}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusFailed, StatusSkippedTested}, res.Statuses())
	assert.Equal(t, []string{"A"}, up.submitCalls)
	assert.Equal(t, []string{"A"}, up.eligCalls, "the duplicate makes no upstream calls")
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, 1, res.Summary.Skipped)
}

func TestRun_CancellationBetweenTargets(t *testing.T) {
	up := newFakeUpstream()
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []string
	res, err := Run(ctx, up, []string{"A", "B", "C"}, cfg, WithObserver(func(o Outcome) {
		seen = append(seen, o.TargetID)
		cancel()
	}))
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Equal(t, []Status{StatusResponded}, res.Statuses())
	assert.Equal(t, []string{"A"}, seen)
	assert.Equal(t, []string{"A"}, up.submitCalls)
}

func TestRun_PreflightFailure(t *testing.T) {
	up := newFakeUpstream()
	up.pingErr = errConnRefused
	cfg := testConfig()

	res, err := Run(context.Background(), pingingUpstream{up}, []string{"A"}, cfg)
	require.Error(t, err)
	assert.Nil(t, res)

	var ce *ConnectivityError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, errConnRefused)
	assert.Empty(t, up.eligCalls)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	up := newFakeUpstream()
	up.pingErr = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, pingingUpstream{up}, []string{"A", "B"}, testConfig())
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Empty(t, res.Outcomes)
	assert.Zero(t, up.pings)
	assert.Empty(t, up.submitCalls)
}

func TestRun_PreflightSkippedForEmptyBatch(t *testing.T) {
	up := newFakeUpstream()
	up.pingErr = errConnRefused

	res, err := Run(context.Background(), pingingUpstream{up}, nil, testConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
	assert.Zero(t, up.pings)
}

func TestRun_OutcomeCountMatchesTargets(t *testing.T) {
	up := newFakeUpstream()
	up.contacted["2"] = true
	up.ineligible["3"] = "archived"
	up.submitErr["4"] = errConnRefused
	cfg := testConfig()
	cfg.SkipTested = true
	cfg.Limit = 2
	targets := []string{"1", "2", "3", "4", "5", "6", "7"}

	res, err := Run(context.Background(), up, targets, cfg)
	require.NoError(t, err)

	require.Len(t, res.Outcomes, len(targets))
	for i, o := range res.Outcomes {
		assert.Equal(t, targets[i], o.TargetID)
	}
	s := res.Summary
	assert.Equal(t, len(targets), s.Responded+s.WouldRespond+s.Skipped+s.Failed)
}
