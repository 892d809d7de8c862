package respond

import (
	"context"
	"strings"
)

// Submit sends one response for targetID and classifies the result.
// The returned error is non-nil only for caller contract violations;
// upstream and transport failures are reported as a failed Outcome.
func Submit(ctx context.Context, s Submitter, targetID, resumeID, message string) (Outcome, error) {
	if strings.TrimSpace(targetID) == "" {
		return Outcome{}, &ConfigError{Field: "vacancy_id", Message: "must not be empty"}
	}
	if strings.TrimSpace(resumeID) == "" {
		return Outcome{}, &ConfigError{Field: "resume_id", Message: "must not be empty"}
	}
	return submit(ctx, s, targetID, resumeID, message), nil
}

func submit(ctx context.Context, s Submitter, targetID, resumeID, message string) Outcome {
	sub, err := s.Submit(ctx, targetID, resumeID, message)
	if err != nil {
		return failed(targetID, err)
	}
	return respondedOutcome(targetID, sub)
}

func respondedOutcome(targetID string, sub Submission) Outcome {
	return Outcome{
		TargetID:      targetID,
		Status:        StatusResponded,
		HTTPStatus:    sub.HTTPStatus,
		NegotiationID: sub.NegotiationID,
		RequestID:     sub.RequestID,
	}
}

func failed(targetID string, err error) Outcome {
	return Outcome{
		TargetID:   targetID,
		Status:     StatusFailed,
		Reason:     err.Error(),
		HTTPStatus: httpStatusOf(err),
		RequestID:  requestIDOf(err),
	}
}
