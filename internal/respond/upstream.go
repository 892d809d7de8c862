package respond

import "context"

// Eligibility is the verdict of an eligibility check.
type Eligibility struct {
	Eligible       bool
	RequiresLetter bool   // the target only accepts responses with a cover letter
	Note           string // why the target is not eligible, if known
}

// Submission describes an accepted response.
type Submission struct {
	NegotiationID string
	RequestID     string
	HTTPStatus    int
}

// Submitter sends exactly one response per call and never retries.
type Submitter interface {
	Submit(ctx context.Context, targetID, resumeID, message string) (Submission, error)
}

// Upstream is the minimum the orchestrator needs from the job-search API.
type Upstream interface {
	Submitter

	// AlreadyContacted reports whether a response to the target exists.
	AlreadyContacted(ctx context.Context, targetID string) (bool, error)

	// CheckEligible asks whether resumeID may currently respond to targetID.
	CheckEligible(ctx context.Context, targetID, resumeID string) (Eligibility, error)
}

// Pinger is implemented by upstreams that support a cheap connectivity
// check. Run calls it once before the first target.
type Pinger interface {
	Ping(ctx context.Context) error
}
