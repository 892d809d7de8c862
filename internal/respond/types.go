// Package respond implements the mass-response workflow: eligibility checks,
// single response submission, pacing and the batch orchestrator.
package respond

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of one processed target.
type Status string

const (
	StatusResponded         Status = "responded"
	StatusSkippedTested     Status = "skipped-already-tested"
	StatusSkippedIneligible Status = "skipped-ineligible"
	StatusSkippedOverCap    Status = "skipped-over-cap"
	StatusFailed            Status = "failed"
	StatusDryRun            Status = "dry-run-would-respond"
)

// IsSkip reports whether the status is one of the skipped-* states.
func (s Status) IsSkip() bool {
	return strings.HasPrefix(string(s), "skipped-")
}

// counted reports whether the status consumes one slot of the item cap.
func (s Status) counted() bool {
	return s == StatusResponded || s == StatusDryRun
}

// Config is the batch configuration. It is built fresh for every run and
// never modified while the run is in progress.
type Config struct {
	ResumeID      string        `json:"resume_id"`
	Message       string        `json:"message,omitempty"`
	SkipTested    bool          `json:"skip_tested"`
	RequireLetter bool          `json:"require_letter"`
	RateLimit     time.Duration `json:"rate_limit"` // minimum spacing between submissions, 0 disables
	Limit         int           `json:"limit,omitempty"`
	DryRun        bool          `json:"dry_run"`
}

// DefaultConfig returns the batch defaults: skip already contacted targets,
// half a second between submissions, dry-run on.
func DefaultConfig() Config {
	return Config{
		SkipTested: true,
		RateLimit:  500 * time.Millisecond,
		DryRun:     true,
	}
}

// Validate checks the configuration before any network activity.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ResumeID) == "" {
		return &ConfigError{Field: "resume_id", Message: "must not be empty"}
	}
	if c.RequireLetter && strings.TrimSpace(c.Message) == "" {
		return &ConfigError{Field: "message", Message: "a cover letter is required but none is configured"}
	}
	if c.RateLimit < 0 {
		return &ConfigError{Field: "rate_limit", Message: "must not be negative"}
	}
	if c.Limit < 0 {
		return &ConfigError{Field: "limit", Message: "must not be negative"}
	}
	return nil
}

// Outcome is the record produced for one target occurrence.
type Outcome struct {
	TargetID      string `json:"vacancy_id" yaml:"vacancy_id"`
	Status        Status `json:"status" yaml:"status"`
	Reason        string `json:"error,omitempty" yaml:"error,omitempty"` // set iff Status == StatusFailed
	Note          string `json:"note,omitempty" yaml:"note,omitempty"`
	HTTPStatus    int    `json:"http_code,omitempty" yaml:"http_code,omitempty"`
	NegotiationID string `json:"negotiation_id,omitempty" yaml:"negotiation_id,omitempty"`
	RequestID     string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
}

// Summary holds aggregate counts over a batch.
type Summary struct {
	Responded    int `json:"responded" yaml:"responded"`
	WouldRespond int `json:"would_respond" yaml:"would_respond"`
	Skipped      int `json:"skipped" yaml:"skipped"`
	Failed       int `json:"failed" yaml:"failed"`
}

func (s *Summary) add(o Outcome) {
	switch {
	case o.Status == StatusResponded:
		s.Responded++
	case o.Status == StatusDryRun:
		s.WouldRespond++
	case o.Status == StatusFailed:
		s.Failed++
	case o.Status.IsSkip():
		s.Skipped++
	}
}

// Result is the read-only report of one batch.
type Result struct {
	BatchID    uuid.UUID `json:"batch_id" yaml:"batch_id"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
	Summary    Summary   `json:"summary" yaml:"summary"`
	Aborted    bool      `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Statuses returns the outcome statuses in processing order.
func (r *Result) Statuses() []Status {
	out := make([]Status, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Status
	}
	return out
}
