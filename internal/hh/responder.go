package hh

import (
	"context"
	"sync"

	"github.com/jonathan/hhcli/internal/respond"
)

// Relation hh.ru sets on a vacancy the applicant has already responded to.
const relationGotResponse = "got_response"

// Responder adapts a Client to the mass-response orchestrator.
type Responder struct {
	client *Client

	mu   sync.Mutex
	last *Vacancy // AlreadyContacted and CheckEligible run back to back per target
}

// NewResponder wraps c.
func NewResponder(c *Client) *Responder {
	return &Responder{client: c}
}

var (
	_ respond.Upstream = (*Responder)(nil)
	_ respond.Pinger   = (*Responder)(nil)
)

// Ping verifies the token and connectivity with GET /me.
func (r *Responder) Ping(ctx context.Context) error {
	_, err := r.client.Me(ctx)
	return err
}

// AlreadyContacted reports whether the vacancy carries the got_response relation.
func (r *Responder) AlreadyContacted(ctx context.Context, targetID string) (bool, error) {
	v, err := r.vacancy(ctx, targetID)
	if err != nil {
		return false, err
	}
	return HasRelation(v, relationGotResponse), nil
}

// CheckEligible rejects archived vacancies, vacancies behind an employer test
// and vacancies the resume is not offered for. Letter requirements are
// reported, not rejected.
func (r *Responder) CheckEligible(ctx context.Context, targetID, resumeID string) (respond.Eligibility, error) {
	v, err := r.vacancy(ctx, targetID)
	if err != nil {
		return respond.Eligibility{}, err
	}
	switch {
	case v.Archived:
		return respond.Eligibility{Note: "vacancy is archived"}, nil
	case HasRequiredTest(v):
		return respond.Eligibility{Note: "employer test required"}, nil
	}

	resumes, err := r.client.VacancyResumes(ctx, targetID)
	if err != nil {
		return respond.Eligibility{}, err
	}
	for _, res := range resumes {
		if res.ID == resumeID {
			return respond.Eligibility{Eligible: true, RequiresLetter: RequiresLetter(v)}, nil
		}
	}
	return respond.Eligibility{
		RequiresLetter: RequiresLetter(v),
		Note:           "resume is not available for this vacancy",
	}, nil
}

// Submit creates one negotiation.
func (r *Responder) Submit(ctx context.Context, targetID, resumeID, message string) (respond.Submission, error) {
	r.mu.Lock()
	r.last = nil
	r.mu.Unlock()

	res, err := r.client.CreateNegotiation(ctx, targetID, resumeID, message)
	if err != nil {
		return respond.Submission{}, err
	}
	return respond.Submission{
		NegotiationID: res.ID,
		RequestID:     res.RequestID,
		HTTPStatus:    res.HTTPStatus,
	}, nil
}

func (r *Responder) vacancy(ctx context.Context, id string) (*Vacancy, error) {
	r.mu.Lock()
	if r.last != nil && r.last.ID == id {
		v := r.last
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	v, err := r.client.GetVacancy(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.last = v
	r.mu.Unlock()
	return v, nil
}
