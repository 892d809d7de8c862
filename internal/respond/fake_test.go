package respond

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeUpstream records every call it receives.
type fakeUpstream struct {
	mu sync.Mutex

	contacted   map[string]bool
	ineligible  map[string]string
	letter      map[string]bool
	eligErr     map[string]error
	contactErr  map[string]error
	submitErr   map[string]error
	pingErr     error
	submitDelay time.Duration

	contactCalls []string
	eligCalls    []string
	submitCalls  []string
	submitStarts []time.Time
	submitEnds   []time.Time
	messages     []string
	pings        int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		contacted:  map[string]bool{},
		ineligible: map[string]string{},
		letter:     map[string]bool{},
		eligErr:    map[string]error{},
		contactErr: map[string]error{},
		submitErr:  map[string]error{},
	}
}

func (f *fakeUpstream) AlreadyContacted(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contactCalls = append(f.contactCalls, id)
	if err := f.contactErr[id]; err != nil {
		return false, err
	}
	return f.contacted[id], nil
}

func (f *fakeUpstream) CheckEligible(_ context.Context, id, _ string) (Eligibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eligCalls = append(f.eligCalls, id)
	if err := f.eligErr[id]; err != nil {
		return Eligibility{}, err
	}
	if note, ok := f.ineligible[id]; ok {
		return Eligibility{Eligible: false, Note: note}, nil
	}
	return Eligibility{Eligible: true, RequiresLetter: f.letter[id]}, nil
}

func (f *fakeUpstream) Submit(_ context.Context, id, _, message string) (Submission, error) {
	f.mu.Lock()
	f.submitCalls = append(f.submitCalls, id)
	f.submitStarts = append(f.submitStarts, time.Now())
	f.messages = append(f.messages, message)
	delay := f.submitDelay
	err := f.submitErr[id]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.submitEnds = append(f.submitEnds, time.Now())
	f.mu.Unlock()
	if err != nil {
		return Submission{}, err
	}
	return Submission{NegotiationID: "neg-" + id, RequestID: "req-" + id, HTTPStatus: 201}, nil
}

// pingingUpstream adds a preflight to fakeUpstream.
type pingingUpstream struct {
	*fakeUpstream
}

func (p pingingUpstream) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pings++
	return p.pingErr
}

// fakeAPIError mimics an upstream rejection carrying response details.
type fakeAPIError struct {
	status int
	reason string
	delay  time.Duration
}

func (e *fakeAPIError) Error() string {
	return fmt.Sprintf("hh api: %d %s", e.status, e.reason)
}

func (e *fakeAPIError) HTTPStatus() int           { return e.status }
func (e *fakeAPIError) UpstreamRequestID() string { return "req-err" }
func (e *fakeAPIError) RetryDelay() time.Duration { return e.delay }

var errConnRefused = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

func testConfig() Config {
	return Config{ResumeID: "R1"}
}
