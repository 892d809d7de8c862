package hh

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hhcli/internal/respond"
)

// fakeHH serves a handful of vacancies the way api.hh.ru shapes them.
func fakeHH(t *testing.T, submissions *atomic.Int32) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","first_name":"Anna","is_applicant":true}`))
	})
	mux.HandleFunc("GET /vacancies/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			_, _ = w.Write([]byte(`{"id":"1","name":"Go","relations":[]}`))
		case "2":
			_, _ = w.Write([]byte(`{"id":"2","name":"Go","relations":["got_response"]}`))
		case "3":
			_, _ = w.Write([]byte(`{"id":"3","name":"Go","archived":true}`))
		case "4":
			_, _ = w.Write([]byte(`{"id":"4","name":"Go","has_test":true}`))
		case "5":
			_, _ = w.Write([]byte(`{"id":"5","name":"Go","response_letter_required":true}`))
		case "6":
			_, _ = w.Write([]byte(`{"id":"6","name":"Go"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"type":"not_found"}]}`))
		}
	})
	mux.HandleFunc("GET /vacancies/{id}/resumes", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "6" {
			_, _ = w.Write([]byte(`{"items":[{"id":"R2"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"R1"},{"id":"R2"}]}`))
	})
	mux.HandleFunc("POST /negotiations", func(w http.ResponseWriter, _ *http.Request) {
		n := submissions.Add(1)
		w.Header().Set("Location", fmt.Sprintf("/negotiations/neg-%d", n))
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func TestResponder_AlreadyContacted(t *testing.T) {
	var subs atomic.Int32
	c, _ := newTestClient(t, fakeHH(t, &subs))
	r := NewResponder(c)

	contacted, err := r.AlreadyContacted(context.Background(), "2")
	require.NoError(t, err)
	assert.True(t, contacted)

	contacted, err = r.AlreadyContacted(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, contacted)

	_, err = r.AlreadyContacted(context.Background(), "404")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestResponder_CheckEligible(t *testing.T) {
	var subs atomic.Int32
	c, _ := newTestClient(t, fakeHH(t, &subs))
	r := NewResponder(c)
	ctx := context.Background()

	tests := []struct {
		id       string
		eligible bool
		letter   bool
		note     string
	}{
		{id: "1", eligible: true},
		{id: "3", note: "vacancy is archived"},
		{id: "4", note: "employer test required"},
		{id: "5", eligible: true, letter: true},
		{id: "6", note: "resume is not available for this vacancy"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			verdict, err := r.CheckEligible(ctx, tt.id, "R1")
			require.NoError(t, err)
			assert.Equal(t, tt.eligible, verdict.Eligible)
			assert.Equal(t, tt.letter, verdict.RequiresLetter)
			assert.Equal(t, tt.note, verdict.Note)
		})
	}
}

func TestResponder_SubmitAndPing(t *testing.T) {
	var subs atomic.Int32
	c, _ := newTestClient(t, fakeHH(t, &subs))
	r := NewResponder(c)

	require.NoError(t, r.Ping(context.Background()))

	sub, err := r.Submit(context.Background(), "1", "R1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "neg-1", sub.NegotiationID)
	assert.Equal(t, http.StatusCreated, sub.HTTPStatus)
}

func TestResponder_PingWithoutToken(t *testing.T) {
	var subs atomic.Int32
	c, _ := newTestClient(t, fakeHH(t, &subs), WithToken(""))
	r := NewResponder(c)

	assert.ErrorIs(t, r.Ping(context.Background()), ErrNoToken)
}

func TestResponder_DrivesBatch(t *testing.T) {
	var subs atomic.Int32
	c, _ := newTestClient(t, fakeHH(t, &subs))
	r := NewResponder(c)

	cfg := respond.DefaultConfig()
	cfg.ResumeID = "R1"
	cfg.RateLimit = 0
	cfg.DryRun = false

	result, err := respond.Run(context.Background(), r, []string{"1", "2", "3", "5", "404"}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []respond.Status{
		respond.StatusResponded,
		respond.StatusSkippedTested,
		respond.StatusSkippedIneligible,
		respond.StatusSkippedIneligible,
		respond.StatusFailed,
	}, result.Statuses())
	assert.Equal(t, "cover letter required", result.Outcomes[3].Note)
	assert.Equal(t, http.StatusNotFound, result.Outcomes[4].HTTPStatus)
	assert.Equal(t, int32(1), subs.Load())
}
