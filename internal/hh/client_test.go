package hh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient starts an httptest server and returns a client pointed at it
// whose backoff sleeps are recorded instead of performed.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *[]time.Duration) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var sleeps []time.Duration
	all := append([]Option{WithBaseURL(server.URL), WithToken("test-token")}, opts...)
	c := New(all...)
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id":"1","first_name":"Ivan","last_name":"Petrov","is_applicant":true}`))
	}), WithUserAgent("hhcli-test/1.0 (dev@example.com)"))

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ivan", me.FirstName)
	assert.True(t, me.IsApplicant)

	assert.Equal(t, "Bearer test-token", got.Get("Authorization"))
	assert.Equal(t, "hhcli-test/1.0 (dev@example.com)", got.Get("User-Agent"))
	assert.Equal(t, "hhcli-test/1.0 (dev@example.com)", got.Get("HH-User-Agent"))
}

func TestClient_NoTokenForAuthenticatedCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	_, err := c.MyResumes(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, calls.Load())
}

func TestClient_PublicCallWithoutToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"42","name":"Go developer"}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL))
	v, err := c.GetVacancy(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Go developer", v.Name)
	assert.Empty(t, auth)
}

func TestClient_RetriesOnceOn429(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		wantDelay  time.Duration
	}{
		{name: "seconds", retryAfter: "2", wantDelay: 2 * time.Second},
		{name: "missing header", retryAfter: "", wantDelay: time.Second},
		{name: "capped", retryAfter: "120", wantDelay: 30 * time.Second},
		{name: "garbage", retryAfter: "soon", wantDelay: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) == 1 {
					if tt.retryAfter != "" {
						w.Header().Set("Retry-After", tt.retryAfter)
					}
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				_, _ = w.Write([]byte(`{"items":[{"id":"r1","title":"Backend"}]}`))
			}))

			resumes, err := c.MyResumes(context.Background())
			require.NoError(t, err)
			require.Len(t, resumes, 1)
			assert.Equal(t, int32(2), calls.Load())
			assert.Equal(t, []time.Duration{tt.wantDelay}, *sleeps)
		})
	}
}

func TestClient_Second429IsReturned(t *testing.T) {
	var calls atomic.Int32
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "5")
		w.Header().Set("X-Request-Id", "rid-429")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.MyResumes(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, 5*time.Second, apiErr.RetryDelay())
	assert.Equal(t, "rid-429", apiErr.UpstreamRequestID())
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, *sleeps, 1)
}

func TestClient_APIErrorBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"type":"negotiations","value":"limit_exceeded"}],"request_id":"rid-body"}`))
	}))

	_, err := c.MyResumes(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus())
	assert.Equal(t, "rid-body", apiErr.RequestID)
	assert.True(t, apiErr.Has("negotiations", "limit_exceeded"))
	assert.True(t, apiErr.Has("negotiations", ""))
	assert.False(t, apiErr.Has("oauth", ""))
	assert.Zero(t, apiErr.RetryDelay())
	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Contains(t, err.Error(), "negotiations/limit_exceeded")
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c := New(WithBaseURL(base), WithToken("t"))
	_, err := c.Me(context.Background())
	require.Error(t, err)

	var tErr *TransportError
	assert.ErrorAs(t, err, &tErr)
	assert.Zero(t, StatusOf(err))
}

func TestClient_UndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := c.Me(context.Background())
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_CancelledContext(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}), WithRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Me(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSearchVacancies_DropsUnsetParams(t *testing.T) {
	var query map[string][]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vacancies", r.URL.Path)
		query = r.URL.Query()
		_, _ = w.Write([]byte(`{"items":[{"id":"1","name":"Go"}],"found":1,"pages":1,"page":0,"per_page":20}`))
	}))

	page, err := c.SearchVacancies(context.Background(), SearchParams{
		Text:             "golang",
		ProfessionalRole: []string{"96", "", "104"},
		OnlyWithSalary:   true,
		PerPage:          20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Found)

	assert.Equal(t, []string{"golang"}, query["text"])
	assert.Equal(t, []string{"96", "104"}, query["professional_role"])
	assert.Equal(t, []string{"true"}, query["only_with_salary"])
	assert.Equal(t, []string{"20"}, query["per_page"])
	assert.NotContains(t, query, "area")
	assert.NotContains(t, query, "salary")
	assert.NotContains(t, query, "page")
}

func TestVacancies_Paginates(t *testing.T) {
	var pages []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "", "0":
			_, _ = w.Write([]byte(`{"items":[{"id":"1"},{"id":"2"}],"pages":3,"page":0}`))
		case "1":
			_, _ = w.Write([]byte(`{"items":[{"id":"3"},{"id":"4"}],"pages":3,"page":1}`))
		default:
			_, _ = w.Write([]byte(`{"items":[{"id":"5"}],"pages":3,"page":2}`))
		}
	}))

	all, err := c.Vacancies(context.Background(), SearchParams{Text: "go"}, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "5", all[4].ID)
	assert.Len(t, pages, 3)

	pages = nil
	limited, err := c.Vacancies(context.Background(), SearchParams{Text: "go"}, 3)
	require.NoError(t, err)
	require.Len(t, limited, 3)
	assert.Equal(t, "3", limited[2].ID)
	assert.Len(t, pages, 2)
}

func TestVacancies_StopsOnEmptyPage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[],"pages":10}`))
	}))

	all, err := c.Vacancies(context.Background(), SearchParams{}, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestVacancyResumes(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vacancies/77/resumes", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{"id":"R1"},{"id":"R2"}]}`))
	}))

	resumes, err := c.VacancyResumes(context.Background(), " 77 ")
	require.NoError(t, err)
	assert.Len(t, resumes, 2)

	_, err = c.VacancyResumes(context.Background(), "  ")
	assert.Error(t, err)
}

func TestRequestIDFromHeaders(t *testing.T) {
	for _, header := range []string{"X-Request-Id", "Request-Id"} {
		t.Run(header, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set(header, "rid-"+header)
				w.WriteHeader(http.StatusNotFound)
			}))
			_, err := c.GetVacancy(context.Background(), "1")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, fmt.Sprintf("rid-%s", header), apiErr.RequestID)
		})
	}
}
