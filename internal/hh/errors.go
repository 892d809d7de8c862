package hh

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoToken is returned for authenticated calls when no access token is configured.
var ErrNoToken = errors.New("hh: no access token configured")

// ErrorItem is one entry of the errors array in an hh.ru error body.
type ErrorItem struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Method      string
	Path        string
	Status      int
	Errors      []ErrorItem
	Description string
	RequestID   string
	RetryAfter  time.Duration // set when the response was a 429
	Body        string        // first bytes of the raw body
}

func (e *APIError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "hh api: %s %s: HTTP %d", e.Method, e.Path, e.Status)
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, item := range e.Errors {
			if item.Value != "" {
				parts = append(parts, item.Type+"/"+item.Value)
			} else {
				parts = append(parts, item.Type)
			}
		}
		sb.WriteString(" ")
		sb.WriteString(strings.Join(parts, ", "))
	} else if e.Description != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Description)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&sb, " (request_id=%s)", e.RequestID)
	}
	return sb.String()
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.Status }

// UpstreamRequestID returns the request id the upstream assigned.
func (e *APIError) UpstreamRequestID() string { return e.RequestID }

// RetryDelay returns the upstream backoff hint, if any.
func (e *APIError) RetryDelay() time.Duration { return e.RetryAfter }

// Has reports whether the error body contains an item of the given type and,
// when value is non-empty, value.
func (e *APIError) Has(typ, value string) bool {
	for _, item := range e.Errors {
		if item.Type == typ && (value == "" || item.Value == value) {
			return true
		}
	}
	return false
}

func newAPIError(method, path string, resp *response) *APIError {
	apiErr := &APIError{
		Method:    method,
		Path:      path,
		Status:    resp.status,
		RequestID: resp.requestID,
		Body:      preview(resp.body),
	}
	var body struct {
		Errors      []ErrorItem `json:"errors"`
		Description string      `json:"description"`
	}
	if json.Unmarshal(resp.body, &body) == nil {
		apiErr.Errors = body.Errors
		apiErr.Description = body.Description
	}
	if resp.status == http.StatusTooManyRequests {
		apiErr.RetryAfter = retryAfter(resp.header)
	}
	return apiErr
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLen {
		return string(body[:bodyPreviewLen])
	}
	return string(body)
}

// TransportError is a failure to complete a request: network errors,
// cancelled contexts and undecodable bodies.
type TransportError struct {
	Method string
	Path   string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hh api: %s %s: %v", e.Method, e.Path, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
