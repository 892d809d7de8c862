package hh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
)

const negotiationsPath = "/negotiations"

// CreateNegotiation responds to a vacancy with a resume. The body is sent as
// JSON first; if hh.ru answers 400 naming both vacancy_id and resume_id (it
// did not parse the JSON body) the same payload is resent as a form.
// A non-2xx answer to the form attempt is returned as is.
func (c *Client) CreateNegotiation(ctx context.Context, vacancyID, resumeID, message string) (*NegotiationResult, error) {
	vacancyID, err := cleanID("vacancy id", vacancyID)
	if err != nil {
		return nil, err
	}
	resumeID, err = cleanID("resume id", resumeID)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"vacancy_id": vacancyID, "resume_id": resumeID}
	if message != "" {
		payload["message"] = map[string]string{"text": message}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        negotiationsPath,
		body:        body,
		contentType: "application/json",
		auth:        true,
	})
	if err != nil {
		if !needsFormRetry(err) {
			return nil, err
		}
		c.logger.Info("negotiation JSON body rejected, retrying as form",
			zap.String("vacancy_id", vacancyID),
			zap.String("request_id", requestIDFrom(err)))

		form := url.Values{}
		form.Set("vacancy_id", vacancyID)
		form.Set("resume_id", resumeID)
		if message != "" {
			form.Set("message", message)
		}
		resp, err = c.do(ctx, request{
			method:      http.MethodPost,
			path:        negotiationsPath,
			body:        []byte(form.Encode()),
			contentType: "application/x-www-form-urlencoded",
			auth:        true,
		})
		if err != nil {
			return nil, err
		}
	}

	return &NegotiationResult{
		ID:         negotiationID(resp),
		RequestID:  resp.requestID,
		HTTPStatus: resp.status,
	}, nil
}

// ListNegotiations returns one page of the applicant's responses and invitations.
func (c *Client) ListNegotiations(ctx context.Context, page, perPage int) (*Page[Negotiation], error) {
	if perPage <= 0 || perPage > maxPerPage {
		perPage = 50
	}
	var out Page[Negotiation]
	if err := c.getJSON(ctx, negotiationsPath, pageQuery(page, perPage), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func needsFormRetry(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		return false
	}
	return strings.Contains(apiErr.Body, "vacancy_id") && strings.Contains(apiErr.Body, "resume_id")
}

func requestIDFrom(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RequestID
	}
	return ""
}

// negotiationID takes the id from the Location header (201 Created) or from
// an id field in the body.
func negotiationID(resp *response) string {
	if loc := resp.header.Get("Location"); loc != "" {
		if u, err := url.Parse(loc); err == nil {
			if id := path.Base(u.Path); id != "" && id != "/" && id != "." {
				return id
			}
		}
	}
	var body struct {
		ID            json.RawMessage `json:"id"`
		NegotiationID json.RawMessage `json:"negotiation_id"`
	}
	if len(bytes.TrimSpace(resp.body)) == 0 || json.Unmarshal(resp.body, &body) != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{body.ID, body.NegotiationID} {
		if id := rawID(raw); id != "" {
			return id
		}
	}
	return ""
}

// rawID accepts both string and numeric ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
