package db

import (
	"time"

	"github.com/google/uuid"
)

// SentResponse is one row of the response history.
type SentResponse struct {
	ID            uuid.UUID  `json:"id"`
	BatchID       *uuid.UUID `json:"batch_id,omitempty"`
	VacancyID     string     `json:"vacancy_id"`
	ResumeID      string     `json:"resume_id"`
	Message       *string    `json:"message,omitempty"`
	DryRun        bool       `json:"dry_run"`
	Status        string     `json:"status"`
	Reason        *string    `json:"error,omitempty"`
	Note          *string    `json:"note,omitempty"`
	HTTPStatus    *int       `json:"http_code,omitempty"`
	NegotiationID *string    `json:"negotiation_id,omitempty"`
	RequestID     *string    `json:"request_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ResponseFilter narrows ListResponses. Zero values match everything.
type ResponseFilter struct {
	VacancyID string
	BatchID   *uuid.UUID
	Status    string
	Limit     int // defaults to DefaultListLimit
	Offset    int
}

// DefaultListLimit is the page size used when ResponseFilter.Limit is unset.
const DefaultListLimit = 100

// settingsKey is the single row the settings store uses.
const settingsKey = "default"
