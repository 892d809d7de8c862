package server

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/respond"
	"github.com/jonathan/hhcli/internal/settings"
)

// defaultSearchPerPage matches the page size the web UI asks for.
const defaultSearchPerPage = 20

var validate = newValidator()

// newValidator reports JSON field names instead of Go field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and converts the first failure
// into an *ErrValidation.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must be numeric"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// SettingsRequest is the body of PUT /api/settings.
type SettingsRequest struct {
	ResumeID string `json:"resume_id" validate:"required"`
	Message  string `json:"message"`
}

// SearchRequest is the body of POST /api/search. Query, when set, is
// rendered into the text parameter.
type SearchRequest struct {
	hh.SearchParams
	Query *hh.TextQuery `json:"query,omitempty"`
}

// Params returns the upstream search parameters.
func (r SearchRequest) Params() hh.SearchParams {
	p := r.SearchParams
	if p.PerPage == 0 {
		p.PerPage = defaultSearchPerPage
	}
	if r.Query == nil {
		return p
	}
	q := r.Query.String()
	switch {
	case q == "":
	case p.Text == "":
		p.Text = q
	default:
		p.Text = "(" + p.Text + ") AND " + q
	}
	return p
}

// CanRespondRequest is the body (or query) of POST /api/can-respond.
type CanRespondRequest struct {
	VacancyID string `json:"vacancy_id" validate:"required,numeric"`
	ResumeID  string `json:"resume_id"`
}

// CanRespondResponse is the verdict returned by POST /api/can-respond.
type CanRespondResponse struct {
	VacancyID        string `json:"vacancy_id"`
	ResumeID         string `json:"resume_id"`
	Eligible         bool   `json:"eligible"`
	RequiresLetter   bool   `json:"requires_letter"`
	AlreadyResponded bool   `json:"already_responded"`
	Note             string `json:"note,omitempty"`
}

// RespondRequest is the body of POST /api/respond. Empty resume id and a
// nil message fall back to the saved settings.
type RespondRequest struct {
	VacancyID string  `json:"vacancy_id" validate:"required,numeric"`
	ResumeID  string  `json:"resume_id"`
	Message   *string `json:"message"`
}

// MassRequest is the body of POST /api/respond/mass.
type MassRequest struct {
	IDs           []string `json:"ids" validate:"omitempty,dive,required"`
	IDsText       string   `json:"ids_text"` // free text; every digit run is a vacancy id
	ResumeID      string   `json:"resume_id"`
	Message       *string  `json:"message"`
	SkipTested    *bool    `json:"skip_tested"`
	RequireLetter bool     `json:"require_letter"`
	RateLimit     *float64 `json:"rate_limit" validate:"omitempty,min=0"` // seconds between submissions
	Limit         int      `json:"limit" validate:"min=0"`
	DryRun        *bool    `json:"dry_run"`
	SaveSettings  *bool    `json:"save_settings"`
}

// BatchConfig builds the batch configuration from the request, the saved
// settings and the batch defaults, in that order of precedence.
func (r MassRequest) BatchConfig(saved settings.Settings) respond.Config {
	cfg := respond.DefaultConfig()
	cfg.ResumeID = strings.TrimSpace(r.ResumeID)
	if cfg.ResumeID == "" {
		cfg.ResumeID = saved.ResumeID
	}
	if r.Message != nil {
		cfg.Message = *r.Message
	} else {
		cfg.Message = saved.Message
	}
	if r.SkipTested != nil {
		cfg.SkipTested = *r.SkipTested
	}
	cfg.RequireLetter = r.RequireLetter
	if r.RateLimit != nil {
		cfg.RateLimit = time.Duration(*r.RateLimit * float64(time.Second))
	}
	cfg.Limit = r.Limit
	if r.DryRun != nil {
		cfg.DryRun = *r.DryRun
	}
	return cfg
}

// shouldSaveSettings defaults to true.
func (r MassRequest) shouldSaveSettings() bool {
	return r.SaveSettings == nil || *r.SaveSettings
}
