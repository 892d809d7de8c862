package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/hhcli/internal/db"
	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/respond"
	"github.com/jonathan/hhcli/internal/settings"
	"github.com/jonathan/hhcli/internal/targets"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; id lists are the largest payloads.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, map[string]any{
		"status":  "ok",
		"history": s.history != nil,
		"auth":    s.jwtService != nil,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, st)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	req.ResumeID = strings.TrimSpace(req.ResumeID)
	if err := validateRequest(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.store.Save(r.Context(), settings.Settings{ResumeID: req.ResumeID, Message: req.Message}); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	page, err := s.client.SearchVacancies(r.Context(), req.Params())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, page)
}

// VacancyView is a vacancy with its rendered salary and plain-text description.
type VacancyView struct {
	*hh.Vacancy
	SalaryText      string `json:"salary_text,omitempty"`
	DescriptionText string `json:"description_text,omitempty"`
}

func (s *Server) handleGetVacancy(w http.ResponseWriter, r *http.Request) {
	v, err := s.client.GetVacancy(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view := VacancyView{Vacancy: v, SalaryText: hh.FormatSalary(v.Salary)}
	if v.Description != "" {
		text, err := hh.DescriptionText(v.Description)
		if err != nil {
			s.log.Debug("failed to render description", zap.String("vacancy_id", v.ID), zap.Error(err))
		}
		view.DescriptionText = text
	}
	s.ok(w, view)
}

func (s *Server) handleResumes(w http.ResponseWriter, r *http.Request) {
	resumes, err := s.client.MyResumes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, resumes)
}

// savedResume returns resumeID, or the saved one when resumeID is blank.
func (s *Server) savedResume(r *http.Request, resumeID string) (settings.Settings, string, error) {
	saved, err := s.store.Load(r.Context())
	if err != nil {
		return settings.Settings{}, "", err
	}
	if id := strings.TrimSpace(resumeID); id != "" {
		return saved, id, nil
	}
	if saved.ResumeID == "" {
		return saved, "", &ErrValidation{Field: "resume_id", Message: "is required (no saved resume)"}
	}
	return saved, saved.ResumeID, nil
}

func (s *Server) handleCanRespond(w http.ResponseWriter, r *http.Request) {
	req := CanRespondRequest{
		VacancyID: r.URL.Query().Get("vacancy_id"),
		ResumeID:  r.URL.Query().Get("resume_id"),
	}
	if err := decodeJSON(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.fail(w, r, err)
		return
	}
	_, resumeID, err := s.savedResume(r, req.ResumeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	responder := hh.NewResponder(s.client)
	contacted, err := responder.AlreadyContacted(ctx, req.VacancyID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	verdict, err := responder.CheckEligible(ctx, req.VacancyID, resumeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.ok(w, CanRespondResponse{
		VacancyID:        req.VacancyID,
		ResumeID:         resumeID,
		Eligible:         verdict.Eligible,
		RequiresLetter:   verdict.RequiresLetter,
		AlreadyResponded: contacted,
		Note:             verdict.Note,
	})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, resumeID, err := s.savedResume(r, req.ResumeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	message := saved.Message
	if req.Message != nil {
		message = *req.Message
	}

	outcome, err := respond.Submit(r.Context(), hh.NewResponder(s.client), req.VacancyID, resumeID, message)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.history != nil {
		cfg := respond.Config{ResumeID: resumeID, Message: message}
		if _, err := s.history.LogOutcome(r.Context(), uuid.Nil, cfg, outcome, false); err != nil {
			s.log.Warn("failed to record response", zap.String("vacancy_id", outcome.TargetID), zap.Error(err))
		}
	}
	s.ok(w, outcome)
}

func (s *Server) handleRespondMass(w http.ResponseWriter, r *http.Request) {
	var req MassRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, strings.TrimSpace(id))
	}
	ids = append(ids, targets.ExtractFromText(req.IDsText)...)
	if len(ids) == 0 {
		s.fail(w, r, &ErrValidation{Field: "ids", Message: "at least one vacancy id is required"})
		return
	}

	saved, err := s.store.Load(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cfg := req.BatchConfig(saved)

	result, err := respond.Run(r.Context(), hh.NewResponder(s.client), ids, cfg, respond.WithLogger(s.log))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// The batch already happened; bookkeeping failures are logged, not returned.
	ctx := context.WithoutCancel(r.Context())
	if s.history != nil {
		if err := s.history.LogResult(ctx, cfg, result); err != nil {
			s.log.Warn("failed to record batch", zap.String("batch_id", result.BatchID.String()), zap.Error(err))
		}
	}
	if req.shouldSaveSettings() {
		next := settings.Settings{ResumeID: cfg.ResumeID, Message: cfg.Message}
		if err := s.store.Save(ctx, next); err != nil {
			s.log.Warn("failed to save settings", zap.Error(err))
		}
	}
	s.ok(w, result)
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.fail(w, r, ErrHistoryDisabled)
		return
	}

	q := r.URL.Query()
	filter := db.ResponseFilter{
		VacancyID: q.Get("vacancy_id"),
		Status:    q.Get("status"),
	}
	if v := q.Get("batch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "batch_id", Message: "must be a UUID"})
			return
		}
		filter.BatchID = &id
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, &ErrValidation{Field: p.name, Message: "must be a non-negative integer"})
			return
		}
		*p.dst = n
	}

	rows, err := s.history.ListResponses(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, rows)
}
