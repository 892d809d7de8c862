package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hhcli/internal/respond"
)

// nullIfEmpty converts empty strings to NULL
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// LogOutcome records one outcome of a batch.
func (db *DB) LogOutcome(ctx context.Context, batchID uuid.UUID, cfg respond.Config, o respond.Outcome, dryRun bool) (uuid.UUID, error) {
	id := uuid.New()
	var batch *uuid.UUID
	if batchID != uuid.Nil {
		batch = &batchID
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO sent_responses
		   (id, batch_id, vacancy_id, resume_id, message, dry_run, status, reason, note, http_status, negotiation_id, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, batch, o.TargetID, cfg.ResumeID, nullIfEmpty(cfg.Message), dryRun, string(o.Status),
		nullIfEmpty(o.Reason), nullIfEmpty(o.Note), nullIfZero(o.HTTPStatus),
		nullIfEmpty(o.NegotiationID), nullIfEmpty(o.RequestID),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to log outcome for %s: %w", o.TargetID, err)
	}
	return id, nil
}

// LogResult records every outcome of a finished batch in one transaction.
func (db *DB) LogResult(ctx context.Context, cfg respond.Config, r *respond.Result) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, o := range r.Outcomes {
		batch.Queue(
			`INSERT INTO sent_responses
			   (id, batch_id, vacancy_id, resume_id, message, dry_run, status, reason, note, http_status, negotiation_id, request_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.New(), r.BatchID, o.TargetID, cfg.ResumeID, nullIfEmpty(cfg.Message), r.DryRun, string(o.Status),
			nullIfEmpty(o.Reason), nullIfEmpty(o.Note), nullIfZero(o.HTTPStatus),
			nullIfEmpty(o.NegotiationID), nullIfEmpty(o.RequestID),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to log batch %s: %w", r.BatchID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch %s: %w", r.BatchID, err)
	}
	return nil
}

// buildListQuery returns the SELECT for f and its arguments.
func buildListQuery(f ResponseFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.VacancyID != "" {
		args = append(args, f.VacancyID)
		where = append(where, fmt.Sprintf("vacancy_id = $%d", len(args)))
	}
	if f.BatchID != nil {
		args = append(args, *f.BatchID)
		where = append(where, fmt.Sprintf("batch_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, batch_id, vacancy_id, resume_id, message, dry_run, status, reason, note,
		http_status, negotiation_id, request_id, created_at
		FROM sent_responses`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}
	return sb.String(), args
}

// ListResponses returns history rows, newest first.
func (db *DB) ListResponses(ctx context.Context, f ResponseFilter) ([]SentResponse, error) {
	query, args := buildListQuery(f)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var out []SentResponse
	for rows.Next() {
		var r SentResponse
		if err := rows.Scan(
			&r.ID, &r.BatchID, &r.VacancyID, &r.ResumeID, &r.Message, &r.DryRun, &r.Status,
			&r.Reason, &r.Note, &r.HTTPStatus, &r.NegotiationID, &r.RequestID, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return out, nil
}

// HasResponded reports whether a non-dry-run response to vacancyID was
// recorded as accepted.
func (db *DB) HasResponded(ctx context.Context, vacancyID string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM sent_responses
		   WHERE vacancy_id = $1 AND status = $2 AND NOT dry_run
		 )`,
		vacancyID, string(respond.StatusResponded),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check history for %s: %w", vacancyID, err)
	}
	return exists, nil
}
