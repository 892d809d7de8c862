package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hhcli/internal/settings"
)

// SettingsStore keeps settings in the settings table.
type SettingsStore struct {
	db *DB
}

var _ settings.Store = (*SettingsStore)(nil)

// Settings returns a settings.Store backed by this database.
func (db *DB) Settings() *SettingsStore {
	return &SettingsStore{db: db}
}

// Load returns the stored settings, or zero Settings if none were saved.
func (s *SettingsStore) Load(ctx context.Context) (settings.Settings, error) {
	var (
		resumeID, message *string
		updatedAt         time.Time
	)
	err := s.db.pool.QueryRow(ctx,
		`SELECT resume_id, message, updated_at FROM settings WHERE key = $1`,
		settingsKey,
	).Scan(&resumeID, &message, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Settings{}, nil
		}
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	out := settings.Settings{UpdatedAt: updatedAt}
	if resumeID != nil {
		out.ResumeID = *resumeID
	}
	if message != nil {
		out.Message = *message
	}
	return out, nil
}

// Save upserts the settings row.
func (s *SettingsStore) Save(ctx context.Context, st settings.Settings) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO settings (key, resume_id, message, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET resume_id = $2, message = $3, updated_at = NOW()`,
		settingsKey, nullIfEmpty(st.ResumeID), nullIfEmpty(st.Message),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
