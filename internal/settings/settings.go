// Package settings persists the user's mass-response defaults (active
// resume and cover letter template) between batches.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/hhcli/internal/schemas"
)

// Settings holds the values used to pre-fill the next batch.
type Settings struct {
	ResumeID  string    `json:"resume_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// MergeWithDefaults returns a copy of s with empty fields taken from defaults.
func (s Settings) MergeWithDefaults(defaults Settings) Settings {
	result := s
	if strings.TrimSpace(result.ResumeID) == "" {
		result.ResumeID = defaults.ResumeID
	}
	if result.Message == "" {
		result.Message = defaults.Message
	}
	return result
}

// Store loads and saves Settings. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// FileStore keeps settings in a JSON file validated against the settings schema.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the settings file. A missing file yields zero Settings.
func (f *FileStore) Load(_ context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file %s: %w", f.path, err)
	}
	if err := schemas.Validate(schemas.Settings, data); err != nil {
		return Settings{}, fmt.Errorf("invalid settings file %s: %w", f.path, err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	return s, nil
}

// Save writes the settings file atomically, creating its directory if needed.
func (f *FileStore) Save(_ context.Context, s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in memory only.
type MemoryStore struct {
	mu sync.RWMutex
	s  Settings
}

// NewMemoryStore returns a store holding initial.
func NewMemoryStore(initial Settings) *MemoryStore {
	return &MemoryStore{s: initial}
}

func (m *MemoryStore) Load(_ context.Context) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now().UTC()
	m.s = s
	return nil
}
