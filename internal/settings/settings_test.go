package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Settings{}, s)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewFileStore(path)
	ctx := context.Background()

	err := store.Save(ctx, Settings{ResumeID: "abc123", Message: "Здравствуйте!"})
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", loaded.ResumeID)
	assert.Equal(t, "Здравствуйте!", loaded.Message)
	assert.False(t, loaded.UpdatedAt.IsZero())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"resume_id": 12}`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings file")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(Settings{ResumeID: "r1"})
	ctx := context.Background()

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", s.ResumeID)

	require.NoError(t, store.Save(ctx, Settings{ResumeID: "r2", Message: "hi"}))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r2", s.ResumeID)
	assert.Equal(t, "hi", s.Message)
}

func TestSettings_MergeWithDefaults(t *testing.T) {
	defaults := Settings{ResumeID: "stored", Message: "stored message"}

	got := Settings{}.MergeWithDefaults(defaults)
	assert.Equal(t, "stored", got.ResumeID)
	assert.Equal(t, "stored message", got.Message)

	got = Settings{ResumeID: "explicit", Message: "explicit message"}.MergeWithDefaults(defaults)
	assert.Equal(t, "explicit", got.ResumeID)
	assert.Equal(t, "explicit message", got.Message)

	got = Settings{ResumeID: "  "}.MergeWithDefaults(defaults)
	assert.Equal(t, "stored", got.ResumeID)
}
