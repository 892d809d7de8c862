package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hhcli/internal/settings"
)

func TestSettingsSetAndShow(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "settings", "set", "--resume", "R1", "--message", "hello")
	require.NoError(t, err)

	// Only the passed flag changes.
	_, _, err = env.run(t, "settings", "set", "--resume", "R2")
	require.NoError(t, err)

	out, _, err := env.run(t, "settings", "show", "--json")
	require.NoError(t, err)
	var st settings.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "R2", st.ResumeID)
	assert.Equal(t, "hello", st.Message)
	assert.False(t, st.UpdatedAt.IsZero())

	out, _, err = env.run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "R2")
}

func TestSettingsSet_NothingToChange(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "settings", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestHistory_RequiresDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	_, _, err = env.run(t, "history", "--batch", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UUID")
}
