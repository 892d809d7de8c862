package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemas_ValidJSON(t *testing.T) {
	for _, name := range []string{Config, Settings} {
		t.Run(name, func(t *testing.T) {
			data, err := files.ReadFile(name + ".schema.json")
			require.NoError(t, err)

			var v map[string]any
			require.NoError(t, json.Unmarshal(data, &v), "schema should be valid JSON")
			assert.Equal(t, "object", v["type"])
		})
	}
}

func TestValidate_Settings(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantError bool
	}{
		{name: "empty object", doc: `{}`},
		{name: "full", doc: `{"resume_id": "abc123", "message": "Hello"}`},
		{name: "resume id wrong type", doc: `{"resume_id": 42}`, wantError: true},
		{name: "unknown field", doc: `{"resume": "abc"}`, wantError: true},
		{name: "not an object", doc: `["abc"]`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Settings, []byte(tt.doc))
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.Errors)
			assert.Contains(t, err.Error(), "settings validation failed")
		})
	}
}

func TestValidate_Config(t *testing.T) {
	assert.NoError(t, Validate(Config, []byte(`{"client_id": "x", "token_expires_at": 1700000000}`)))

	err := Validate(Config, []byte(`{"token_expires_at": -5}`))
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "token_expires_at", ve.Errors[0].Field)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(Settings, []byte(`{ invalid json }`))
	require.Error(t, err)

	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, Settings, le.Name)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}
