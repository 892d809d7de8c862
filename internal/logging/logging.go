// Package logging builds the zap loggers shared by the CLI and the proxy server.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production zap logger writing JSON to stderr.
// verbose forces debug level; otherwise HHCLI_LOG_LEVEL is honored (default warn
// for the CLI so command output stays readable).
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := levelFromEnv(zapcore.WarnLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// NewServer returns the logger used by `hhcli serve`, which defaults to info.
func NewServer(verbose bool) (*zap.Logger, error) {
	if !verbose && os.Getenv("HHCLI_LOG_LEVEL") == "" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err := config.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return logger, nil
	}
	return New(verbose)
}

func levelFromEnv(fallback zapcore.Level) (zapcore.Level, error) {
	raw := strings.TrimSpace(os.Getenv("HHCLI_LOG_LEVEL"))
	if raw == "" {
		return fallback, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return fallback, fmt.Errorf("invalid HHCLI_LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

// Token returns a zap field that shows only the last four characters of a secret.
func Token(key, secret string) zap.Field {
	return zap.String(key, Redact(secret))
}

// Redact masks all but the last four characters of s.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
