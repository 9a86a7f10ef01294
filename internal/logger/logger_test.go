package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancario/account-service/internal/config"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"Debug", "debug", slog.LevelDebug},
		{"UpperCase", "DEBUG", slog.LevelDebug},
		{"Info", "info", slog.LevelInfo},
		{"Warn", "warn", slog.LevelWarn},
		{"WarningAlias", "warning", slog.LevelWarn},
		{"Error", "error", slog.LevelError},
		{"UnknownFallsBackToInfo", "verbose", slog.LevelInfo},
		{"EmptyFallsBackToInfo", "", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.input))
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	cfg := &config.Config{Logging: config.LoggingConfig{Level: "warn"}}

	logger := NewLogger(cfg)
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestNewLogger_JSONCarriesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		Application: config.ApplicationConfig{Name: "account-api", Env: "test"},
		Logging:     config.LoggingConfig{Level: "info", Format: "json"},
	}

	newLogger(&buf, cfg).Info("account opened", "account_id", "a-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "account opened", record["msg"])
	assert.Equal(t, "account-api", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "a-1", record["account_id"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		Application: config.ApplicationConfig{Name: "account-worker", Env: "dev"},
		Logging:     config.LoggingConfig{Level: "debug", Format: "TEXT"},
	}

	newLogger(&buf, cfg).Info("eod finished")

	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=\"eod finished\""), out)
	assert.Contains(t, out, "service=account-worker")
	assert.Contains(t, out, "env=dev")
}
