package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level LogLevel) (*FymoLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return logger, buf
}

func parseRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}
	return records
}

func TestLoggerWritesStructuredRecords(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug)

	logger.Info(context.Background(), "component compiled",
		"identity", "home/index.svelte",
		"target", "server",
	)

	records := parseRecords(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "component compiled", records[0]["msg"])
	assert.Equal(t, "home/index.svelte", records[0]["identity"])
	assert.Equal(t, "server", records[0]["target"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	records := parseRecords(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "warn message", records[0]["msg"])
	assert.Equal(t, "error message", records[1]["msg"])
}

func TestLoggerErrorField(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo)

	logger.Error(context.Background(), errors.New("render budget exceeded"), "render failed")

	records := parseRecords(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "render failed", records[0]["msg"])
	assert.Equal(t, "render budget exceeded", records[0]["error"])
}

func TestLoggerFatalIgnoresLevel(t *testing.T) {
	logger, buf := newTestLogger(LevelFatal)
	ctx := context.Background()

	logger.Error(ctx, errors.New("suppressed"), "error message")
	logger.Fatal(ctx, errors.New("fatal"), "fatal message")

	records := parseRecords(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "fatal message", records[0]["msg"])
}

func TestLoggerWith(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo)
	ctx := context.Background()

	scoped := logger.With("route", "/posts/:id", "controller", "posts")
	scoped.Info(ctx, "route matched")
	logger.Info(ctx, "plain record")

	records := parseRecords(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "/posts/:id", records[0]["route"])
	assert.Equal(t, "posts", records[0]["controller"])

	// Fields must not leak back into the parent logger.
	assert.NotContains(t, records[1], "route")
}

func TestLoggerWithComponent(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo)

	logger.WithComponent("renderer").Info(context.Background(), "page assembled")

	records := parseRecords(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "renderer", records[0]["component"])
}

func TestLoggerWithRequestID(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo)

	logger.WithRequestID("req-42").Info(context.Background(), "request served")

	records := parseRecords(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "req-42", records[0]["request_id"])
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelFatal, "FATAL"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"fatal", LevelFatal},
	}

	for _, tt := range tests {
		level, err := ParseLevel(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, level)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestPerfLogger(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo)
	ctx := context.Background()

	t.Run("successful operation", func(t *testing.T) {
		buf.Reset()
		perf := logger.StartOperation("render home/index.svelte")
		perf.End(ctx)

		records := parseRecords(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "Operation completed", records[0]["msg"])
		assert.Equal(t, "render home/index.svelte", records[0]["operation"])
		assert.Contains(t, records[0], "duration_ms")
	})

	t.Run("failed operation", func(t *testing.T) {
		buf.Reset()
		perf := logger.StartOperation("compile")
		perf.EndWithError(ctx, errors.New("compiler exited"))

		records := parseRecords(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "Operation failed", records[0]["msg"])
		assert.Equal(t, "compiler exited", records[0]["error"])
	})
}
