package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsInfoOnStderr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.NotNil(t, cfg.Output)
}

func TestDebugConfigOverridesLevel(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, "debug", cfg.Level)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info("should not appear")
	assert.Empty(t, buf.String())

	logger.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestNewFallsBackToStderrWhenOutputNil(t *testing.T) {
	logger := New(Config{Level: "info"})
	assert.NotNil(t, logger)
}

func TestDefaultReturnsUsableLogger(t *testing.T) {
	assert.NotNil(t, Default())
}

func TestParseLevelVariants(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		assert.Equal(t, want, LevelFromString(input), "level %q", input)
	}
}

func TestNewWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Output: &buf})
	logger.Debug("indexing started", "files", 12)

	out := buf.String()
	assert.True(t, strings.Contains(out, "indexing started"))
	assert.True(t, strings.Contains(out, "files=12"))
}
