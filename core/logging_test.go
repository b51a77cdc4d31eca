package core

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerTo(&buf, LogConfig{Level: "warn", Format: "text"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "component", "engine")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=engine")
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerTo(&buf, LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)

	logger.Debug("compiled", "effect", "default")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"effect":"default"`)
}

func TestNewLoggerErrors(t *testing.T) {
	_, err := NewLoggerTo(&bytes.Buffer{}, LogConfig{Format: "xml"})
	assert.Error(t, err)

	_, err = NewLoggerTo(&bytes.Buffer{}, LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
		assert.False(t, l.Enabled(context.Background(), level))
	}
	assert.Same(t, slog.Default(), LoggerOr(nil))
	assert.Same(t, l, LoggerOr(l))
}
