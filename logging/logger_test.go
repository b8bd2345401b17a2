package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerDefaultsToDiscard(t *testing.T) {
	SetLogger(nil)
	require.NotNil(t, Logger())
	Logger().Info("dropped")
}

func TestRecorderCapturesAttrs(t *testing.T) {
	rec := NewRecorder()
	l := slog.New(rec).With("component", "editor")
	l.Warn("save failed", "key", "editor-state")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
	assert.Equal(t, "editor", entries[0].Attrs["component"])
	assert.Equal(t, "editor-state", entries[0].Attrs["key"])
	assert.True(t, rec.Contains(slog.LevelWarn, "save"))
	assert.False(t, rec.Contains(slog.LevelError, "save"))
}

func TestConsoleWritesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsole(&buf, slog.LevelInfo, false)
	l.Debug("hidden")
	l.Info("shown", "n", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
