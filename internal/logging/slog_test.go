package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})

	return NewSlog(slog.New(handler)), buf
}

func TestSlogLogger_Debug(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.Debug("group created", "key", 7)

	out := buf.String()
	require.Contains(t, out, "group created")
	require.Contains(t, out, "key=7")
	require.Contains(t, out, "level=DEBUG")
}

func TestSlogLogger_DebugSuppressedAtInfoLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Debug("should not appear")

	require.Empty(t, buf.String())
}

func TestSlogLogger_InfoWarnError(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.Info("info msg", "a", 1)
	logger.Warn("warn msg", "b", 2)
	logger.Error("error msg", "c", 3)

	out := buf.String()
	require.Contains(t, out, "level=INFO")
	require.Contains(t, out, "info msg")
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "warn msg")
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "error msg")
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	logger := NewNop()

	require.NotPanics(t, func() {
		logger.Debug("msg", "k", "v")
		logger.Info("msg")
		logger.Warn("msg", "k")
		logger.Error("msg", "k", "v", "extra")
	})
}
