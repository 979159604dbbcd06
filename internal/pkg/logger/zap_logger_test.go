package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.Info("SESSION", "Session started", map[string]interface{}{"session_id": "abc"})
	l.Error("FEEDBACK_JOB", "Job failed", map[string]interface{}{"error": "boom"})
	l.Warn("PERSONA", "Trait defaulted", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "Session started", entries[0].Message)
	assert.Equal(t, "SESSION", entries[0].ContextMap()["module"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error_ref"])

	assert.Equal(t, map[string]interface{}{}, entries[2].ContextMap()["details"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("X", "y", nil)
		_ = l.Sync()
	})
}

func TestWatermillAdapterMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := NewWatermillAdapter(NewWithCore(core), "FEEDBACK_JOB")

	child := a.With(map[string]interface{}{"handler": "feedback"})
	child.Error("Handler failed", assert.AnError, map[string]interface{}{"attempt": 2})

	entries := logs.All()
	require.Len(t, entries, 1)
	details := entries[0].ContextMap()["details"].(map[string]interface{})
	assert.Equal(t, "feedback", details["handler"])
	assert.Equal(t, 2, details["attempt"])
	assert.Equal(t, assert.AnError.Error(), details["error"])
}
