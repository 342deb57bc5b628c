package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/leakprobe/internal/model"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"console", "json", "unknown", ""} {
		l, err := New(model.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		require.NotNil(t, l)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(model.LogConfig{Level: "loud"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestFields_AreForwarded(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).Named("validate").With(String("run_id", "r1"))

	l.Warn("judge batch failed",
		Int("batch", 2),
		Float64("score", 0.5),
		Bool("cached", false),
		Duration("elapsed", time.Second),
		Err(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "validate", e.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, e.Level)

	ctx := e.ContextMap()
	assert.Equal(t, "r1", ctx["run_id"])
	assert.Equal(t, int64(2), ctx["batch"])
	assert.Equal(t, 0.5, ctx["score"])
	assert.Equal(t, false, ctx["cached"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded")
	_ = l.Sync()
}
