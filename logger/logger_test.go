package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core)), logs
}

func TestLogger_Levels(t *testing.T) {
	log, logs := observedLogger()

	log.Debug("debug msg")
	log.Info("info msg")
	log.Warn("warn msg")
	log.Error("error msg")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "debug msg", entries[0].Message)
}

func TestLogger_Fields(t *testing.T) {
	log, logs := observedLogger()

	log.Info("resolved",
		String("dependency", "db"),
		Int("attempt", 2),
		Bool("cached", true),
		Duration("took", time.Second),
		Any("extra", []int{1, 2}),
		Error(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "db", fields["dependency"])
	assert.Equal(t, int64(2), fields["attempt"])
	assert.Equal(t, true, fields["cached"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLogger_With(t *testing.T) {
	log, logs := observedLogger()

	scoped := log.With(String("container_id", "abc"))
	scoped.Info("created")
	log.Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "abc", entries[0].ContextMap()["container_id"])
	assert.NotContains(t, entries[1].ContextMap(), "container_id")
}

func TestLogger_Named(t *testing.T) {
	log, logs := observedLogger()

	log.Named("crucible").Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "crucible", entries[0].LoggerName)
}

func TestNew_NilFallsBackToNop(t *testing.T) {
	log := New(nil)

	assert.NotPanics(t, func() {
		log.Info("dropped")
		require.NoError(t, log.Sync())
	})
}

func TestNewNop(t *testing.T) {
	log := NewNop()

	assert.NotPanics(t, func() {
		log.Debug("dropped", String("k", "v"))
	})
	assert.NoError(t, log.Sync())
}

func TestPresetConstructors(t *testing.T) {
	dev, err := NewDevelopment()
	require.NoError(t, err)
	assert.NotNil(t, dev)

	prod, err := NewProduction()
	require.NoError(t, err)
	assert.NotNil(t, prod)
}

func TestNewTest(t *testing.T) {
	log := NewTest(t)
	log.Debug("visible only on failure", String("k", "v"))
}
