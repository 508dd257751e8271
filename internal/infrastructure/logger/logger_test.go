package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Info, GormLevel("info"))
	assert.Equal(t, gormlogger.Warn, GormLevel("warn"))
	assert.Equal(t, gormlogger.Warn, GormLevel("anything else"))
}

func TestQueryLogger_Trace(t *testing.T) {
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("record not found is silent by default", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		ql := NewQueryLogger(zap.New(core), gormlogger.Error)

		ql.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("query errors are logged with the statement", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		ql := NewQueryLogger(zap.New(core), gormlogger.Error)

		ql.Trace(ctx, time.Now(), stmt, errors.New("deadlock detected"))
		entries := logs.All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "query failed", entries[0].Message)
			assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
		}
	})

	t.Run("slow queries are flagged at warn", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		ql := NewQueryLogger(zap.New(core), gormlogger.Warn, WithSlowQueryCutoff(time.Nanosecond))

		ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
		entries := logs.All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, zap.WarnLevel, entries[0].Level)
		}
	})

	t.Run("context identifiers are attached", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		ql := NewQueryLogger(zap.New(core), gormlogger.Error)

		traced := context.WithValue(ctx, RequestIDKey, "req-42")
		traced = context.WithValue(traced, ActorIDKey, "actor-7")
		ql.Trace(traced, time.Now(), stmt, errors.New("boom"))

		entries := logs.All()
		if assert.Len(t, entries, 1) {
			fields := entries[0].ContextMap()
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, "actor-7", fields["actor_id"])
		}
	})
}

func TestNew_LevelsAndSinks(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := New(&Config{Level: "debug", Format: format, Output: "stdout"})
		assert.NoError(t, err)
		assert.True(t, log.Core().Enabled(zap.DebugLevel))
	}

	log, err := New(&Config{Level: "error", Format: "json", Output: "stderr"})
	assert.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.ErrorLevel))
}
