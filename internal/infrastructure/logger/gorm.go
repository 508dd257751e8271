package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// QueryLogger routes GORM's query tracing through zap so SQL shows up in the
// same stream as the rest of the service, tagged with request and actor IDs
// when the context carries them.
type QueryLogger struct {
	base              *zap.Logger
	level             gormlogger.LogLevel
	slowCutoff        time.Duration
	logRecordNotFound bool
}

// QueryLogOption tweaks a QueryLogger.
type QueryLogOption func(*QueryLogger)

// WithSlowQueryCutoff sets the duration above which a query is logged at
// warn level. Zero disables slow-query detection.
func WithSlowQueryCutoff(d time.Duration) QueryLogOption {
	return func(l *QueryLogger) { l.slowCutoff = d }
}

// WithRecordNotFoundLogging controls whether gorm.ErrRecordNotFound is
// reported as an error. Lookups that miss are routine, so it is off by
// default.
func WithRecordNotFoundLogging(enabled bool) QueryLogOption {
	return func(l *QueryLogger) { l.logRecordNotFound = enabled }
}

// NewQueryLogger wraps base in a GORM logger at the given level. Queries
// slower than 200ms are flagged unless overridden.
func NewQueryLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...QueryLogOption) *QueryLogger {
	l := &QueryLogger{
		base:       base.Named("db"),
		level:      level,
		slowCutoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode implements gormlogger.Interface.
func (l *QueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (l *QueryLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.base.Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface.
func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.base.Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface.
func (l *QueryLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.base.Sugar().Errorf(msg, data...)
	}
}

// Trace logs each executed statement with its latency and row count.
func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actorID := GetActorID(ctx); actorID != "" {
		fields = append(fields, zap.String("actor_id", actorID))
	}

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.logRecordNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.base.Error("query failed", append(fields, zap.Error(err))...)

	case l.slowCutoff != 0 && elapsed > l.slowCutoff && l.level >= gormlogger.Warn:
		l.base.Warn(fmt.Sprintf("slow query > %v", l.slowCutoff), fields...)

	case l.level >= gormlogger.Info:
		l.base.Debug("query", fields...)
	}
}

// GormLevel translates the service log level into GORM's coarser scale.
func GormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
