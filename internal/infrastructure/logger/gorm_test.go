package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()
	stmt := func() (string, int64) { return `SELECT * FROM "stock_records"`, 2 }

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Silent)
		l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("errors log at error level", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Error)
		l.Trace(ctx, time.Now(), stmt, errors.New("deadlock detected"))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
		assert.Equal(t, "gorm", logs.All()[0].LoggerName)
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Error)
		l.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("lock contention logs at warn", func(t *testing.T) {
		busy := errors.New("database is locked")
		l, logs := newObservedGormLogger(gormlogger.Warn,
			WithContentionCheck(func(err error) bool { return errors.Is(err, busy) }))
		l.Trace(ctx, time.Now(), stmt, busy)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
		assert.Equal(t, "SQL lock contention", logs.All()[0].Message)
	})

	t.Run("slow statements log at warn", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})

	t.Run("long statements are truncated unless full SQL is enabled", func(t *testing.T) {
		long := func() (string, int64) { return strings.Repeat("x", 1000), 0 }

		l, logs := newObservedGormLogger(gormlogger.Info)
		l.Trace(ctx, time.Now(), long, nil)
		sql := logs.All()[0].ContextMap()["sql"].(string)
		assert.Len(t, sql, maxLoggedSQL+3)

		full, fullLogs := newObservedGormLogger(gormlogger.Info, WithFullSQL(true))
		full.Trace(ctx, time.Now(), long, nil)
		assert.Len(t, fullLogs.All()[0].ContextMap()["sql"].(string), 1000)
	})

	t.Run("request id from context is attached", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Info)
		reqCtx := context.WithValue(ctx, requestIDKey, "req-7")
		l.Trace(reqCtx, time.Now(), stmt, nil)
		assert.Equal(t, "req-7", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	l, _ := newObservedGormLogger(gormlogger.Warn)
	quiet := l.LogMode(gormlogger.Silent).(*GormLogger)
	assert.Equal(t, gormlogger.Silent, quiet.level)
	assert.Equal(t, gormlogger.Warn, l.level)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}
