package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// maxLoggedSQL bounds the statement text kept in logs unless full SQL logging is enabled
const maxLoggedSQL = 256

// GormLogger routes GORM statement logs through zap, tagged with the request ID.
// Apply runs under row locks, so lock contention is expected under load and
// is reported at warn level instead of error.
type GormLogger struct {
	log          *zap.Logger
	level        gormlogger.LogLevel
	slow         time.Duration
	fullSQL      bool
	isContention func(error) bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold logs statements slower than d at warn level. Zero disables it.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slow = d
	}
}

// WithFullSQL disables truncation of logged statements
func WithFullSQL(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.fullSQL = enabled
	}
}

// WithContentionCheck marks errors for which fn returns true as lock contention
func WithContentionCheck(fn func(error) bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.isContention = fn
	}
}

// NewGormLogger creates a GORM logger writing to zapLogger under the "gorm" name
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		log:          zapLogger.Named("gorm"),
		level:        level,
		slow:         200 * time.Millisecond,
		isContention: func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		Ctx(ctx, l.log).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		Ctx(ctx, l.log).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		Ctx(ctx, l.log).Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement. Plain statements go out at debug level.
// A missing row is not an error here: lookups report it as NOT_FOUND.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	if !l.fullSQL && len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "..."
	}
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	log := Ctx(ctx, l.log)

	switch {
	case err != nil && l.isContention(err):
		if l.level >= gormlogger.Warn {
			log.Warn("SQL lock contention", append(fields, zap.Error(err))...)
		}
	case err != nil:
		if l.level >= gormlogger.Error {
			log.Error("SQL error", append(fields, zap.Error(err))...)
		}
	case l.slow > 0 && elapsed > l.slow:
		if l.level >= gormlogger.Warn {
			log.Warn(fmt.Sprintf("Slow SQL over %v", l.slow), fields...)
		}
	case l.level >= gormlogger.Info:
		log.Debug("SQL", fields...)
	}
}

// MapGormLogLevel maps the application log level onto GORM's
func MapGormLogLevel(level string) gormlogger.LogLevel {
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
