package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, WithSlowThreshold(50*time.Millisecond))
	ctx := WithRequestID(context.Background(), "req-9")

	gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn("SELECT pg_sleep(1)", 1), nil)
	gl.Trace(ctx, time.Now(), sqlFn("SELECT * FROM orders", 0), gormlogger.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), sqlFn("UPDATE variants", 0), errors.New("deadlock detected"))

	entries := recorded.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "SQL Query", entries[0].Message)
	assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Contains(t, entries[1].Message, "SLOW SQL")
	assert.Equal(t, "SQL Error", entries[2].Message)
	assert.Equal(t, "gorm", entries[2].LoggerName)
}

func TestGormLogger_Levels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithIgnoreRecordNotFoundError(false))
	ctx := context.Background()

	gl.Info(ctx, "hidden %d", 1)
	gl.Warn(ctx, "shown %d", 2)
	gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
	gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
	require.Equal(t, 2, recorded.Len())
	assert.Equal(t, "shown 2", recorded.All()[0].Message)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Error(ctx, "nothing")
	assert.Equal(t, 2, recorded.Len())
	assert.Equal(t, gormlogger.Warn, gl.level)
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	ctx := context.Background()
	sql := "SELECT * FROM customers WHERE email = $1"

	redacting := NewGormLogger(zap.NewNop(), gormlogger.Info)
	got, params := redacting.ParamsFilter(ctx, sql, "ada@example.com")
	assert.Equal(t, sql, got)
	assert.Empty(t, params)

	verbose := NewGormLogger(zap.NewNop(), gormlogger.Info, WithQueryParams(true))
	_, params = verbose.ParamsFilter(ctx, sql, "ada@example.com")
	assert.Equal(t, []any{"ada@example.com"}, params)
}

func TestGormLogger_SkipsRenderingBelowLevel(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)

	rendered := false
	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		rendered = true
		return "SELECT 1", 1
	}, nil)
	assert.False(t, rendered)
	assert.Zero(t, recorded.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
