package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// queryLogger routes GORM's trace hook into the service logger. Only slow
// statements and real failures are written; record-not-found is expected.
type queryLogger struct {
	logg *logger.Logger
	slow time.Duration
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	if slow <= 0 {
		slow = defaultSlowQuery
	}
	return &queryLogger{logg: logg, slow: slow}
}

func (q *queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }

func (q *queryLogger) Info(ctx context.Context, msg string, _ ...any) { q.logg.Debug(ctx, msg) }

func (q *queryLogger) Warn(ctx context.Context, msg string, _ ...any) { q.logg.Warn(ctx, msg) }

func (q *queryLogger) Error(ctx context.Context, msg string, _ ...any) { q.logg.Error(ctx, msg, nil) }

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, context.Canceled)
	if !failed && elapsed < q.slow {
		return
	}
	sql, rows := fc()
	ctx = q.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
	if failed {
		q.logg.Warn(ctx, "query failed: "+err.Error())
		return
	}
	q.logg.Warn(ctx, "slow query")
}
