package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

func TestQueryLoggerWritesOnlySlowOrFailed(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf, Format: logger.FormatJSON})
	ql := newQueryLogger(logg, 50*time.Millisecond)
	stmt := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), stmt, nil)
	ql.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "slow query")
	assert.Contains(t, buf.String(), "SELECT 1")

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("relation missing"))
	assert.Contains(t, buf.String(), "query failed: relation missing")
}

func TestQueryLoggerWithoutLoggerDiscards(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLogger(nil, 0))
}
