package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const (
	outboxRetentionDays    = 30
	outboxTerminalAttempts = 10
	outboxDeleteBatch      = 500
)

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// Retention is counted in days.
	Retention int
	// TerminalAttempts matches the publisher's ceiling so parked rows age out too.
	TerminalAttempts int
	BatchSize        int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time, terminalAttempts, limit int) (int64, error)
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("outbox retention: logger required")
	case params.DB == nil:
		return nil, errors.New("outbox retention: db required")
	case params.Repository == nil:
		return nil, errors.New("outbox retention: repository required")
	}
	return &outboxRetentionJob{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repository,
		keep:     time.Duration(positiveOr(params.Retention, outboxRetentionDays)) * 24 * time.Hour,
		terminal: positiveOr(params.TerminalAttempts, outboxTerminalAttempts),
		batch:    positiveOr(params.BatchSize, outboxDeleteBatch),
		now:      time.Now,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

type outboxRetentionJob struct {
	logg     *logger.Logger
	db       txRunner
	repo     outboxRetentionRepo
	keep     time.Duration
	terminal int
	batch    int
	now      func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes in short batches so the publisher's row locks are never held
// behind one long delete.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.keep)
	var total int64
	for batches := 0; ; batches++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
			n, err = j.repo.DeleteExpired(ctx, tx, cutoff, j.terminal, j.batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("outbox retention after %d rows: %w", total, err)
		}
		total += n
		if n < int64(j.batch) {
			j.logg.Info(j.logg.WithFields(ctx, map[string]any{
				"cutoff":       cutoff,
				"rows_deleted": total,
				"batches":      batches + 1,
			}), "outbox retention cleanup complete")
			return nil
		}
	}
}
