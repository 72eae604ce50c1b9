package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const (
	abandonedLoadAge   = 7 * 24 * time.Hour
	abandonedBatchSize = 200
)

type AbandonedLoadsJobParams struct {
	Logger    *logger.Logger
	Loads     abandonedLoadPurger
	OlderThan time.Duration
	BatchSize int
}

type abandonedLoadPurger interface {
	PurgeAbandoned(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// NewAbandonedLoadsJob removes placeholder truck loads that were started but
// never given a truck or a skid.
func NewAbandonedLoadsJob(params AbandonedLoadsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Loads == nil {
		return nil, fmt.Errorf("loads service required")
	}
	olderThan := params.OlderThan
	if olderThan <= 0 {
		olderThan = abandonedLoadAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = abandonedBatchSize
	}
	return &abandonedLoadsJob{
		logg:      params.Logger,
		loads:     params.Loads,
		olderThan: olderThan,
		batch:     batch,
	}, nil
}

type abandonedLoadsJob struct {
	logg      *logger.Logger
	loads     abandonedLoadPurger
	olderThan time.Duration
	batch     int
}

func (j *abandonedLoadsJob) Name() string { return "abandoned-truck-loads" }

func (j *abandonedLoadsJob) Run(ctx context.Context) error {
	removed, err := j.loads.PurgeAbandoned(ctx, j.olderThan, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"older_than":   j.olderThan.String(),
		"batch_size":   j.batch,
		"rows_deleted": removed,
	})
	if err != nil {
		return fmt.Errorf("abandoned truck loads: %w", err)
	}
	j.logg.Info(logCtx, "abandoned truck load cleanup complete")
	return nil
}
