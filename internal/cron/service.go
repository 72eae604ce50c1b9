package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ServiceParams configure the maintenance scheduler.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run. Defaults to the cycle interval.
	JobTimeout time.Duration
}

// Service runs the registered maintenance jobs on a fixed cadence. Only the
// replica holding the lock runs a cycle.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobTimeout := params.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = interval
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: jobTimeout,
	}, nil
}

// Run starts the cron loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		skipCtx := ctx
		if reporter, ok := s.lock.(holderReporter); ok {
			if holder, err := reporter.Holder(ctx); err == nil && holder != "" {
				skipCtx = s.logg.WithField(ctx, "lock_holder", holder)
			}
		}
		s.logg.Info(skipCtx, "another replica holds the maintenance lock; skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	var failures error
	jobs := s.registry.Jobs()
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if err := s.runJob(ctx, job); err != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	cycleCtx := s.logg.WithFields(ctx, map[string]any{
		"jobs":   len(jobs),
		"failed": len(multierr.Errors(failures)),
	})
	s.logg.Info(cycleCtx, "scheduled run complete")
	return failures
}

// runJob runs one job under its own deadline. A panicking job is reported as
// a failure so the remaining jobs still run.
func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	jobCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		duration := time.Since(start)
		s.observe(job.Name(), duration, err)
		doneCtx := s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
		if err != nil {
			s.logg.Error(doneCtx, "job failed", err)
			return
		}
		s.logg.Info(doneCtx, "job completed")
	}()

	return job.Run(jobCtx)
}

func (s *Service) observe(job string, duration time.Duration, err error) {
	s.metrics.ObserveRun(job, duration, err)
}
