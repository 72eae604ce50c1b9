package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kwakusharp7/fleet-managment/internal/cron"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/internal/projects"
	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/instance"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/metrics"
	"github.com/Kwakusharp7/fleet-managment/pkg/migrate"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
	"github.com/Kwakusharp7/fleet-managment/pkg/redis"
)

const serviceKind = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}
	registry, err := buildRegistry(cfg, logg, dbClient, redisClient)
	if err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

// lockName scopes the lock per environment so staging and prod sharing a
// Redis never block each other.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return serviceKind + ":" + env
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Registry, error) {
	outboxRepo := outbox.NewRepository(dbClient.DB())
	loadRepo := loads.NewRepository(dbClient.DB())
	projectRepo := projects.NewCachedRepository(projects.NewRepository(dbClient.DB()), redisClient, cfg.Loads.ProjectCacheTTL, logg)

	writer, err := loads.NewWriter(loads.WriterParams{
		DB:          dbClient,
		Repo:        loadRepo,
		Outbox:      outbox.NewService(outboxRepo, logg),
		Logger:      logg,
		MaxAttempts: cfg.Loads.MaxWriteAttempts,
	})
	if err != nil {
		return nil, err
	}
	loadsSvc, err := loads.NewService(loadRepo, writer, projectRepo)
	if err != nil {
		return nil, err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:           logg,
		DB:               dbClient,
		Repository:       outboxRepo,
		Retention:        cfg.Outbox.RetentionDays,
		TerminalAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	abandoned, err := cron.NewAbandonedLoadsJob(cron.AbandonedLoadsJobParams{
		Logger:    logg,
		Loads:     loadsSvc,
		OlderThan: cfg.Loads.AbandonedLoadAge,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(retention, abandoned), nil
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
