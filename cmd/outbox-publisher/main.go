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

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/instance"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/metrics"
	"github.com/Kwakusharp7/fleet-managment/pkg/migrate"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/registry"
	"github.com/Kwakusharp7/fleet-managment/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

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
		"topic":       cfg.PubSub.LoadsTopic,
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

// run owns every connection so deferred closes fire before main exits.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer closeQuietly(ctx, logg, "pubsub", pubsubClient.Close)

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		PubSub:     pubsubClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return fmt.Errorf("create outbox publisher: %w", err)
	}

	logg.Info(ctx, "starting outbox publisher")
	return service.Run(ctx)
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
