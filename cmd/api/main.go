package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kwakusharp7/fleet-managment/api/routes"
	"github.com/Kwakusharp7/fleet-managment/internal/inventory"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/internal/packinglist"
	"github.com/Kwakusharp7/fleet-managment/internal/projects"
	"github.com/Kwakusharp7/fleet-managment/internal/spreadsheet"
	"github.com/Kwakusharp7/fleet-managment/internal/truckloads"
	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/instance"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/metrics"
	"github.com/Kwakusharp7/fleet-managment/pkg/migrate"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
	"github.com/Kwakusharp7/fleet-managment/pkg/pubsub"
	"github.com/Kwakusharp7/fleet-managment/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	writeMetrics := metrics.NewLoadWriteMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, redisClient, writeMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	infra := routes.Infra{
		DB:             dbClient,
		Redis:          redisClient,
		RequestMetrics: httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}
	// Readiness only tracks pubsub when this process is configured for it.
	if cfg.GCP.ProjectID != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		infra.PubSub = psClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, infra, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, observer loads.WriteObserver) (routes.Services, error) {
	projectRepo := projects.NewCachedRepository(projects.NewRepository(dbClient.DB()), redisClient, cfg.Loads.ProjectCacheTTL, logg)
	loadRepo := loads.NewRepository(dbClient.DB())

	writer, err := loads.NewWriter(loads.WriterParams{
		DB:          dbClient,
		Repo:        loadRepo,
		Outbox:      outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Observer:    observer,
		Logger:      logg,
		MaxAttempts: cfg.Loads.MaxWriteAttempts,
	})
	if err != nil {
		return routes.Services{}, err
	}

	loadsSvc, err := loads.NewService(loadRepo, writer, projectRepo)
	if err != nil {
		return routes.Services{}, err
	}
	projectsSvc, err := projects.NewService(projectRepo, loadsSvc)
	if err != nil {
		return routes.Services{}, err
	}
	inventorySvc, err := inventory.NewService(loadRepo, writer, projectsSvc)
	if err != nil {
		return routes.Services{}, err
	}
	truckSvc, err := truckloads.NewService(loadRepo, writer, projectsSvc)
	if err != nil {
		return routes.Services{}, err
	}
	packingSvc, err := packinglist.NewService(loadRepo, writer)
	if err != nil {
		return routes.Services{}, err
	}
	sheetSvc, err := spreadsheet.NewService(loadsSvc, inventorySvc)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Projects:    projectsSvc,
		Loads:       loadsSvc,
		Inventory:   inventorySvc,
		TruckLoads:  truckSvc,
		PackingList: packingSvc,
		Spreadsheet: sheetSvc,
	}, nil
}
