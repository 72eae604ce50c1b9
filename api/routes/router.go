package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kwakusharp7/fleet-managment/api/controllers"
	"github.com/Kwakusharp7/fleet-managment/api/middleware"
	"github.com/Kwakusharp7/fleet-managment/internal/inventory"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/internal/packinglist"
	"github.com/Kwakusharp7/fleet-managment/internal/projects"
	"github.com/Kwakusharp7/fleet-managment/internal/spreadsheet"
	"github.com/Kwakusharp7/fleet-managment/internal/truckloads"
	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	pkgredis "github.com/Kwakusharp7/fleet-managment/pkg/redis"
)

// RedisStore is the Redis surface the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

type requestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Infra carries the infrastructure clients the router probes or uses in
// middleware. PubSub and Metrics may be nil.
type Infra struct {
	DB             controllers.Pinger
	Redis          RedisStore
	PubSub         controllers.Pinger
	RequestMetrics requestObserver
	MetricsHandler http.Handler
}

type Services struct {
	Projects    projects.Service
	Loads       loads.Service
	Inventory   inventory.Service
	TruckLoads  truckloads.Service
	PackingList packinglist.Service
	Spreadsheet spreadsheet.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.RequestMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": infra.DB}
	if infra.Redis != nil {
		readiness["redis"] = infra.Redis
	}
	if infra.PubSub != nil {
		readiness["pubsub"] = infra.PubSub
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if infra.MetricsHandler != nil {
		r.Handle("/metrics", infra.MetricsHandler)
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiter          interface {
			FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
		}
	)
	if infra.Redis != nil {
		idempotencyStore = infra.Redis
		limiter = infra.Redis
	}
	writePolicy := middleware.WriteRateLimitPolicy{
		Limit:  cfg.Loads.WriteRateLimit,
		Window: cfg.Loads.WriteRateWindow,
	}

	view := middleware.RequireCapability(enums.CapViewLoads, logg)
	stage := middleware.RequireCapability(enums.CapStageInventory, logg)
	assemble := middleware.RequireCapability(enums.CapAssembleTruckLoads, logg)
	complete := middleware.RequireCapability(enums.CapCompletePackingLists, logg)
	manage := middleware.RequireCapability(enums.CapManageProjects, logg)
	override := middleware.RequireCapability(enums.CapOverrideLoadStatus, logg)
	remove := middleware.RequireCapability(enums.CapDeleteLoads, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Use(middleware.WriteRateLimit(writePolicy, limiter, logg))

		r.Get("/me", controllers.WhoAmI())
		r.With(view).Get("/stats", controllers.LoadStats(svc.Loads, logg))

		r.With(view).Get("/loads", controllers.ListLoads(svc.Loads, logg))
		r.With(view).Get("/loads/{loadId}", controllers.GetLoad(svc.Loads, logg))
		r.With(view).Get("/loads/{loadId}/summary", controllers.LoadSummary(svc.Loads, logg))
		r.With(view).Get("/loads/{loadId}/packing-sheet.xlsx", controllers.ExportPackingSheet(svc.Spreadsheet, logg))
		r.With(override).Patch("/loads/{loadId}/status", controllers.OverrideLoadStatus(svc.Loads, logg))
		r.With(remove).Delete("/loads/{loadId}", controllers.DeleteLoad(svc.Loads, logg))

		r.With(view).Get("/projects", controllers.ListProjects(svc.Projects, svc.Loads, logg))
		r.With(view).Get("/projects/recent", controllers.RecentProjects(svc.Projects, logg))
		r.With(view).Get("/projects/{projectCode}", controllers.GetProject(svc.Projects, svc.Loads, logg))
		r.With(manage).Post("/projects", controllers.CreateProject(svc.Projects, logg))
		r.With(manage).Patch("/projects/{projectCode}/status", controllers.UpdateProjectStatus(svc.Projects, logg))
		r.With(manage).Delete("/projects/{projectCode}", controllers.DeleteProject(svc.Projects, logg))

		r.Route("/projects/{projectCode}/inventory", func(r chi.Router) {
			r.With(view).Get("/", controllers.GetInventory(svc.Inventory, logg))
			r.With(stage).Post("/skids", controllers.AddInventorySkid(svc.Inventory, logg))
			r.With(stage).Post("/skids/batch", controllers.AddInventorySkids(svc.Inventory, logg))
			r.With(stage).Patch("/skids/{skidId}", controllers.UpdateInventorySkid(svc.Inventory, logg))
			r.With(stage).Delete("/skids/{skidId}", controllers.DeleteInventorySkid(svc.Inventory, logg))
			r.With(stage).Delete("/skids", controllers.ClearInventory(svc.Inventory, logg))
			r.With(stage).Post("/import", controllers.ImportInventory(svc.Spreadsheet, logg))
		})

		r.Route("/projects/{projectCode}/truck-loads", func(r chi.Router) {
			r.With(assemble).Post("/", controllers.StartTruckLoad(svc.TruckLoads, logg))
			r.Route("/{loadId}", func(r chi.Router) {
				r.With(view).Get("/staging", controllers.TruckLoadStaging(svc.TruckLoads, logg))
				r.With(assemble).Put("/truck-info", controllers.SaveTruckInfo(svc.TruckLoads, logg))
				r.With(assemble).Post("/skids", controllers.AddTruckSkid(svc.TruckLoads, logg))
				r.With(assemble).Patch("/skids/{skidId}", controllers.UpdateTruckSkid(svc.TruckLoads, logg))
				r.With(assemble).Delete("/skids/{skidId}", controllers.RemoveTruckSkid(svc.TruckLoads, logg))
				r.With(assemble).Delete("/skids", controllers.ClearTruckSkids(svc.TruckLoads, logg))
				r.With(assemble).Post("/pull", controllers.PullFromInventory(svc.TruckLoads, logg))
				r.With(assemble).Post("/additional-projects", controllers.AddAdditionalProject(svc.TruckLoads, logg))
				r.With(view).Get("/packing-list", controllers.GetPackingList(svc.PackingList, logg))
				r.With(complete).Put("/packing-list", controllers.SavePackingList(svc.PackingList, logg))
			})
		})
	})

	return r
}
