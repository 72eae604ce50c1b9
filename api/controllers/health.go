package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fleet-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency. A nil pinger is reported as
// skipped so optional integrations do not fail readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fleet-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := false
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				failed = true
				checks[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "health.ready.ping_failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
