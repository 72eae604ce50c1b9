package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

type requestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Logging logs request start and completion and reports each request to
// observer under its matched route pattern. observer may be nil.
func Logging(logg *logger.Logger, observer requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			if logg != nil {
				logg.Debug(ctx, "request.start")
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)

			if observer != nil {
				observer.ObserveRequest(r.Method, matchedRoute(r), rec.status, elapsed)
			}

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"status":      rec.status,
					"duration_ms": elapsed.Milliseconds(),
				})
				logg.Info(ctx, "request.complete")
			}
		})
	}
}

// matchedRoute reads the pattern chi resolved for the request. Unmatched
// requests collapse into one label.
func matchedRoute(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
