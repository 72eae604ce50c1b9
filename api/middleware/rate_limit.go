package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// WriteRateLimitPolicy caps mutating requests per actor in a fixed window.
type WriteRateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

func (p WriteRateLimitPolicy) enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// WriteRateLimit throttles POST, PUT, PATCH and DELETE per authenticated user.
// Reads and anonymous requests pass through untouched.
func WriteRateLimit(policy WriteRateLimitPolicy, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if !isWrite(r.Method) || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, "writes:"+userID, int64(policy.Limit), policy.Window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"attempts":       count,
						"limit":          policy.Limit,
						"window_seconds": int(policy.Window.Seconds()),
					})
					logg.Warn(logCtx, "writes.rate_limit.blocked")
				}
				w.Header().Set("Retry-After", retryAfter(policy.Window))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many write requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func retryAfter(window time.Duration) string {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
