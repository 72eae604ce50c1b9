package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsMaxAgeSeconds = 300

// CORS applies the configured origin allow-list. Browsers need the request id
// and download headers exposed to read them.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, idempotencyReplayHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeSeconds,
	})
}
