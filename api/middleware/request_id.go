package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const (
	requestIDHeader   = "X-Request-Id"
	maxRequestIDBytes = 128
)

// RequestID keeps a caller supplied X-Request-Id when it is short printable
// ASCII and mints a UUID otherwise. The id is echoed on the response.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if !usableRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func usableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDBytes {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
