package middleware

import (
	"net/http"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

// RequireCapability rejects requests whose actor lacks capability.
func RequireCapability(capability enums.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !CapabilitiesFromContext(r.Context()).Has(capability) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "capability required").
					WithDetails(map[string]any{"capability": string(capability)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
