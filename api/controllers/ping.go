package controllers

import (
	"net/http"

	"github.com/Kwakusharp7/fleet-managment/api/middleware"
	"github.com/Kwakusharp7/fleet-managment/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// WhoAmI echoes the authenticated actor and its capabilities.
func WhoAmI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"user_id":      middleware.UserIDFromContext(r.Context()),
			"role":         middleware.RoleFromContext(r.Context()),
			"capabilities": middleware.CapabilitiesFromContext(r.Context()).List(),
		})
	}
}
