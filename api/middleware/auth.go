package middleware

import (
	"net/http"
	"strings"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	pkgAuth "github.com/Kwakusharp7/fleet-managment/pkg/auth"
	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

const bearerScheme = "bearer"

// Auth validates a bearer token issued by the identity provider and seeds the
// request context with the actor and its capabilities.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				unauthorized(w, r, logg, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID := claims.UserID.String()
			ctx := WithActor(r.Context(), userID, claims.Role)
			if logg != nil {
				ctx = logg.WithActor(ctx, userID, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="fleet"`)
	responses.WriteError(r.Context(), logg, w, err)
}
