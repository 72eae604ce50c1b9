package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

// MaxProjectCodeLength mirrors the projects.code column width.
const MaxProjectCodeLength = 20

// ParseUUIDParam reads a chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter required").WithDetails(map[string]any{"field": key})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// ProjectCodeParam reads the trimmed project code path parameter.
func ProjectCodeParam(r *http.Request, key string) (string, error) {
	code := SanitizeString(chi.URLParam(r, key), 0)
	if code == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "project code required").WithDetails(map[string]any{"field": key})
	}
	if len(code) > MaxProjectCodeLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "project code too long").WithDetails(map[string]any{"field": key, "max": MaxProjectCodeLength})
	}
	return code, nil
}
