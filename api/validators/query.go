package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

// parseQuery reads key with parse, returning fallback when it is absent.
func parseQuery[T any](r *http.Request, key string, fallback T, kind string, parse func(string) (T, error)) (T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be "+kind).
			WithDetails(map[string]any{"field": key})
	}
	return v, nil
}

// ParseQueryInt returns fallback when key is absent and rejects values
// outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	v, err := parseQuery(r, key, fallback, "an integer", strconv.Atoi)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return v, nil
}

// ParseQueryBool accepts the strconv.ParseBool spellings.
func ParseQueryBool(r *http.Request, key string, fallback bool) (bool, error) {
	return parseQuery(r, key, fallback, "a boolean", strconv.ParseBool)
}
