// Package pagination implements keyset cursors over (timestamp, id) ordered
// listings, newest first.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var errMalformed = errors.New("malformed cursor")

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the last row of the previous page.
type Cursor struct {
	At time.Time
	ID uuid.UUID
}

// NormalizeLimit applies DefaultLimit and clamps to MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// EncodeCursor renders the cursor as unpadded URL-safe base64 of
// "<unix nanos>.<uuid>", so it can sit in a query string unescaped.
func EncodeCursor(cursor Cursor) string {
	payload := strconv.FormatInt(cursor.At.UnixNano(), 10) + "." + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor. A blank value means the first page and
// returns nil without error.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, errMalformed
	}
	nanos, rawID, ok := strings.Cut(string(decoded), ".")
	if !ok {
		return nil, errMalformed
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, errMalformed
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errMalformed
	}
	return &Cursor{At: time.Unix(0, n).UTC(), ID: id}, nil
}

// Page trims rows fetched with limit+1 to limit and returns the cursor for the
// next page, or "" on the last page.
func Page[T any](rows []T, limit int, key func(T) Cursor) ([]T, string) {
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, EncodeCursor(key(rows[limit-1]))
}
