package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
// Postgres errors are matched by SQLSTATE and constraint name; other drivers
// (sqlite in tests) fall back to their message text. An empty constraint
// matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) && constraint == "" {
		return true
	}
	msg := err.Error()
	if constraint != "" {
		return strings.Contains(msg, constraint)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
