package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `%s
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

%s
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`

// SanitizeName lowercases name and collapses anything outside [a-z0-9] into
// single underscores.
func SanitizeName(name string) string {
	safe := unsafeNameRe.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(safe, "_")
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<name>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createAt(dir, name, time.Now().UTC())
}

func createAt(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := SanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.Format("20060102150405"), safe))
	body := fmt.Sprintf(migrationTemplate, markerUp, safe, markerDown, safe)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("migration already exists: %s", path)
		}
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}
