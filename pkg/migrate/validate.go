package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

const (
	markerUp   = "-- +goose Up"
	markerDown = "-- +goose Down"
)

// File is one goose SQL migration on disk.
type File struct {
	Version string
	Name    string
	Path    string
}

// ListFiles returns the SQL migrations in dir ordered by version. Non-SQL
// entries are ignored; badly named or duplicated versions are errors.
func ListFiles(dir string) ([]File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	byVersion := map[string]File{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		if prev, ok := byVersion[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], filepath.Base(prev.Path), e.Name())
		}
		byVersion[m[1]] = File{Version: m[1], Name: m[2], Path: filepath.Join(dir, e.Name())}
	}

	files := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir checks every migration for a well-formed name and an Up section
// that precedes a Down section.
func ValidateDir(dir string) error {
	files, err := ListFiles(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", f.Path, err)
		}
		if err := checkSections(string(b)); err != nil {
			return fmt.Errorf("migration %q: %w", filepath.Base(f.Path), err)
		}
	}
	return nil
}

func checkSections(txt string) error {
	up := strings.Index(txt, markerUp)
	if up < 0 {
		return fmt.Errorf("missing %q", markerUp)
	}
	down := strings.Index(txt, markerDown)
	if down < 0 {
		return fmt.Errorf("missing %q", markerDown)
	}
	if down < up {
		return fmt.Errorf("%q must come before %q", markerUp, markerDown)
	}
	return nil
}
