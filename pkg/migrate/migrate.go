package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Command is a goose verb that needs a live connection.
type Command string

const (
	CommandUp     Command = "up"
	CommandDown   Command = "down"
	CommandStatus Command = "status"
)

var errNoConn = errors.New("migrate: db connection is required")

// Run executes command against conn. Migration files are checked before
// anything touches the schema.
func Run(ctx context.Context, conn *sql.DB, dir string, command Command) error {
	if err := prepare(conn, dir); err != nil {
		return err
	}
	switch command {
	case CommandUp, CommandDown, CommandStatus:
	default:
		return fmt.Errorf("migrate: unsupported command %q", command)
	}
	if err := goose.RunContext(ctx, string(command), conn, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at version.
// Version 0 rolls everything back; any other target must name a file in dir.
func MigrateToVersion(ctx context.Context, conn *sql.DB, dir string, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || target < 0 {
		return fmt.Errorf("migrate: invalid version %q (expected YYYYMMDDHHMMSS)", version)
	}
	if err := prepare(conn, dir); err != nil {
		return err
	}
	if target != 0 {
		if err := requireVersion(dir, target); err != nil {
			return err
		}
	}

	current, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current == target {
		return nil
	}
	if current < target {
		err = goose.UpToContext(ctx, conn, dir, target)
	} else {
		err = goose.DownToContext(ctx, conn, dir, target)
	}
	if err != nil {
		return fmt.Errorf("goose %d -> %d: %w", current, target, err)
	}
	return nil
}

func prepare(conn *sql.DB, dir string) error {
	if conn == nil {
		return errNoConn
	}
	if err := ValidateDir(dir); err != nil {
		return err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

func requireVersion(dir string, version int64) error {
	files, err := ListFiles(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.Version == strconv.FormatInt(version, 10) {
			return nil
		}
	}
	return fmt.Errorf("migrate: no migration with version %d in %s", version, dir)
}
