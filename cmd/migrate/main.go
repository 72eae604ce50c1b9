package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands work on the migrations directory only.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(o options) error {
		files, err := migrate.ListFiles(o.dir)
		if err != nil {
			return err
		}
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Printf("%d migrations valid\n", len(files))
		return nil
	},
}

// online commands run against the configured database.
var online = map[string]func(context.Context, *sql.DB, options) error{
	"up": func(ctx context.Context, conn *sql.DB, o options) error {
		return migrate.Run(ctx, conn, o.dir, migrate.CommandUp)
	},
	"down": func(ctx context.Context, conn *sql.DB, o options) error {
		return migrate.Run(ctx, conn, o.dir, migrate.CommandDown)
	},
	"status": func(ctx context.Context, conn *sql.DB, o options) error {
		return migrate.Run(ctx, conn, o.dir, migrate.CommandStatus)
	},
	"version": func(ctx context.Context, conn *sql.DB, o options) error {
		if o.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, conn, o.dir, o.version)
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if run, ok := offline[*cmd]; ok {
		if err := run(opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", *cmd, err)
			os.Exit(1)
		}
		return
	}
	run, ok := online[*cmd]
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	if err := run(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migration command failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migration command finished")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
