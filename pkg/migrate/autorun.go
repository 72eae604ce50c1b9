package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

// MaybeRunDev brings a dev database up to date on boot. It does nothing
// outside dev or when the auto-migrate flag is off.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	conn, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	ctx = logg.WithField(ctx, "migrationsDir", DefaultDir)

	if err := Run(ctx, conn, DefaultDir, CommandUp); err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "schema migrated but version lookup failed")
		return nil
	}
	logg.Info(logg.WithField(ctx, "schemaVersion", version), "dev schema up to date")
	return nil
}
