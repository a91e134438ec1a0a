package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/kimipos-backend/pkg/config"
	"github.com/angelmondragon/kimipos-backend/pkg/db"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// MaybeAutoRun applies pending migrations on boot when the auto-migrate flag is
// enabled. Production Postgres deployments must still use cmd/migrate.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client, dir string) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if !cfg.App.IsDev() && !cfg.FeatureFlags.UseSQLite {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.FeatureFlags.UseSQLite)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": dir, "dialect": dialect})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, dialect, dir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
