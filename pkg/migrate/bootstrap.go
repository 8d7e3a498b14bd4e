package migrate

import (
	"context"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

// MaybeRunDev brings the schema up on service start, but only in dev with
// VB_AUTO_MIGRATE set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	runner := Runner{Client: client, SQLite: cfg.FeatureFlags.UseSQLite, Logger: logg}
	logg.Info(logg.WithField(ctx, "sqlite", runner.SQLite), "migrate.autorun")
	return runner.Run(ctx, CmdUp, "")
}
