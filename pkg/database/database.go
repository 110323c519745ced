package database

import (
	"fmt"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/polkaswap/bridge-sidecar/pkg/database/migrations"
	"github.com/polkaswap/bridge-sidecar/pkg/postgres"
	"github.com/polkaswap/bridge-sidecar/pkg/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open connects to the configured database and runs all pending migrations.
func Open(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	var (
		grm *gorm.DB
		err error
	)

	switch cfg.DatabaseConfig.Driver {
	case config.DatabaseDriver_Postgres:
		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		pgConfig.CreateDbIfNotExists = true

		pg, pgErr := postgres.NewPostgres(pgConfig)
		if pgErr != nil {
			return nil, pgErr
		}
		grm, err = postgres.NewGormFromPostgresConnection(pg.Db)
	case config.DatabaseDriver_Sqlite:
		grm, err = sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(cfg.DatabaseConfig.SqlitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.DatabaseConfig.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(grm, cfg, l); err != nil {
		return nil, err
	}
	l.Sugar().Infow("Database ready", zap.String("driver", string(cfg.DatabaseConfig.Driver)))
	return grm, nil
}

func Migrate(grm *gorm.DB, cfg *config.Config, l *zap.Logger) error {
	rawDb, err := grm.DB()
	if err != nil {
		return err
	}
	migrator := migrations.NewMigrator(rawDb, grm, l, cfg)
	if err := migrator.MigrateAll(); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
