package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/polkaswap/bridge-sidecar/pkg/database"
	"github.com/polkaswap/bridge-sidecar/pkg/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetInMemorySqliteDatabaseConnection returns a private, migrated in-memory database.
func GetInMemorySqliteDatabaseConnection(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	name, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", name.String())

	db, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(path))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, cfg, l); err != nil {
		return nil, err
	}
	return db, nil
}

// GetFileBasedSqliteDatabaseConnection creates a migrated database in a fresh temp directory.
func GetFileBasedSqliteDatabaseConnection(cfg *config.Config, l *zap.Logger) (string, *gorm.DB, error) {
	name, err := uuid.NewRandom()
	if err != nil {
		return "", nil, err
	}
	basePath := filepath.Join(os.TempDir(), name.String())
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return "", nil, err
	}

	filePath := filepath.Join(basePath, "test.db")
	db, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(filePath))
	if err != nil {
		return "", nil, err
	}
	if err := database.Migrate(db, cfg, l); err != nil {
		return "", nil, err
	}
	return filePath, db, nil
}

func Teardown(db *gorm.DB) {
	if rawDb, err := db.DB(); err == nil {
		_ = rawDb.Close()
	}
}
