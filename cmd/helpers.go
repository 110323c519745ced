package cmd

import (
	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/polkaswap/bridge-sidecar/internal/logger"
	"github.com/polkaswap/bridge-sidecar/pkg/database"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore/gormLedgerStore"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, *zap.Logger) {
	cfg := config.NewConfig()
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

	if err := cfg.Validate(); err != nil {
		l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
	}
	return cfg, l
}

func openLedgerStore(cfg *config.Config, l *zap.Logger) *gormLedgerStore.GormLedgerStore {
	grm, err := database.Open(cfg, l)
	if err != nil {
		l.Sugar().Fatalw("Failed to open database", zap.Error(err))
	}
	return gormLedgerStore.NewGormLedgerStore(grm, l)
}
