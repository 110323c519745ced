package tests

import (
	"os"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/polkaswap/bridge-sidecar/internal/logger"
	"go.uber.org/zap"
)

// GetConfig returns a config suitable for tests, backed by sqlite.
func GetConfig() *config.Config {
	return &config.Config{
		Debug: os.Getenv(config.ENV_PREFIX+"_DEBUG") == "true",
		BridgeConfig: config.BridgeConfig{
			VaultAddress: config.DefaultVaultAddress,
			TokenAddress: config.DefaultTokenAddress,
		},
		DatabaseConfig: config.DatabaseConfig{
			Driver:     config.DatabaseDriver_Sqlite,
			SqlitePath: ":memory:",
		},
	}
}

func GetLogger(cfg *config.Config) *zap.Logger {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	return l
}
