package cmd

import (
	"context"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportBalancesCmd = &cobra.Command{
	Use:   "export-balances",
	Short: "Write every ledger balance to a csv file",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg, l := loadConfig()
		if cfg.ExportConfig.OutputFile == "" {
			l.Sugar().Fatal("--output is required")
		}

		store := openLedgerStore(cfg, l)

		file, err := os.Create(cfg.ExportConfig.OutputFile)
		if err != nil {
			l.Sugar().Fatalw("Failed to create output file", zap.Error(err))
		}
		defer file.Close()

		count, err := exportBalances(context.Background(), store, file)
		if err != nil {
			l.Sugar().Fatalw("Failed to export balances", zap.Error(err))
		}
		l.Sugar().Infow("Exported balances",
			zap.Int("count", count),
			zap.String("output", cfg.ExportConfig.OutputFile),
		)
	},
}

func exportBalances(ctx context.Context, store ledgerStore.LedgerStore, w io.Writer) (int, error) {
	balances := make([]*ledgerStore.Balance, 0)
	for _, kind := range ledgerStore.BalanceKinds {
		kindBalances, err := store.ListBalances(ctx, kind)
		if err != nil {
			return 0, err
		}
		balances = append(balances, kindBalances...)
	}
	if err := gocsv.Marshal(&balances, w); err != nil {
		return 0, err
	}
	return len(balances), nil
}
