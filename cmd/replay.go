package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/polkaswap/bridge-sidecar/pkg/bridge/codec"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerState"
	"github.com/polkaswap/bridge-sidecar/pkg/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Sync a file of encoded blocks into the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg, l := loadConfig()
		if cfg.ReplayConfig.InputFile == "" {
			l.Sugar().Fatal("--input is required")
		}

		file, err := os.Open(cfg.ReplayConfig.InputFile)
		if err != nil {
			l.Sugar().Fatalw("Failed to open input file", zap.Error(err))
		}
		defer file.Close()

		store := openLedgerStore(cfg, l)
		p := pipeline.NewPipeline(nil, nil, ledgerState.NewLedgerStateManager(store, l), nil, nil, nil, l)

		synced, skipped, err := replayBlocks(context.Background(), p, codec.NewStreamReader(file), l)
		if err != nil {
			l.Sugar().Fatalw("Replay failed", zap.Int("synced", synced), zap.Error(err))
		}
		l.Sugar().Infow("Replay finished", zap.Int("synced", synced), zap.Int("skipped", skipped))
	},
}

// replayBlocks syncs every block of the stream in order. Blocks the ledger already holds are skipped.
func replayBlocks(ctx context.Context, p *pipeline.Pipeline, reader *codec.StreamReader, l *zap.Logger) (int, int, error) {
	synced, skipped := 0, 0
	for {
		block, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return synced, skipped, nil
		}
		if err != nil {
			return synced, skipped, err
		}

		if _, err := p.SyncBlockEvents(ctx, block); err != nil {
			if errors.Is(err, types.ErrAlreadySynced) {
				l.Sugar().Warnw("Skipping block", zap.Uint32("blockNumber", block.BlockNumber), zap.Error(err))
				skipped++
				continue
			}
			return synced, skipped, err
		}
		synced++
	}
}
