package sidecar

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/polkaswap/bridge-sidecar/internal/metrics/metricsTypes"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"go.uber.org/zap"
)

// GetStartBlock is the block following the last synced one, or the genesis block on an empty ledger.
func (s *Sidecar) GetStartBlock(ctx context.Context) (uint64, error) {
	last, err := s.StateManager.LastSyncedBlock(ctx)
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to get last synced block", zap.Error(err))
		return 0, err
	}

	if s.Bookmarks != nil {
		bookmark, found, err := s.Bookmarks.Get()
		if err != nil {
			s.Logger.Sugar().Warnw("Failed to read bookmark", zap.Error(err))
		} else if found && bookmark > last {
			s.Logger.Sugar().Infow("Bookmark is ahead of the ledger, refetching",
				zap.Uint32("bookmark", bookmark),
				zap.Uint32("lastSyncedBlock", last),
			)
		}
	}

	if last == 0 {
		s.Logger.Sugar().Infow("No blocks synced, starting from genesis block", zap.Uint32("genesisBlock", s.Config.GenesisBlockNumber))
		return uint64(s.Config.GenesisBlockNumber), nil
	}
	return uint64(last) + 1, nil
}

// GetSafeTip is the newest block with enough confirmations.
func (s *Sidecar) GetSafeTip(ctx context.Context) (uint64, error) {
	var tip uint64
	err := s.retry(ctx, "get tip", func() error {
		var err error
		tip, err = s.EthereumClient.GetBlockNumberUint64(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	_ = s.metricsSink.Gauge(metricsTypes.Metric_Gauge_ChainTip, float64(tip), nil)
	if tip < s.Config.Confirmations {
		return 0, nil
	}
	return tip - s.Config.Confirmations, nil
}

func (s *Sidecar) retry(ctx context.Context, what string, op func() error) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(s.Config.RetryInitialInterval),
		backoff.WithMaxElapsedTime(s.Config.MaxRetryElapsed),
	), ctx)
	return backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		s.Logger.Sugar().Warnw("Retrying",
			zap.String("operation", what),
			zap.Duration("backoff", d),
			zap.Error(err),
		)
	})
}

func (s *Sidecar) isStopping(ctx context.Context) bool {
	return s.shouldShutdown.Load() || ctx.Err() != nil
}

// IndexFromCurrentToTip syncs up to the safe tip, then keeps polling for new blocks.
// It returns nil on shutdown and an error once retries are exhausted.
func (s *Sidecar) IndexFromCurrentToTip(ctx context.Context) error {
	next, err := s.GetStartBlock(ctx)
	if err != nil {
		return err
	}

	for {
		if s.isStopping(ctx) {
			s.Logger.Sugar().Infow("Shutting down block processor", zap.Uint64("nextBlock", next))
			return nil
		}

		safeTip, err := s.GetSafeTip(ctx)
		if err != nil {
			if s.isStopping(ctx) {
				continue
			}
			s.Logger.Sugar().Errorw("Failed to get current tip", zap.Error(err))
			return err
		}

		if next > safeTip {
			select {
			case <-ctx.Done():
			case <-time.After(s.Config.PollInterval):
			}
			continue
		}

		end := min(safeTip, next+s.Config.CatchUpBatchSize-1)
		s.Logger.Sugar().Infow("Syncing blocks",
			zap.Uint64("startBlock", next),
			zap.Uint64("endBlock", end),
			zap.Uint64("safeTip", safeTip),
			zap.Uint64("remaining", safeTip-next+1),
		)

		err = s.retry(ctx, "sync blocks", func() error {
			if next > end {
				return nil
			}
			results, err := s.Pipeline.RunForBlockRange(ctx, next, end)
			next += uint64(len(results))
			if err == nil {
				return nil
			}
			if errors.Is(err, types.ErrAlreadySynced) {
				last, lerr := s.StateManager.LastSyncedBlock(ctx)
				if lerr != nil {
					return lerr
				}
				s.Logger.Sugar().Warnw("Block already synced, realigning with the ledger",
					zap.Uint64("nextBlock", next),
					zap.Uint32("lastSyncedBlock", last),
				)
				next = uint64(last) + 1
				return nil
			}
			return err
		})
		if err != nil {
			if s.isStopping(ctx) {
				continue
			}
			s.Logger.Sugar().Errorw("Failed to sync blocks",
				zap.Uint64("nextBlock", next),
				zap.Error(err),
			)
			return err
		}
	}
}
