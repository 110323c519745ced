package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/polkaswap/bridge-sidecar/internal/metrics"
	"github.com/polkaswap/bridge-sidecar/internal/metrics/metricsTypes"
	"github.com/polkaswap/bridge-sidecar/pkg/bookmarkStore"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/eventBus/eventBusTypes"
	"github.com/polkaswap/bridge-sidecar/pkg/fetcher"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerState"
	"github.com/polkaswap/bridge-sidecar/pkg/logParser"
	"go.uber.org/zap"
)

type Pipeline struct {
	Fetcher      *fetcher.Fetcher
	Parser       *logParser.LogParser
	StateManager *ledgerState.LedgerStateManager
	Logger       *zap.Logger

	// optional
	bookmarks   *bookmarkStore.BookmarkStore
	eventBus    eventBusTypes.IEventBus
	metricsSink *metrics.MetricsSink
}

func NewPipeline(
	f *fetcher.Fetcher,
	p *logParser.LogParser,
	sm *ledgerState.LedgerStateManager,
	bs *bookmarkStore.BookmarkStore,
	eb eventBusTypes.IEventBus,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *Pipeline {
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	return &Pipeline{
		Fetcher:      f,
		Parser:       p,
		StateManager: sm,
		Logger:       l,
		bookmarks:    bs,
		eventBus:     eb,
		metricsSink:  ms,
	}
}

func toLedgerBlockNumber(blockNumber uint64) (uint32, error) {
	if blockNumber > math.MaxUint32 {
		return 0, fmt.Errorf("block number %d does not fit the ledger", blockNumber)
	}
	return uint32(blockNumber), nil
}

// RunForBlock fetches, parses and syncs a single external block.
func (p *Pipeline) RunForBlock(ctx context.Context, blockNumber uint64) (*ledgerState.SyncResult, error) {
	p.Logger.Sugar().Debugw("Running pipeline for block", zap.Uint64("blockNumber", blockNumber))

	n, err := toLedgerBlockNumber(blockNumber)
	if err != nil {
		return nil, err
	}

	blockFetchTime := time.Now()
	block, err := p.Fetcher.FetchBlock(ctx, blockNumber)
	if err != nil {
		p.Logger.Sugar().Errorw("Failed to fetch block", zap.Uint64("blockNumber", blockNumber), zap.Error(err))
		return nil, err
	}
	p.Logger.Sugar().Debugw("Fetched block",
		zap.Uint64("blockNumber", blockNumber),
		zap.Int("logs", len(block.Logs)),
		zap.Int64("fetchTime", time.Since(blockFetchTime).Milliseconds()),
	)
	p.setBookmark(n)

	return p.SyncBlockEvents(ctx, p.Parser.ParseBlock(n, block.Logs))
}

// RunForBlockRange syncs every block of the inclusive range, stopping at the first failure.
func (p *Pipeline) RunForBlockRange(ctx context.Context, startBlockInclusive uint64, endBlockInclusive uint64) ([]*ledgerState.SyncResult, error) {
	if _, err := toLedgerBlockNumber(endBlockInclusive); err != nil {
		return nil, err
	}
	blocks, err := p.Fetcher.FetchBlocks(ctx, startBlockInclusive, endBlockInclusive)
	if err != nil {
		p.Logger.Sugar().Errorw("Failed to fetch block range",
			zap.Uint64("startBlock", startBlockInclusive),
			zap.Uint64("endBlock", endBlockInclusive),
			zap.Error(err),
		)
		return nil, err
	}
	if len(blocks) > 0 {
		p.setBookmark(uint32(blocks[len(blocks)-1].BlockNumber))
	}

	results := make([]*ledgerState.SyncResult, 0, len(blocks))
	for _, block := range blocks {
		n := uint32(block.BlockNumber)
		result, err := p.SyncBlockEvents(ctx, p.Parser.ParseBlock(n, block.Logs))
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// SyncBlockEvents applies an already parsed block, then announces it on the event bus.
func (p *Pipeline) SyncBlockEvents(ctx context.Context, block *types.BlockEvents) (*ledgerState.SyncResult, error) {
	syncTime := time.Now()
	result, err := p.StateManager.SyncBlock(ctx, block)
	if err != nil {
		if errors.Is(err, types.ErrAlreadySynced) {
			_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_AlreadySynced, nil, 1)
		}
		return nil, err
	}

	_ = p.metricsSink.Timing(metricsTypes.Metric_Timing_BlockSyncDuration, time.Since(syncTime), nil)
	_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_BlockSynced, nil, 1)
	_ = p.metricsSink.Gauge(metricsTypes.Metric_Gauge_CurrentSyncedBlock, float64(result.BlockNumber), nil)
	if result.Applied > 0 {
		_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_CommandApplied, nil, float64(result.Applied))
	}
	for kind, count := range result.Rejected {
		_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_ContractError, []metricsTypes.MetricsLabel{
			{Name: "kind", Value: string(kind)},
		}, float64(count))
	}

	if p.eventBus != nil {
		p.eventBus.Publish(&eventBusTypes.Event{
			Name: eventBusTypes.Event_BlockSynced,
			Data: &eventBusTypes.BlockSyncedData{
				BlockNumber: result.BlockNumber,
				StateRoot:   result.StateRoot,
				Events:      result.Events,
			},
		})
	}

	p.Logger.Sugar().Infow("Synced block",
		zap.Uint32("blockNumber", result.BlockNumber),
		zap.Int("commands", len(block.Methods)),
		zap.Int("applied", result.Applied),
		zap.String("stateRoot", result.StateRoot),
		zap.Int64("syncTime", time.Since(syncTime).Milliseconds()),
	)
	return result, nil
}

func (p *Pipeline) setBookmark(blockNumber uint32) {
	if p.bookmarks == nil {
		return
	}
	// failures are logged by the store
	_ = p.bookmarks.Set(blockNumber)
}
