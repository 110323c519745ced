package fetcher

import (
	"context"
	"sync"

	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/polkaswap/bridge-sidecar/internal/config"
	"go.uber.org/zap"
)

type LogsClient interface {
	GetLogs(ctx context.Context, fromBlock uint64, toBlock uint64, addresses []string) ([]ethTypes.Log, error)
}

type Fetcher struct {
	EthClient LogsClient
	Logger    *zap.Logger
	Config    *config.Config
	// contracts to filter logs by
	Addresses []string
}

func NewFetcher(ethClient LogsClient, addresses []string, cfg *config.Config, l *zap.Logger) *Fetcher {
	return &Fetcher{
		EthClient: ethClient,
		Logger:    l,
		Config:    cfg,
		Addresses: addresses,
	}
}

type FetchedBlock struct {
	BlockNumber uint64
	Logs        []ethTypes.Log
}

func (f *Fetcher) FetchBlock(ctx context.Context, blockNumber uint64) (*FetchedBlock, error) {
	logs, err := f.EthClient.GetLogs(ctx, blockNumber, blockNumber, f.Addresses)
	if err != nil {
		f.Logger.Sugar().Errorw("failed to get logs for block",
			zap.Uint64("blockNumber", blockNumber),
			zap.Error(err),
		)
		return nil, err
	}
	return &FetchedBlock{
		BlockNumber: blockNumber,
		Logs:        logs,
	}, nil
}

func (f *Fetcher) logsBlockRange() uint64 {
	if f.Config == nil || f.Config.EthereumRpcConfig.LogsBlockRange == 0 {
		return 1
	}
	return f.Config.EthereumRpcConfig.LogsBlockRange
}

// FetchBlocks returns one FetchedBlock per block of the inclusive range, in ascending order,
// including blocks without any log.
func (f *Fetcher) FetchBlocks(ctx context.Context, startBlockInclusive uint64, endBlockInclusive uint64) ([]*FetchedBlock, error) {
	if endBlockInclusive < startBlockInclusive {
		return []*FetchedBlock{}, nil
	}

	type chunk struct {
		from uint64
		to   uint64
	}
	step := f.logsBlockRange()
	chunks := make([]chunk, 0)
	for from := startBlockInclusive; from <= endBlockInclusive; from += step {
		to := from + step - 1
		if to > endBlockInclusive || to < from {
			to = endBlockInclusive
		}
		chunks = append(chunks, chunk{from: from, to: to})
		if to == endBlockInclusive {
			break
		}
	}

	results := make([][]ethTypes.Log, len(chunks))
	errs := make([]error, len(chunks))
	wg := sync.WaitGroup{}
	for i, c := range chunks {
		wg.Add(1)
		go func(i int, c chunk) {
			defer wg.Done()
			results[i], errs[i] = f.EthClient.GetLogs(ctx, c.from, c.to, f.Addresses)
		}(i, c)
	}
	wg.Wait()

	blocks := make([]*FetchedBlock, 0, endBlockInclusive-startBlockInclusive+1)
	for n := startBlockInclusive; ; n++ {
		blocks = append(blocks, &FetchedBlock{BlockNumber: n, Logs: make([]ethTypes.Log, 0)})
		if n == endBlockInclusive {
			break
		}
	}

	for i, c := range chunks {
		if errs[i] != nil {
			f.Logger.Sugar().Errorw("failed to fetch logs for range",
				zap.Uint64("startBlock", c.from),
				zap.Uint64("endBlock", c.to),
				zap.Error(errs[i]),
			)
			return nil, errors.Wrapf(errs[i], "failed to fetch logs for blocks %d-%d", c.from, c.to)
		}
		for _, lg := range results[i] {
			if lg.BlockNumber < startBlockInclusive || lg.BlockNumber > endBlockInclusive {
				return nil, errors.Errorf("log for block %d outside of requested range %d-%d", lg.BlockNumber, c.from, c.to)
			}
			fb := blocks[lg.BlockNumber-startBlockInclusive]
			fb.Logs = append(fb.Logs, lg)
		}
	}

	f.Logger.Sugar().Debugw("Fetched blocks",
		zap.Int("count", len(blocks)),
		zap.Int("requests", len(chunks)),
		zap.Uint64("startBlock", startBlockInclusive),
		zap.Uint64("endBlock", endBlockInclusive),
	)
	return blocks, nil
}
