package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/polkaswap/bridge-sidecar/internal/tests"
	"github.com/stretchr/testify/assert"
)

type rangeRequest struct {
	from uint64
	to   uint64
}

type fakeLogsClient struct {
	mu       sync.Mutex
	logs     []ethTypes.Log
	requests []rangeRequest
	failFrom uint64
}

func (c *fakeLogsClient) GetLogs(ctx context.Context, fromBlock uint64, toBlock uint64, addresses []string) ([]ethTypes.Log, error) {
	c.mu.Lock()
	c.requests = append(c.requests, rangeRequest{from: fromBlock, to: toBlock})
	c.mu.Unlock()

	if c.failFrom != 0 && fromBlock == c.failFrom {
		return nil, errors.New("upstream unavailable")
	}
	out := make([]ethTypes.Log, 0)
	for _, lg := range c.logs {
		if lg.BlockNumber >= fromBlock && lg.BlockNumber <= toBlock {
			out = append(out, lg)
		}
	}
	return out, nil
}

func Test_Fetcher(t *testing.T) {
	cfg := tests.GetConfig()
	l := tests.GetLogger(cfg)

	logs := []ethTypes.Log{
		{BlockNumber: 10, Index: 0},
		{BlockNumber: 12, Index: 0},
		{BlockNumber: 12, Index: 1},
		{BlockNumber: 16, Index: 0},
	}

	t.Run("Should fetch a single block", func(t *testing.T) {
		client := &fakeLogsClient{logs: logs}
		f := NewFetcher(client, []string{"0x01"}, cfg, l)

		block, err := f.FetchBlock(context.Background(), 12)
		assert.Nil(t, err)
		assert.Equal(t, uint64(12), block.BlockNumber)
		assert.Equal(t, 2, len(block.Logs))
	})
	t.Run("Should split a range into chunks and return every block", func(t *testing.T) {
		cfg := tests.GetConfig()
		cfg.EthereumRpcConfig.LogsBlockRange = 3
		client := &fakeLogsClient{logs: logs}
		f := NewFetcher(client, nil, cfg, l)

		blocks, err := f.FetchBlocks(context.Background(), 10, 16)
		assert.Nil(t, err)
		assert.Equal(t, 7, len(blocks))
		assert.Equal(t, 3, len(client.requests))
		for i, b := range blocks {
			assert.Equal(t, uint64(10+i), b.BlockNumber)
		}
		assert.Equal(t, 1, len(blocks[0].Logs))
		assert.Equal(t, 0, len(blocks[1].Logs))
		assert.Equal(t, 2, len(blocks[2].Logs))
		assert.Equal(t, 1, len(blocks[6].Logs))
	})
	t.Run("Should fail the whole range when a chunk fails", func(t *testing.T) {
		cfg := tests.GetConfig()
		cfg.EthereumRpcConfig.LogsBlockRange = 2
		client := &fakeLogsClient{logs: logs, failFrom: 12}
		f := NewFetcher(client, nil, cfg, l)

		_, err := f.FetchBlocks(context.Background(), 10, 15)
		assert.NotNil(t, err)
	})
	t.Run("Should return nothing for an empty range", func(t *testing.T) {
		f := NewFetcher(&fakeLogsClient{}, nil, cfg, l)
		blocks, err := f.FetchBlocks(context.Background(), 5, 4)
		assert.Nil(t, err)
		assert.Equal(t, 0, len(blocks))
	})
}
