package sidecar

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/polkaswap/bridge-sidecar/internal/metrics"
	"github.com/polkaswap/bridge-sidecar/pkg/bookmarkStore"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerState"
	"github.com/polkaswap/bridge-sidecar/pkg/pipeline"
	"go.uber.org/zap"
)

const (
	defaultPollInterval         = 12 * time.Second
	defaultRetryInitialInterval = 500 * time.Millisecond
	// upper bound of blocks handed to the pipeline per iteration
	defaultCatchUpBatchSize uint64 = 100
)

type TipClient interface {
	GetBlockNumberUint64(ctx context.Context) (uint64, error)
}

type SidecarConfig struct {
	GenesisBlockNumber   uint32
	Confirmations        uint64
	PollInterval         time.Duration
	MaxRetryElapsed      time.Duration
	RetryInitialInterval time.Duration
	CatchUpBatchSize     uint64
}

func SidecarConfigFromGlobal(cfg *config.Config) *SidecarConfig {
	return &SidecarConfig{
		GenesisBlockNumber: cfg.BridgeConfig.GenesisBlock,
		Confirmations:      cfg.EthereumRpcConfig.Confirmations,
		PollInterval:       cfg.EthereumRpcConfig.PollInterval,
		MaxRetryElapsed:    cfg.EthereumRpcConfig.MaxRetryElapsed,
	}
}

type Sidecar struct {
	Logger         *zap.Logger
	Config         *SidecarConfig
	Pipeline       *pipeline.Pipeline
	StateManager   *ledgerState.LedgerStateManager
	EthereumClient TipClient
	Bookmarks      *bookmarkStore.BookmarkStore
	ShutdownChan   chan bool
	shouldShutdown *atomic.Bool
	metricsSink    *metrics.MetricsSink
}

func NewSidecar(
	cfg *SidecarConfig,
	p *pipeline.Pipeline,
	sm *ledgerState.LedgerStateManager,
	bs *bookmarkStore.BookmarkStore,
	ms *metrics.MetricsSink,
	l *zap.Logger,
	ethClient TipClient,
) *Sidecar {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryInitialInterval == 0 {
		cfg.RetryInitialInterval = defaultRetryInitialInterval
	}
	if cfg.CatchUpBatchSize == 0 {
		cfg.CatchUpBatchSize = defaultCatchUpBatchSize
	}
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	shouldShutdown := &atomic.Bool{}
	shouldShutdown.Store(false)
	return &Sidecar{
		Logger:         l,
		Config:         cfg,
		Pipeline:       p,
		StateManager:   sm,
		EthereumClient: ethClient,
		Bookmarks:      bs,
		ShutdownChan:   make(chan bool),
		shouldShutdown: shouldShutdown,
		metricsSink:    ms,
	}
}

// Start follows the chain until the context is cancelled or a shutdown is requested.
func (s *Sidecar) Start(ctx context.Context) error {
	s.Logger.Info("Starting sidecar")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.ShutdownChan:
			s.Logger.Sugar().Infow("Received shutdown signal")
			s.shouldShutdown.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.IndexFromCurrentToTip(ctx)
}
