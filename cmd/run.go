package cmd

import (
	"context"
	"time"

	"github.com/polkaswap/bridge-sidecar/internal/metrics"
	"github.com/polkaswap/bridge-sidecar/internal/metrics/prometheus"
	"github.com/polkaswap/bridge-sidecar/internal/shutdown"
	"github.com/polkaswap/bridge-sidecar/pkg/bookmarkStore"
	"github.com/polkaswap/bridge-sidecar/pkg/clients/ethereum"
	"github.com/polkaswap/bridge-sidecar/pkg/eventBus"
	"github.com/polkaswap/bridge-sidecar/pkg/eventSink/rabbitmq"
	"github.com/polkaswap/bridge-sidecar/pkg/fetcher"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerState"
	"github.com/polkaswap/bridge-sidecar/pkg/logParser"
	"github.com/polkaswap/bridge-sidecar/pkg/pipeline"
	"github.com/polkaswap/bridge-sidecar/pkg/rpcServer"
	"github.com/polkaswap/bridge-sidecar/pkg/sidecar"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sidecar",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg, l := loadConfig()
		if cfg.EthereumRpcConfig.RpcUrl == "" {
			l.Sugar().Fatal("ethereum.rpc-url is required")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		metricsClients, pm, err := metrics.InitMetricsSinksFromConfig(cfg, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
		}
		sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
		}
		if pm != nil {
			ps := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{Port: cfg.PrometheusConfig.Port}, pm.Registry, l)
			if err := ps.Start(ctx); err != nil {
				l.Sugar().Fatalw("Failed to start prometheus server", zap.Error(err))
			}
		}

		store := openLedgerStore(cfg, l)

		bookmarks, err := bookmarkStore.NewBookmarkStore(cfg.BookmarkConfig.Path, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to open bookmark store", zap.Error(err))
		}
		defer bookmarks.Close()

		client := ethereum.NewClient(ethereum.ConvertGlobalConfigToEthereumConfig(&cfg.EthereumRpcConfig), l)

		parser, err := logParser.NewLogParserFromHex(cfg.GetVaultAddress(), cfg.GetTokenAddress(), l)
		if err != nil {
			l.Sugar().Fatalw("Failed to create log parser", zap.Error(err))
		}

		bus := eventBus.NewEventBus(l)
		if cfg.RabbitMqConfig.Enabled {
			rmq := rabbitmq.NewRabbitMQ(rabbitmq.ConfigFromGlobal(&cfg.RabbitMqConfig), l)
			if err := rmq.Connect(); err != nil {
				l.Sugar().Fatalw("Failed to connect to RabbitMQ", zap.Error(err))
			}
			defer rmq.Close()
			go rabbitmq.NewEventSink(rmq, rabbitmq.ExchangeName(&cfg.RabbitMqConfig), bus, l).Run(ctx)
		}

		sm := ledgerState.NewLedgerStateManager(store, l)
		f := fetcher.NewFetcher(client, parser.Addresses(), cfg, l)
		p := pipeline.NewPipeline(f, parser, sm, bookmarks, bus, sink, l)

		sdc := sidecar.NewSidecar(sidecar.SidecarConfigFromGlobal(cfg), p, sm, bookmarks, sink, l, client)

		if err := rpcServer.NewRpcServer(store, bookmarks, sink, l).Start(ctx, cfg.RpcConfig.HttpPort); err != nil {
			l.Sugar().Fatalw("Failed to start RPC server", zap.Error(err))
		}

		finished := make(chan struct{})
		var runErr error
		go func() {
			defer close(finished)
			runErr = sdc.Start(ctx)
		}()

		l.Sugar().Info("Started Sidecar")

		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()
		shutdown.ListenForShutdown(gracefulShutdown, finished, finished, func() {
			l.Sugar().Info("Shutting down...")
			cancel()
		}, time.Second*5, l)

		select {
		case <-finished:
		default:
			return
		}
		if runErr != nil {
			l.Sugar().Fatalw("Sidecar stopped", zap.Error(runErr))
		}
	},
}
