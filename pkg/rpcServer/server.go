package rpcServer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/polkaswap/bridge-sidecar/internal/metrics"
	"github.com/polkaswap/bridge-sidecar/internal/metrics/metricsTypes"
	"github.com/polkaswap/bridge-sidecar/pkg/bookmarkStore"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type RpcServer struct {
	Logger      *zap.Logger
	store       ledgerStore.LedgerStore
	bookmarks   *bookmarkStore.BookmarkStore
	metricsSink *metrics.MetricsSink
}

func NewRpcServer(
	store ledgerStore.LedgerStore,
	bs *bookmarkStore.BookmarkStore,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *RpcServer {
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	return &RpcServer{
		Logger:      l,
		store:       store,
		bookmarks:   bs,
		metricsSink: ms,
	}
}

// Handler routes the read API and allows cross-origin GET requests.
func (rpc *RpcServer) Handler() http.Handler {
	mux := http.NewServeMux()
	rpc.route(mux, "GET /v1/status", rpc.GetStatus)
	rpc.route(mux, "GET /v1/accounts/{address}", rpc.GetAccount)
	rpc.route(mux, "GET /v1/blocks/{blockNumber}/events", rpc.ListBlockEvents)
	rpc.route(mux, "GET /v1/blocks/{blockNumber}/state-root", rpc.GetStateRoot)
	rpc.route(mux, "GET /v1/health", rpc.HealthCheck)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler(mux)
}

func (rpc *RpcServer) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler(w, r)
		labels := []metricsTypes.MetricsLabel{{Name: "route", Value: pattern}}
		_ = rpc.metricsSink.Incr(metricsTypes.Metric_Incr_HttpRequest, labels, 1)
		_ = rpc.metricsSink.Timing(metricsTypes.Metric_Timing_HttpDuration, time.Since(start), labels)
	})
}

// Start serves the API on the given port until the context is done.
func (rpc *RpcServer) Start(ctx context.Context, port int) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           rpc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		rpc.Logger.Sugar().Info("Shutting down rpc server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			rpc.Logger.Sugar().Errorw("Failed to shutdown rpc server", zap.Error(err))
		}
	}()

	go func() {
		rpc.Logger.Sugar().Infow("Starting rpc server", zap.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rpc.Logger.Sugar().Errorw("Rpc server stopped", zap.Error(err))
		}
	}()
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (rpc *RpcServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		rpc.Logger.Sugar().Errorw("Failed to write response", zap.Error(err))
	}
}

func (rpc *RpcServer) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		rpc.Logger.Sugar().Errorw("Request failed", zap.Int("status", status), zap.Error(err))
	}
	rpc.writeJSON(w, status, &errorResponse{Error: err.Error()})
}
