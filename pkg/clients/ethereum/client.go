package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/polkaswap/bridge-sidecar/internal/config"
	"go.uber.org/zap"
)

type RequestMethod struct {
	Name    string
	Timeout time.Duration
}

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint   `json:"id"`
}

type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint           `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

var jsonRPCVersion = "2.0"

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
}

type EthereumClientConfig struct {
	BaseUrl string
	// RequestTimeout overrides the per-method timeout when set.
	RequestTimeout time.Duration
	// MaxRetryElapsed bounds the total time spent retrying a single call. 0 retries until the context ends.
	MaxRetryElapsed time.Duration
}

func ConvertGlobalConfigToEthereumConfig(cfg *config.EthereumRpcConfig) *EthereumClientConfig {
	return &EthereumClientConfig{
		BaseUrl:         cfg.RpcUrl,
		RequestTimeout:  cfg.RequestTimeout,
		MaxRetryElapsed: cfg.MaxRetryElapsed,
	}
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 30,
	}

	l.Sugar().Infow("Creating new Ethereum client", zap.String("url", cfg.BaseUrl))

	return &Client{
		httpClient:   client,
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) GetBlockNumber(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, GetBlockRequest(1))
	if err != nil {
		return "", err
	}
	return RPCMethod_GetBlock.ResponseParser(res.Result)
}

func (c *Client) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	blockNumber, err := c.GetBlockNumber(ctx)
	if err != nil {
		return 0, err
	}

	blockNumberUint64, err := hexutil.DecodeUint64(blockNumber)
	if err != nil {
		return 0, err
	}

	return blockNumberUint64, nil
}

// GetLogs returns the logs emitted by the given addresses in the inclusive block range.
func (c *Client) GetLogs(ctx context.Context, fromBlock uint64, toBlock uint64, addresses []string) ([]ethTypes.Log, error) {
	if toBlock < fromBlock {
		return nil, fmt.Errorf("invalid block range %d-%d", fromBlock, toBlock)
	}
	res, err := c.Call(ctx, GetLogsRequest(fromBlock, toBlock, addresses, 1))
	if err != nil {
		return nil, err
	}
	logs, err := RPCMethod_getLogs.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse logs",
			zap.Error(err),
			zap.Uint64("fromBlock", fromBlock),
			zap.Uint64("toBlock", toBlock),
		)
		return nil, err
	}
	return logs, nil
}

func (c *Client) requestTimeout(method string) time.Duration {
	if c.clientConfig.RequestTimeout > 0 {
		return c.clientConfig.RequestTimeout
	}
	if t, ok := requestTimeouts[method]; ok {
		return t
	}
	return time.Second * 10
}

func (c *Client) call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	requestBody, err := json.Marshal(rpcRequest)
	if err != nil {
		return nil, err
	}
	c.Logger.Sugar().Debugw("Request body", zap.String("requestBody", string(requestBody)))

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout(rpcRequest.Method))
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("Failed to make request %s", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("Request failed %s", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to read body %s", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
	}

	destination := &RPCResponse{}
	if err := json.Unmarshal(responseBody, destination); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %s", err)
	}

	if destination.Error != nil {
		return nil, destination.Error
	}

	return destination, nil
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(c.clientConfig.MaxRetryElapsed),
	), ctx)
}

// Call sends the request, retrying transport failures with exponential backoff.
// An error returned by the node itself is not retried.
func (c *Client) Call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	var res *RPCResponse
	attempts := 0
	err := backoff.RetryNotify(
		func() (err error) {
			attempts++
			res, err = c.call(ctx, rpcRequest)
			var rpcErr *RPCError
			if errors.As(err, &rpcErr) {
				return backoff.Permanent(err)
			}
			return err
		},
		c.newBackoff(ctx),
		func(err error, d time.Duration) {
			c.Logger.Sugar().Errorw("Failed to call",
				zap.Error(err),
				zap.String("method", rpcRequest.Method),
				zap.Duration("retryIn", d),
			)
		},
	)
	if err != nil {
		c.Logger.Sugar().Errorw("Exceeded retries for Call",
			zap.String("method", rpcRequest.Method),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, rpcRequest.Method+" failed")
	}
	if attempts > 1 {
		c.Logger.Sugar().Infow("Successfully called after backoff",
			zap.String("method", rpcRequest.Method),
			zap.Int("attempts", attempts),
		)
	}
	return res, nil
}
