package ethereum

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
)

type ResponseParserFunc[T any] func(res json.RawMessage) (T, error)

type RequestResponseHandler[T any] struct {
	RequestMethod  *RequestMethod
	ResponseParser ResponseParserFunc[T]
}

var (
	RPCMethod_GetBlock = &RequestResponseHandler[string]{
		RequestMethod: &RequestMethod{
			Name:    "eth_blockNumber",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (string, error) {
			return strings.ReplaceAll(string(res), "\"", ""), nil
		},
	}
	RPCMethod_getLogs = &RequestResponseHandler[[]ethTypes.Log]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getLogs",
			Timeout: time.Second * 20,
		},
		ResponseParser: func(res json.RawMessage) ([]ethTypes.Log, error) {
			logs := make([]ethTypes.Log, 0)
			if err := json.Unmarshal(res, &logs); err != nil {
				return nil, err
			}
			return logs, nil
		},
	}
)

var requestTimeouts = map[string]time.Duration{
	RPCMethod_GetBlock.RequestMethod.Name: RPCMethod_GetBlock.RequestMethod.Timeout,
	RPCMethod_getLogs.RequestMethod.Name:  RPCMethod_getLogs.RequestMethod.Timeout,
}

func GetBlockRequest(id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_GetBlock.RequestMethod.Name,
		ID:      id,
	}
}

type LogFilter struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Address   []string `json:"address,omitempty"`
}

// GetLogsRequest builds an eth_getLogs request for the inclusive block range, filtered by emitting address.
func GetLogsRequest(fromBlock uint64, toBlock uint64, addresses []string, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_getLogs.RequestMethod.Name,
		Params: []interface{}{
			&LogFilter{
				FromBlock: hexutil.EncodeUint64(fromBlock),
				ToBlock:   hexutil.EncodeUint64(toBlock),
				Address:   addresses,
			},
		},
		ID: id,
	}
}
