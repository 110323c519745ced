// Package logParser turns the raw logs of the vault and token contracts into bridge commands.
package logParser

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	"go.uber.org/zap"
)

const TransferEventSignature = "Transfer(address,address,uint256)"

// vault events all share the (address indexed sender, uint256 value) layout
var vaultEventMethods = map[string]types.MethodKind{
	"DepositETH":      types.MethodKind_DepositETH,
	"WithdrawETH":     types.MethodKind_WithdrawETH,
	"WithdrawToken":   types.MethodKind_WithdrawToken,
	"SwapToToken":     types.MethodKind_SwapToToken,
	"SwapToETH":       types.MethodKind_SwapToETH,
	"AddLiquidity":    types.MethodKind_AddLiquidity,
	"RemoveLiquidity": types.MethodKind_RemoveLiquidity,
}

// TopicHash is the keccak256 hash of a canonical event signature.
func TopicHash(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

type vaultEvent struct {
	event  abi.Event
	method types.MethodKind
}

type LogParser struct {
	logger        *zap.Logger
	vaultAddress  common.Address
	tokenAddress  common.Address
	vaultEvents   map[common.Hash]*vaultEvent
	transferEvent abi.Event
}

func NewLogParser(vaultAddress, tokenAddress types.Address, l *zap.Logger) (*LogParser, error) {
	addressTy, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}
	uintTy, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, err
	}

	p := &LogParser{
		logger:       l,
		vaultAddress: vaultAddress,
		tokenAddress: tokenAddress,
		vaultEvents:  make(map[common.Hash]*vaultEvent, len(vaultEventMethods)),
	}
	for name, method := range vaultEventMethods {
		event := abi.NewEvent(name, name, false, abi.Arguments{
			{Name: "sender", Type: addressTy, Indexed: true},
			{Name: "value", Type: uintTy},
		})
		p.vaultEvents[event.ID] = &vaultEvent{event: event, method: method}
	}
	p.transferEvent = abi.NewEvent("Transfer", "Transfer", false, abi.Arguments{
		{Name: "from", Type: addressTy, Indexed: true},
		{Name: "to", Type: addressTy, Indexed: true},
		{Name: "value", Type: uintTy},
	})
	if p.transferEvent.ID != TopicHash(TransferEventSignature) {
		return nil, fmt.Errorf("unexpected topic hash for %s", TransferEventSignature)
	}
	return p, nil
}

func NewLogParserFromHex(vaultAddress, tokenAddress string, l *zap.Logger) (*LogParser, error) {
	vault, err := types.ParseAddress(vaultAddress)
	if err != nil {
		return nil, err
	}
	token, err := types.ParseAddress(tokenAddress)
	if err != nil {
		return nil, err
	}
	return NewLogParser(vault, token, l)
}

// Addresses are the contracts whose logs the parser understands, for eth_getLogs filters.
func (p *LogParser) Addresses() []string {
	return []string{types.FormatAddress(p.vaultAddress), types.FormatAddress(p.tokenAddress)}
}

// ParseBlock classifies the logs of one block into its ordered command list.
// Logs that are not bridge commands are skipped and never fail the block.
func (p *LogParser) ParseBlock(blockNumber uint32, logs []ethTypes.Log) *types.BlockEvents {
	ordered := make([]ethTypes.Log, 0, len(logs))
	for _, lg := range logs {
		if lg.BlockNumber != uint64(blockNumber) {
			p.logger.Sugar().Warnw("Skipping log from another block",
				zap.Uint32("blockNumber", blockNumber),
				zap.Uint64("logBlockNumber", lg.BlockNumber),
			)
			continue
		}
		ordered = append(ordered, lg)
	}
	slices.SortStableFunc(ordered, func(a, b ethTypes.Log) int {
		if a.TxIndex != b.TxIndex {
			if a.TxIndex < b.TxIndex {
				return -1
			}
			return 1
		}
		if a.Index < b.Index {
			return -1
		}
		if a.Index > b.Index {
			return 1
		}
		return 0
	})

	block := &types.BlockEvents{
		BlockNumber: blockNumber,
		Methods:     make([]*types.ContractMethod, 0),
	}
	for i := range ordered {
		method, err := p.ParseLog(&ordered[i])
		if err != nil {
			p.logger.Sugar().Warnw("Failed to decode log",
				zap.Uint32("blockNumber", blockNumber),
				zap.String("transactionHash", ordered[i].TxHash.String()),
				zap.Uint("logIndex", ordered[i].Index),
				zap.Error(err),
			)
			continue
		}
		if method != nil {
			block.Methods = append(block.Methods, method)
		}
	}
	return block
}

// ParseLog returns nil without error for logs that are not bridge commands.
func (p *LogParser) ParseLog(lg *ethTypes.Log) (*types.ContractMethod, error) {
	if lg.Removed || len(lg.Topics) == 0 {
		return nil, nil
	}
	topic := lg.Topics[0]

	switch lg.Address {
	case p.vaultAddress:
		ve, ok := p.vaultEvents[topic]
		if !ok {
			p.logger.Sugar().Debugw("Unknown vault event", zap.String("topic", topic.String()))
			return nil, nil
		}
		values, err := p.decode(&ve.event, lg)
		if err != nil {
			return nil, err
		}
		sender, amount, err := senderAmount(values, "sender")
		if err != nil {
			return nil, err
		}
		return types.NewContractMethod(ve.method, sender, amount), nil

	case p.tokenAddress:
		if topic != p.transferEvent.ID {
			return nil, nil
		}
		values, err := p.decode(&p.transferEvent, lg)
		if err != nil {
			return nil, err
		}
		to, ok := values["to"].(common.Address)
		if !ok {
			return nil, fmt.Errorf("transfer without recipient")
		}
		if to != p.vaultAddress {
			return nil, nil
		}
		from, amount, err := senderAmount(values, "from")
		if err != nil {
			return nil, err
		}
		return types.NewContractMethod(types.MethodKind_DepositToken, from, amount), nil
	}
	return nil, nil
}

func (p *LogParser) decode(event *abi.Event, lg *ethTypes.Log) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(lg.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%s: expected %d indexed topics, got %d", event.Name, len(indexed), len(lg.Topics)-1)
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, lg.Topics[1:]); err != nil {
		return nil, err
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, lg.Data); err != nil {
		return nil, err
	}
	return values, nil
}

func senderAmount(values map[string]interface{}, senderField string) (types.Address, numbers.Uint256, error) {
	sender, ok := values[senderField].(common.Address)
	if !ok {
		return types.Address{}, numbers.Zero(), fmt.Errorf("missing %s", senderField)
	}
	value, ok := values["value"].(*big.Int)
	if !ok {
		return types.Address{}, numbers.Zero(), fmt.Errorf("missing value")
	}
	amount, err := numbers.NewUint256FromBig(value)
	if err != nil {
		return types.Address{}, numbers.Zero(), err
	}
	return sender, amount, nil
}
