package types

import (
	"fmt"

	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

type EventKind string

const (
	EventKind_DepositedToken  EventKind = "DepositedToken"
	EventKind_DepositedETH    EventKind = "DepositedETH"
	EventKind_WithdrawToken   EventKind = "WithdrawToken"
	EventKind_WithdrawETH     EventKind = "WithdrawETH"
	EventKind_SwapToToken     EventKind = "SwapToToken"
	EventKind_SwapToETH       EventKind = "SwapToETH"
	EventKind_AddLiquidity    EventKind = "AddLiquidity"
	EventKind_RemoveLiquidity EventKind = "RemoveLiquidity"
	EventKind_EthBlockSynced  EventKind = "EthBlockSynced"
	EventKind_ContractError   EventKind = "ContractError"
)

func EventKindForMethod(kind MethodKind) (EventKind, error) {
	switch kind {
	case MethodKind_DepositToken:
		return EventKind_DepositedToken, nil
	case MethodKind_DepositETH:
		return EventKind_DepositedETH, nil
	case MethodKind_WithdrawToken:
		return EventKind_WithdrawToken, nil
	case MethodKind_WithdrawETH:
		return EventKind_WithdrawETH, nil
	case MethodKind_SwapToToken:
		return EventKind_SwapToToken, nil
	case MethodKind_SwapToETH:
		return EventKind_SwapToETH, nil
	case MethodKind_AddLiquidity:
		return EventKind_AddLiquidity, nil
	case MethodKind_RemoveLiquidity:
		return EventKind_RemoveLiquidity, nil
	default:
		return "", fmt.Errorf("no event for method %s", kind)
	}
}

// Event is emitted for every processed command and once per synced block.
// Amount is truncated to 128 bits.
type Event struct {
	Kind        EventKind         `json:"kind"`
	BlockNumber uint32            `json:"blockNumber"`
	Index       int               `json:"index"`
	Method      string            `json:"method,omitempty"`
	Address     Address           `json:"address"`
	Amount      numbers.Uint256   `json:"amount"`
	ErrorKind   ContractErrorKind `json:"errorKind,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func NewMethodEvent(kind EventKind, method MethodKind, sender Address, amount numbers.Uint256) *Event {
	return &Event{
		Kind:    kind,
		Method:  method.String(),
		Address: sender,
		Amount:  amount.Truncate128(),
	}
}

func NewContractErrorEvent(method *ContractMethod, err *ContractError) *Event {
	return &Event{
		Kind:      EventKind_ContractError,
		Method:    method.Kind.String(),
		Address:   method.Sender,
		Amount:    method.Amount.Truncate128(),
		ErrorKind: err.Kind,
		Error:     err.Message,
	}
}

func NewBlockSyncedEvent(blockNumber uint32) *Event {
	return &Event{
		Kind:        EventKind_EthBlockSynced,
		BlockNumber: blockNumber,
		Amount:      numbers.NewUint256(uint64(blockNumber)),
	}
}

func (e *Event) IsError() bool {
	return e.Kind == EventKind_ContractError
}
