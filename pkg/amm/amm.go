// Package amm implements the ledger operations of the bridge: deposits and
// withdrawals of the token and of ether, and a constant-ratio exchange pool
// between the two.
//
// Every operation is a pure function of a LedgerView and a command. It returns
// either a Transition to apply or an error; nothing is written on error.
package amm

import (
	"fmt"

	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

var (
	// MinimalLiquidity is withheld from the first liquidity provider.
	MinimalLiquidity = numbers.NewUint256(1000)
	// InitialRatio is the token per ether price used while the pool has no ether.
	InitialRatio = numbers.NewUint256(1000)

	feeNumerator   = numbers.NewUint256(1000)
	feeDenominator = numbers.NewUint256(997)
)

// LedgerView is the read side of the ledger an operation works against.
type LedgerView interface {
	// GetBalance returns found=false when the account has no record for the kind.
	GetBalance(kind ledgerStore.BalanceKind, address types.Address) (numbers.Uint256, bool, error)
	GetPool() ledgerStore.PoolState
}

type BalanceWrite struct {
	Key   ledgerStore.BalanceKey
	Value numbers.Uint256
}

// Transition is the complete effect of one successful command.
type Transition struct {
	Event    *types.Event
	Balances []BalanceWrite
	Pool     ledgerStore.PoolState
}

type Operation func(view LedgerView, sa types.SenderAmount) (*Transition, error)

func operationFor(kind types.MethodKind) (Operation, error) {
	switch kind {
	case types.MethodKind_DepositToken:
		return DepositToken, nil
	case types.MethodKind_DepositETH:
		return DepositETH, nil
	case types.MethodKind_WithdrawToken:
		return WithdrawToken, nil
	case types.MethodKind_WithdrawETH:
		return WithdrawETH, nil
	case types.MethodKind_SwapToToken:
		return SwapToToken, nil
	case types.MethodKind_SwapToETH:
		return SwapToETH, nil
	case types.MethodKind_AddLiquidity:
		return AddLiquidity, nil
	case types.MethodKind_RemoveLiquidity:
		return RemoveLiquidity, nil
	default:
		return nil, fmt.Errorf("unsupported method %s", kind)
	}
}

// Apply dispatches the command to its operation.
//
// A *types.ContractError rejects only this command. Any other error comes from
// reading the ledger and must abort the block.
func Apply(view LedgerView, method *types.ContractMethod) (*Transition, error) {
	op, err := operationFor(method.Kind)
	if err != nil {
		return nil, err
	}
	return op(view, method.SenderAmount)
}

// Ratio is the token per ether price of the pool, truncated.
func Ratio(pool ledgerStore.PoolState) numbers.Uint256 {
	if pool.EthReserve.IsZero() {
		return InitialRatio
	}
	// EthReserve is non zero, Div cannot fail
	r, _ := pool.TokenReserve.Div(pool.EthReserve)
	return r
}

func balanceOf(view LedgerView, kind ledgerStore.BalanceKind, address types.Address) (numbers.Uint256, error) {
	v, _, err := view.GetBalance(kind, address)
	return v, err
}

func key(kind ledgerStore.BalanceKind, address types.Address) ledgerStore.BalanceKey {
	return ledgerStore.BalanceKey{Kind: kind, Address: address}
}

func methodEvent(kind types.MethodKind, sender types.Address, amount numbers.Uint256) *types.Event {
	eventKind, _ := types.EventKindForMethod(kind)
	return types.NewMethodEvent(eventKind, kind, sender, amount)
}

// calc chains checked arithmetic and keeps the first error.
type calc struct {
	err error
}

func (c *calc) add(a, b numbers.Uint256) numbers.Uint256 {
	return c.run(a.Add, b)
}

func (c *calc) sub(a, b numbers.Uint256) numbers.Uint256 {
	return c.run(a.Sub, b)
}

func (c *calc) mul(a, b numbers.Uint256) numbers.Uint256 {
	return c.run(a.Mul, b)
}

func (c *calc) div(a, b numbers.Uint256) numbers.Uint256 {
	return c.run(a.Div, b)
}

func (c *calc) run(op func(numbers.Uint256) (numbers.Uint256, error), b numbers.Uint256) numbers.Uint256 {
	if c.err != nil {
		return numbers.Zero()
	}
	v, err := op(b)
	if err != nil {
		c.err = types.NewArithmeticError(err)
		return numbers.Zero()
	}
	return v
}
