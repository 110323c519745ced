package amm

import (
	"errors"

	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

// SwapToTokenCost is the ether charged for the desired amount of tokens, fee included.
func SwapToTokenCost(pool ledgerStore.PoolState, desiredTokens numbers.Uint256) (numbers.Uint256, error) {
	ratio, err := swapRatio(pool)
	if err != nil {
		return numbers.Zero(), err
	}
	c := &calc{}
	cost := c.div(c.mul(c.div(desiredTokens, ratio), feeNumerator), feeDenominator)
	if c.err != nil {
		return numbers.Zero(), c.err
	}
	return checkCost(desiredTokens, cost)
}

// SwapToEthCost is the token charged for the desired amount of ether, fee included.
func SwapToEthCost(pool ledgerStore.PoolState, desiredEth numbers.Uint256) (numbers.Uint256, error) {
	ratio, err := swapRatio(pool)
	if err != nil {
		return numbers.Zero(), err
	}
	c := &calc{}
	cost := c.div(c.mul(c.mul(desiredEth, ratio), feeNumerator), feeDenominator)
	if c.err != nil {
		return numbers.Zero(), c.err
	}
	return checkCost(desiredEth, cost)
}

// ErrZeroSwapCost rejects a swap whose price truncates to nothing.
var ErrZeroSwapCost = errors.New("swap cost rounds to zero")

// swapRatio is the pool ratio, rejected when it truncates to zero.
func swapRatio(pool ledgerStore.PoolState) (numbers.Uint256, error) {
	ratio := Ratio(pool)
	if ratio.IsZero() {
		return numbers.Zero(), types.NewArithmeticError(numbers.ErrDivideByZero)
	}
	return ratio, nil
}

func checkCost(desired numbers.Uint256, cost numbers.Uint256) (numbers.Uint256, error) {
	if cost.IsZero() && !desired.IsZero() {
		return numbers.Zero(), types.NewArithmeticError(ErrZeroSwapCost)
	}
	return cost, nil
}

// SwapToToken buys exactly the requested amount of tokens from the pool.
func SwapToToken(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	pool := view.GetPool()
	desired := sa.Amount
	if desired.Gt(pool.TokenReserve) {
		return nil, types.NewContractError(types.ContractError_NotEnoughTokenLiquidity)
	}

	cost, err := SwapToTokenCost(pool, desired)
	if err != nil {
		return nil, err
	}

	ethBalance, err := balanceOf(view, ledgerStore.BalanceKind_Eth, sa.Sender)
	if err != nil {
		return nil, err
	}
	if cost.Gt(ethBalance) {
		return nil, types.NewContractError(types.ContractError_NotEnoughEthOnUserAccount)
	}
	tokenBalance, err := balanceOf(view, ledgerStore.BalanceKind_Token, sa.Sender)
	if err != nil {
		return nil, err
	}

	c := &calc{}
	next := pool
	next.TokenReserve = c.sub(pool.TokenReserve, desired)
	next.EthReserve = c.add(pool.EthReserve, cost)
	newEth := c.sub(ethBalance, cost)
	newToken := c.add(tokenBalance, desired)
	if c.err != nil {
		return nil, c.err
	}

	return &Transition{
		Event: methodEvent(types.MethodKind_SwapToToken, sa.Sender, desired),
		Balances: []BalanceWrite{
			{Key: key(ledgerStore.BalanceKind_Eth, sa.Sender), Value: newEth},
			{Key: key(ledgerStore.BalanceKind_Token, sa.Sender), Value: newToken},
		},
		Pool: next,
	}, nil
}

// SwapToETH buys exactly the requested amount of ether from the pool.
func SwapToETH(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	pool := view.GetPool()
	desired := sa.Amount
	if desired.Gt(pool.EthReserve) {
		return nil, types.NewContractError(types.ContractError_NotEnoughEthLiquidity)
	}

	cost, err := SwapToEthCost(pool, desired)
	if err != nil {
		return nil, err
	}

	tokenBalance, err := balanceOf(view, ledgerStore.BalanceKind_Token, sa.Sender)
	if err != nil {
		return nil, err
	}
	if cost.Gt(tokenBalance) {
		return nil, types.NewContractError(types.ContractError_NotEnoughTokenOnUserAccount)
	}
	ethBalance, err := balanceOf(view, ledgerStore.BalanceKind_Eth, sa.Sender)
	if err != nil {
		return nil, err
	}

	c := &calc{}
	next := pool
	next.EthReserve = c.sub(pool.EthReserve, desired)
	next.TokenReserve = c.add(pool.TokenReserve, cost)
	newToken := c.sub(tokenBalance, cost)
	newEth := c.add(ethBalance, desired)
	if c.err != nil {
		return nil, c.err
	}

	return &Transition{
		Event: methodEvent(types.MethodKind_SwapToETH, sa.Sender, desired),
		Balances: []BalanceWrite{
			{Key: key(ledgerStore.BalanceKind_Token, sa.Sender), Value: newToken},
			{Key: key(ledgerStore.BalanceKind_Eth, sa.Sender), Value: newEth},
		},
		Pool: next,
	}, nil
}
