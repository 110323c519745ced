package amm

import (
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

// InitialShares is the share amount minted by the first deposit into an empty pool:
// isqrt(eth) * isqrt(token) - MinimalLiquidity.
func InitialShares(ethIn, tokenIn numbers.Uint256) (numbers.Uint256, error) {
	c := &calc{}
	product := c.mul(ethIn.Sqrt(), tokenIn.Sqrt())
	if c.err != nil {
		return numbers.Zero(), c.err
	}
	if product.Lt(MinimalLiquidity) {
		return numbers.Zero(), types.NewContractError(types.ContractError_NotEnoughLiquidity)
	}
	shares := c.sub(product, MinimalLiquidity)
	if c.err != nil {
		return numbers.Zero(), c.err
	}
	return shares, nil
}

// AddLiquidity deposits up to amount ether plus the matching tokens at the current ratio.
// When the token balance is short, the ether side is scaled down to match it.
func AddLiquidity(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	pool := view.GetPool()

	ethBalance, err := balanceOf(view, ledgerStore.BalanceKind_Eth, sa.Sender)
	if err != nil {
		return nil, err
	}
	tokenBalance, err := balanceOf(view, ledgerStore.BalanceKind_Token, sa.Sender)
	if err != nil {
		return nil, err
	}
	liquidityBalance, err := balanceOf(view, ledgerStore.BalanceKind_Liquidity, sa.Sender)
	if err != nil {
		return nil, err
	}

	c := &calc{}
	ratio := Ratio(pool)
	ethIn := numbers.Min(sa.Amount, ethBalance)
	tokenIn := c.mul(ethIn, ratio)
	if c.err != nil {
		return nil, c.err
	}
	if tokenIn.Gt(tokenBalance) {
		tokenIn = tokenBalance
		ethIn = c.div(tokenIn, ratio)
		if c.err != nil {
			return nil, c.err
		}
	}

	var shares numbers.Uint256
	if pool.TotalLiquidity.IsZero() {
		shares, err = InitialShares(ethIn, tokenIn)
		if err != nil {
			return nil, err
		}
	} else {
		byEth := c.div(c.mul(ethIn, pool.TotalLiquidity), pool.EthReserve)
		byToken := c.div(c.mul(tokenIn, pool.TotalLiquidity), pool.TokenReserve)
		if c.err != nil {
			return nil, c.err
		}
		shares = numbers.Min(byEth, byToken)
	}
	if shares.IsZero() {
		return nil, types.NewContractError(types.ContractError_NotEnoughLiquidity)
	}

	next := pool
	next.EthReserve = c.add(pool.EthReserve, ethIn)
	next.TokenReserve = c.add(pool.TokenReserve, tokenIn)
	next.TotalLiquidity = c.add(pool.TotalLiquidity, shares)
	newEth := c.sub(ethBalance, ethIn)
	newToken := c.sub(tokenBalance, tokenIn)
	newLiquidity := c.add(liquidityBalance, shares)
	if c.err != nil {
		return nil, c.err
	}

	return &Transition{
		Event: methodEvent(types.MethodKind_AddLiquidity, sa.Sender, shares),
		Balances: []BalanceWrite{
			{Key: key(ledgerStore.BalanceKind_Eth, sa.Sender), Value: newEth},
			{Key: key(ledgerStore.BalanceKind_Token, sa.Sender), Value: newToken},
			{Key: key(ledgerStore.BalanceKind_Liquidity, sa.Sender), Value: newLiquidity},
		},
		Pool: next,
	}, nil
}

// RemoveLiquidity burns up to amount shares and pays out the proportional reserves.
func RemoveLiquidity(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	pool := view.GetPool()
	if pool.TotalLiquidity.IsZero() {
		return nil, types.NewContractError(types.ContractError_NotEnoughLiquidityInPool)
	}

	liquidityBalance, err := balanceOf(view, ledgerStore.BalanceKind_Liquidity, sa.Sender)
	if err != nil {
		return nil, err
	}
	shares := numbers.Min(sa.Amount, liquidityBalance)
	if shares.IsZero() {
		return nil, types.NewContractError(types.ContractError_NothingToWithdraw)
	}

	ethBalance, err := balanceOf(view, ledgerStore.BalanceKind_Eth, sa.Sender)
	if err != nil {
		return nil, err
	}
	tokenBalance, err := balanceOf(view, ledgerStore.BalanceKind_Token, sa.Sender)
	if err != nil {
		return nil, err
	}

	c := &calc{}
	ethOut := c.div(c.mul(pool.EthReserve, shares), pool.TotalLiquidity)
	tokenOut := c.div(c.mul(pool.TokenReserve, shares), pool.TotalLiquidity)

	next := pool
	next.EthReserve = c.sub(pool.EthReserve, ethOut)
	next.TokenReserve = c.sub(pool.TokenReserve, tokenOut)
	next.TotalLiquidity = c.sub(pool.TotalLiquidity, shares)
	newLiquidity := c.sub(liquidityBalance, shares)
	newEth := c.add(ethBalance, ethOut)
	newToken := c.add(tokenBalance, tokenOut)
	if c.err != nil {
		return nil, c.err
	}

	return &Transition{
		Event: methodEvent(types.MethodKind_RemoveLiquidity, sa.Sender, shares),
		Balances: []BalanceWrite{
			{Key: key(ledgerStore.BalanceKind_Liquidity, sa.Sender), Value: newLiquidity},
			{Key: key(ledgerStore.BalanceKind_Eth, sa.Sender), Value: newEth},
			{Key: key(ledgerStore.BalanceKind_Token, sa.Sender), Value: newToken},
		},
		Pool: next,
	}, nil
}
