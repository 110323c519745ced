package amm

import (
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

func DepositToken(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	return deposit(view, sa, ledgerStore.BalanceKind_Token, types.MethodKind_DepositToken)
}

func DepositETH(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	return deposit(view, sa, ledgerStore.BalanceKind_Eth, types.MethodKind_DepositETH)
}

func WithdrawToken(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	return withdraw(view, sa, ledgerStore.BalanceKind_Token, types.MethodKind_WithdrawToken)
}

func WithdrawETH(view LedgerView, sa types.SenderAmount) (*Transition, error) {
	return withdraw(view, sa, ledgerStore.BalanceKind_Eth, types.MethodKind_WithdrawETH)
}

func deposit(view LedgerView, sa types.SenderAmount, kind ledgerStore.BalanceKind, method types.MethodKind) (*Transition, error) {
	balance, err := balanceOf(view, kind, sa.Sender)
	if err != nil {
		return nil, err
	}

	c := &calc{}
	updated := c.add(balance, sa.Amount)
	if c.err != nil {
		return nil, c.err
	}

	return &Transition{
		Event:    methodEvent(method, sa.Sender, sa.Amount),
		Balances: []BalanceWrite{{Key: key(kind, sa.Sender), Value: updated}},
		Pool:     view.GetPool(),
	}, nil
}

// withdraw pays out at most the recorded balance.
func withdraw(view LedgerView, sa types.SenderAmount, kind ledgerStore.BalanceKind, method types.MethodKind) (*Transition, error) {
	balance, found, err := view.GetBalance(kind, sa.Sender)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, types.NewContractError(types.ContractError_UserNotFound)
	}

	amount := numbers.Min(sa.Amount, balance)
	if amount.IsZero() {
		return nil, types.NewContractError(types.ContractError_NothingToWithdraw)
	}

	c := &calc{}
	updated := c.sub(balance, amount)
	if c.err != nil {
		return nil, c.err
	}

	return &Transition{
		Event:    methodEvent(method, sa.Sender, amount),
		Balances: []BalanceWrite{{Key: key(kind, sa.Sender), Value: updated}},
		Pool:     view.GetPool(),
	}, nil
}
