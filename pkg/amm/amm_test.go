package amm

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	"github.com/stretchr/testify/assert"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fakeLedger struct {
	balances map[ledgerStore.BalanceKey]numbers.Uint256
	pool     ledgerStore.PoolState
	readErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[ledgerStore.BalanceKey]numbers.Uint256)}
}

func (f *fakeLedger) GetBalance(kind ledgerStore.BalanceKind, address types.Address) (numbers.Uint256, bool, error) {
	if f.readErr != nil {
		return numbers.Zero(), false, f.readErr
	}
	v, ok := f.balances[ledgerStore.BalanceKey{Kind: kind, Address: address}]
	return v, ok, nil
}

func (f *fakeLedger) GetPool() ledgerStore.PoolState {
	return f.pool
}

func (f *fakeLedger) set(kind ledgerStore.BalanceKind, address types.Address, v uint64) {
	f.balances[ledgerStore.BalanceKey{Kind: kind, Address: address}] = numbers.NewUint256(v)
}

func (f *fakeLedger) get(kind ledgerStore.BalanceKind, address types.Address) uint64 {
	return f.balances[ledgerStore.BalanceKey{Kind: kind, Address: address}].Uint64()
}

func (f *fakeLedger) commit(tr *Transition) {
	for _, w := range tr.Balances {
		f.balances[w.Key] = w.Value
	}
	f.pool = tr.Pool
}

// run applies the command and commits it when it succeeds.
func (f *fakeLedger) run(kind types.MethodKind, sender types.Address, amount uint64) (*Transition, error) {
	tr, err := Apply(f, types.NewContractMethod(kind, sender, numbers.NewUint256(amount)))
	if err == nil {
		f.commit(tr)
	}
	return tr, err
}

func seededPool() *fakeLedger {
	f := newFakeLedger()
	f.pool = ledgerStore.PoolState{
		EthReserve:     numbers.NewUint256(1_000_000),
		TokenReserve:   numbers.NewUint256(1_000_000_000),
		TotalLiquidity: numbers.NewUint256(31_621_000),
	}
	return f
}

func assertContractError(t *testing.T, err error, kind types.ContractErrorKind, message string) {
	ce, ok := types.IsContractError(err)
	if !assert.True(t, ok, "expected a contract error, got %v", err) {
		return
	}
	assert.Equal(t, kind, ce.Kind)
	assert.Equal(t, message, ce.Message)
}

func Test_Deposits(t *testing.T) {
	t.Run("Should sum deposits per account", func(t *testing.T) {
		f := newFakeLedger()
		for _, amount := range []uint64{100, 250, 1} {
			tr, err := f.run(types.MethodKind_DepositToken, alice, amount)
			assert.Nil(t, err)
			assert.Equal(t, types.EventKind_DepositedToken, tr.Event.Kind)
		}
		_, err := f.run(types.MethodKind_DepositETH, alice, 7)
		assert.Nil(t, err)

		assert.Equal(t, uint64(351), f.get(ledgerStore.BalanceKind_Token, alice))
		assert.Equal(t, uint64(7), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Token, bob))
	})
	t.Run("Should reject a deposit that overflows", func(t *testing.T) {
		f := newFakeLedger()
		f.balances[ledgerStore.BalanceKey{Kind: ledgerStore.BalanceKind_Eth, Address: alice}] = numbers.MaxUint256()

		_, err := f.run(types.MethodKind_DepositETH, alice, 1)
		assertContractError(t, err, types.ContractError_Arithmetic, numbers.ErrOverflow.Error())
		assert.True(t, errors.Is(err, numbers.ErrOverflow))
		assert.Equal(t, numbers.MaxUint256(), f.balances[ledgerStore.BalanceKey{Kind: ledgerStore.BalanceKind_Eth, Address: alice}])
	})
}

func Test_Withdrawals(t *testing.T) {
	t.Run("Should fail when the account was never seen", func(t *testing.T) {
		f := newFakeLedger()
		_, err := f.run(types.MethodKind_WithdrawToken, alice, 10)
		assertContractError(t, err, types.ContractError_UserNotFound, "User not found")

		_, err = f.run(types.MethodKind_WithdrawETH, alice, 10)
		assertContractError(t, err, types.ContractError_UserNotFound, "User not found")
	})
	t.Run("Should fail when the balance is empty", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Eth, alice, 0)
		_, err := f.run(types.MethodKind_WithdrawETH, alice, 10)
		assertContractError(t, err, types.ContractError_NothingToWithdraw, "Nothing to withdraw")
	})
	t.Run("Should cap the withdrawal at the balance", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Token, alice, 40)

		tr, err := f.run(types.MethodKind_WithdrawToken, alice, 100)
		assert.Nil(t, err)
		assert.Equal(t, types.EventKind_WithdrawToken, tr.Event.Kind)
		assert.Equal(t, uint64(40), tr.Event.Amount.Uint64())
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Token, alice))

		_, err = f.run(types.MethodKind_WithdrawToken, alice, 1)
		assertContractError(t, err, types.ContractError_NothingToWithdraw, "Nothing to withdraw")
	})
	t.Run("Should withdraw part of the balance", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Eth, alice, 40)

		_, err := f.run(types.MethodKind_WithdrawETH, alice, 15)
		assert.Nil(t, err)
		assert.Equal(t, uint64(25), f.get(ledgerStore.BalanceKind_Eth, alice))
	})
}

func Test_Swaps(t *testing.T) {
	t.Run("Should use the initial ratio while the pool has no ether", func(t *testing.T) {
		assert.Equal(t, InitialRatio, Ratio(ledgerStore.PoolState{}))
		assert.Equal(t, uint64(997), Ratio(ledgerStore.PoolState{
			TokenReserve: numbers.NewUint256(999_000_000),
			EthReserve:   numbers.NewUint256(1_001_003),
		}).Uint64())
	})
	t.Run("Should reject a swap larger than the token reserve", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Eth, alice, 10_000_000)
		_, err := f.run(types.MethodKind_SwapToToken, alice, 1_000_000_001)
		assertContractError(t, err, types.ContractError_NotEnoughTokenLiquidity, "Not enough token liquidity")
	})
	t.Run("Should reject a swap the user cannot pay for", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Eth, alice, 1002)
		_, err := f.run(types.MethodKind_SwapToToken, alice, 1_000_000)
		assertContractError(t, err, types.ContractError_NotEnoughEthOnUserAccount, "Not enough eth on user account")
		assert.Equal(t, uint64(1002), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(1_000_000_000), f.pool.TokenReserve.Uint64())
	})
	t.Run("Should reject a swap larger than the ether reserve", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Token, alice, 1_000_000_000_000)
		_, err := f.run(types.MethodKind_SwapToETH, alice, 1_000_001)
		assertContractError(t, err, types.ContractError_NotEnoughEthLiquidity, "Not enough eth liquidity")
	})
	t.Run("Should reject a swap to ether the user cannot pay for", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Token, alice, 100)
		_, err := f.run(types.MethodKind_SwapToETH, alice, 1)
		assertContractError(t, err, types.ContractError_NotEnoughTokenOnUserAccount, "Not enough token on user account")
	})
	t.Run("Should charge the fee on a round trip and keep the pool product", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Eth, alice, 10_000)
		productBefore, _ := f.pool.TokenReserve.Mul(f.pool.EthReserve)

		tr, err := f.run(types.MethodKind_SwapToToken, alice, 1_000_000)
		assert.Nil(t, err)
		assert.Equal(t, types.EventKind_SwapToToken, tr.Event.Kind)
		assert.Equal(t, uint64(8_997), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(1_000_000), f.get(ledgerStore.BalanceKind_Token, alice))
		assert.Equal(t, uint64(999_000_000), f.pool.TokenReserve.Uint64())
		assert.Equal(t, uint64(1_001_003), f.pool.EthReserve.Uint64())

		productMid, _ := f.pool.TokenReserve.Mul(f.pool.EthReserve)
		assert.True(t, productMid.Gte(productBefore))

		tr, err = f.run(types.MethodKind_SwapToETH, alice, 1_000)
		assert.Nil(t, err)
		assert.Equal(t, types.EventKind_SwapToETH, tr.Event.Kind)
		assert.Equal(t, uint64(9_997), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Token, alice))

		productAfter, _ := f.pool.TokenReserve.Mul(f.pool.EthReserve)
		assert.True(t, productAfter.Gte(productMid))
		assert.Equal(t, uint64(31_621_000), f.pool.TotalLiquidity.Uint64())
	})
	t.Run("Should turn a zero ratio into a divide by zero contract error", func(t *testing.T) {
		f := newFakeLedger()
		f.pool = ledgerStore.PoolState{
			EthReserve:     numbers.NewUint256(10),
			TokenReserve:   numbers.NewUint256(5),
			TotalLiquidity: numbers.NewUint256(1),
		}
		f.set(ledgerStore.BalanceKind_Eth, alice, 100)
		_, err := f.run(types.MethodKind_SwapToToken, alice, 1)
		assert.True(t, errors.Is(err, numbers.ErrDivideByZero))
		_, ok := types.IsContractError(err)
		assert.True(t, ok)

		f.set(ledgerStore.BalanceKind_Token, alice, 100)
		_, err = f.run(types.MethodKind_SwapToETH, alice, 1)
		assert.True(t, errors.Is(err, numbers.ErrDivideByZero))
		assert.Equal(t, uint64(100), f.get(ledgerStore.BalanceKind_Token, alice))
		assert.Equal(t, uint64(10), f.pool.EthReserve.Uint64())
	})
	t.Run("Should reject a swap whose cost rounds to zero", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Eth, alice, 100)
		_, err := f.run(types.MethodKind_SwapToToken, alice, 999)
		assert.True(t, errors.Is(err, ErrZeroSwapCost))
		_, ok := types.IsContractError(err)
		assert.True(t, ok)
		assert.Equal(t, uint64(100), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(1_000_000_000), f.pool.TokenReserve.Uint64())
	})
	t.Run("Should keep reserves and supply consistent when a side is drained", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Eth, alice, 1_000_000)
		f.set(ledgerStore.BalanceKind_Token, alice, 1_000_000_000)
		_, err := f.run(types.MethodKind_AddLiquidity, alice, 1_000_000)
		assert.Nil(t, err)
		assertPoolConsistent(t, f.pool)

		f.set(ledgerStore.BalanceKind_Eth, bob, 10_000_000)
		f.set(ledgerStore.BalanceKind_Token, bob, 1_000_000_000)
		_, err = f.run(types.MethodKind_SwapToToken, bob, 1_000_000_000)
		assert.Nil(t, err)
		assert.True(t, f.pool.TokenReserve.IsZero())
		assert.Equal(t, uint64(2_003_009), f.pool.EthReserve.Uint64())
		assert.Equal(t, uint64(8_996_991), f.get(ledgerStore.BalanceKind_Eth, bob))
		assertPoolConsistent(t, f.pool)

		_, err = f.run(types.MethodKind_SwapToETH, bob, 2_003_009)
		assert.True(t, errors.Is(err, numbers.ErrDivideByZero))
		assert.Equal(t, uint64(8_996_991), f.get(ledgerStore.BalanceKind_Eth, bob))
		assert.Equal(t, uint64(2_000_000_000), f.get(ledgerStore.BalanceKind_Token, bob))
		assert.Equal(t, uint64(2_003_009), f.pool.EthReserve.Uint64())

		_, err = f.run(types.MethodKind_SwapToToken, bob, 1)
		assertContractError(t, err, types.ContractError_NotEnoughTokenLiquidity, "Not enough token liquidity")
		assertPoolConsistent(t, f.pool)
	})
}

func assertPoolConsistent(t *testing.T, pool ledgerStore.PoolState) {
	emptyReserves := pool.EthReserve.IsZero() && pool.TokenReserve.IsZero()
	assert.Equal(t, pool.TotalLiquidity.IsZero(), emptyReserves,
		"eth=%s token=%s liquidity=%s", pool.EthReserve, pool.TokenReserve, pool.TotalLiquidity)
}

func Test_Liquidity(t *testing.T) {
	t.Run("Should reject a first deposit below the minimal liquidity", func(t *testing.T) {
		_, err := InitialShares(numbers.NewUint256(4), numbers.NewUint256(9000))
		assertContractError(t, err, types.ContractError_NotEnoughLiquidity, "Not enough liquidity")

		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Eth, alice, 4)
		f.set(ledgerStore.BalanceKind_Token, alice, 9000)
		_, err = f.run(types.MethodKind_AddLiquidity, alice, 4)
		assertContractError(t, err, types.ContractError_NotEnoughLiquidity, "Not enough liquidity")
		assert.True(t, f.pool.TotalLiquidity.IsZero())
	})
	t.Run("Should mint initial and proportional shares", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Eth, alice, 1_000_000)
		f.set(ledgerStore.BalanceKind_Token, alice, 1_000_000_000)

		tr, err := f.run(types.MethodKind_AddLiquidity, alice, 1_000_000)
		assert.Nil(t, err)
		assert.Equal(t, types.EventKind_AddLiquidity, tr.Event.Kind)
		assert.Equal(t, uint64(31_621_000), f.get(ledgerStore.BalanceKind_Liquidity, alice))
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Token, alice))
		assert.Equal(t, uint64(1_000_000), f.pool.EthReserve.Uint64())
		assert.Equal(t, uint64(1_000_000_000), f.pool.TokenReserve.Uint64())
		assert.Equal(t, uint64(31_621_000), f.pool.TotalLiquidity.Uint64())

		f.set(ledgerStore.BalanceKind_Eth, bob, 1000)
		f.set(ledgerStore.BalanceKind_Token, bob, 2_000_000)
		_, err = f.run(types.MethodKind_AddLiquidity, bob, 1000)
		assert.Nil(t, err)
		assert.Equal(t, uint64(31_621), f.get(ledgerStore.BalanceKind_Liquidity, bob))
		assert.Equal(t, uint64(1_000_000), f.get(ledgerStore.BalanceKind_Token, bob))
		assert.Equal(t, uint64(31_652_621), f.pool.TotalLiquidity.Uint64())
	})
	t.Run("Should scale the ether side down when tokens are short", func(t *testing.T) {
		f := seededPool()
		f.set(ledgerStore.BalanceKind_Eth, alice, 1000)
		f.set(ledgerStore.BalanceKind_Token, alice, 500_000)

		_, err := f.run(types.MethodKind_AddLiquidity, alice, 1000)
		assert.Nil(t, err)
		assert.Equal(t, uint64(500), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Token, alice))
		assert.Equal(t, uint64(15_810), f.get(ledgerStore.BalanceKind_Liquidity, alice))
		assert.Equal(t, uint64(1_000_500), f.pool.EthReserve.Uint64())
	})
	t.Run("Should reject adding liquidity that mints no shares", func(t *testing.T) {
		f := seededPool()
		_, err := f.run(types.MethodKind_AddLiquidity, alice, 1000)
		assertContractError(t, err, types.ContractError_NotEnoughLiquidity, "Not enough liquidity")
	})
	t.Run("Should pay out reserves in proportion to burned shares", func(t *testing.T) {
		f := newFakeLedger()
		f.pool = ledgerStore.PoolState{
			EthReserve:     numbers.NewUint256(50),
			TokenReserve:   numbers.NewUint256(2000),
			TotalLiquidity: numbers.NewUint256(100),
		}
		f.set(ledgerStore.BalanceKind_Liquidity, alice, 20)

		tr, err := f.run(types.MethodKind_RemoveLiquidity, alice, 20)
		assert.Nil(t, err)
		assert.Equal(t, types.EventKind_RemoveLiquidity, tr.Event.Kind)
		assert.Equal(t, uint64(10), f.get(ledgerStore.BalanceKind_Eth, alice))
		assert.Equal(t, uint64(400), f.get(ledgerStore.BalanceKind_Token, alice))
		assert.Equal(t, uint64(0), f.get(ledgerStore.BalanceKind_Liquidity, alice))
		assert.Equal(t, uint64(40), f.pool.EthReserve.Uint64())
		assert.Equal(t, uint64(1600), f.pool.TokenReserve.Uint64())
		assert.Equal(t, uint64(80), f.pool.TotalLiquidity.Uint64())
	})
	t.Run("Should empty the pool when the last shares are burned", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Eth, alice, 1_000_000)
		f.set(ledgerStore.BalanceKind_Token, alice, 1_000_000_000)
		_, err := f.run(types.MethodKind_AddLiquidity, alice, 1_000_000)
		assert.Nil(t, err)

		_, err = f.run(types.MethodKind_RemoveLiquidity, alice, 1_000_000_000)
		assert.Nil(t, err)
		assert.True(t, f.pool.TotalLiquidity.IsZero())
		assert.True(t, f.pool.EthReserve.IsZero())
		assert.True(t, f.pool.TokenReserve.IsZero())
		assert.Equal(t, uint64(1_000_000), f.get(ledgerStore.BalanceKind_Eth, alice))
	})
	t.Run("Should reject removing from an empty pool", func(t *testing.T) {
		f := newFakeLedger()
		f.set(ledgerStore.BalanceKind_Liquidity, alice, 20)
		_, err := f.run(types.MethodKind_RemoveLiquidity, alice, 20)
		assertContractError(t, err, types.ContractError_NotEnoughLiquidityInPool, "Not enough liquidity in pool")
	})
	t.Run("Should reject removing without shares", func(t *testing.T) {
		f := seededPool()
		_, err := f.run(types.MethodKind_RemoveLiquidity, bob, 20)
		assertContractError(t, err, types.ContractError_NothingToWithdraw, "Nothing to withdraw")
	})
}

func Test_Apply(t *testing.T) {
	t.Run("Should propagate ledger read failures as hard errors", func(t *testing.T) {
		f := newFakeLedger()
		f.readErr = errors.New("disk on fire")
		_, err := Apply(f, types.NewContractMethod(types.MethodKind_DepositETH, alice, numbers.NewUint256(1)))
		assert.NotNil(t, err)
		_, ok := types.IsContractError(err)
		assert.False(t, ok)
	})
	t.Run("Should reject an unknown method kind", func(t *testing.T) {
		_, err := Apply(newFakeLedger(), types.NewContractMethod(types.MethodKind(42), alice, numbers.NewUint256(1)))
		assert.NotNil(t, err)
	})
}
