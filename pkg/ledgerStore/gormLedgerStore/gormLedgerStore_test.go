package gormLedgerStore

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polkaswap/bridge-sidecar/internal/config"
	"github.com/polkaswap/bridge-sidecar/internal/tests"
	"github.com/polkaswap/bridge-sidecar/internal/tests/sqlite"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func setup() (*config.Config, *gorm.DB, *zap.Logger, error) {
	cfg := tests.GetConfig()
	l := tests.GetLogger(cfg)

	grm, err := sqlite.GetInMemorySqliteDatabaseConnection(cfg, l)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, grm, l, nil
}

func firstBlockChangeset() *ledgerStore.Changeset {
	return &ledgerStore.Changeset{
		BlockNumber:   1,
		PreviousBlock: 0,
		Balances: map[ledgerStore.BalanceKey]numbers.Uint256{
			{Kind: ledgerStore.BalanceKind_Eth, Address: alice}:   numbers.NewUint256(500),
			{Kind: ledgerStore.BalanceKind_Token, Address: alice}: numbers.MustUint256FromDecimal("1000000000000000000000000"),
			{Kind: ledgerStore.BalanceKind_Eth, Address: bob}:     numbers.Zero(),
		},
		Pool: ledgerStore.PoolState{
			TokenReserve:    numbers.NewUint256(9000),
			EthReserve:      numbers.NewUint256(9),
			TotalLiquidity:  numbers.NewUint256(1),
			LastSyncedBlock: 1,
		},
		StateRoot: "0xabc",
		Events: []*types.Event{
			types.NewMethodEvent(types.EventKind_DepositedETH, types.MethodKind_DepositETH, alice, numbers.NewUint256(500)),
			types.NewContractErrorEvent(
				types.NewContractMethod(types.MethodKind_WithdrawETH, bob, numbers.NewUint256(1)),
				types.NewContractError(types.ContractError_NothingToWithdraw),
			),
			types.NewBlockSyncedEvent(1),
		},
	}
}

func Test_GormLedgerStore(t *testing.T) {
	_, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}
	defer sqlite.Teardown(grm)

	store := NewGormLedgerStore(grm, l)
	ctx := context.Background()

	t.Run("Should start with an empty pool", func(t *testing.T) {
		pool, err := store.GetPoolState(ctx)
		assert.Nil(t, err)
		assert.True(t, pool.TokenReserve.IsZero())
		assert.True(t, pool.EthReserve.IsZero())
		assert.True(t, pool.TotalLiquidity.IsZero())
		assert.Equal(t, uint32(0), pool.LastSyncedBlock)
	})
	t.Run("Should report absent balances as not found", func(t *testing.T) {
		v, found, err := store.GetBalance(ctx, ledgerStore.BalanceKind_Eth, alice)
		assert.Nil(t, err)
		assert.False(t, found)
		assert.True(t, v.IsZero())
	})
	t.Run("Should commit a block atomically", func(t *testing.T) {
		err := store.CommitBlock(ctx, firstBlockChangeset())
		assert.Nil(t, err)

		v, found, err := store.GetBalance(ctx, ledgerStore.BalanceKind_Token, alice)
		assert.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, "1000000000000000000000000", v.String())

		v, found, err = store.GetBalance(ctx, ledgerStore.BalanceKind_Eth, bob)
		assert.Nil(t, err)
		assert.True(t, found)
		assert.True(t, v.IsZero())

		pool, err := store.GetPoolState(ctx)
		assert.Nil(t, err)
		assert.Equal(t, uint32(1), pool.LastSyncedBlock)
		assert.Equal(t, uint64(9000), pool.TokenReserve.Uint64())

		root, err := store.GetStateRootForBlock(ctx, 1)
		assert.Nil(t, err)
		assert.Equal(t, "0xabc", root.StateRoot)

		events, err := store.ListEventsForBlock(ctx, 1)
		assert.Nil(t, err)
		assert.Len(t, events, 3)
		assert.Equal(t, types.EventKind_DepositedETH, events[0].Kind)
		assert.Equal(t, alice, events[0].Address)
		assert.Equal(t, types.EventKind_ContractError, events[1].Kind)
		assert.Equal(t, "Nothing to withdraw", events[1].Error)
		assert.Equal(t, types.EventKind_EthBlockSynced, events[2].Kind)
		assert.Equal(t, 2, events[2].Index)
	})
	t.Run("Should reject a changeset computed against a stale pool state", func(t *testing.T) {
		stale := &ledgerStore.Changeset{
			BlockNumber:   2,
			PreviousBlock: 0,
			Balances: map[ledgerStore.BalanceKey]numbers.Uint256{
				{Kind: ledgerStore.BalanceKind_Liquidity, Address: bob}: numbers.NewUint256(77),
			},
			Pool:      ledgerStore.PoolState{LastSyncedBlock: 2},
			StateRoot: "0xdef",
		}
		err := store.CommitBlock(ctx, stale)
		assert.ErrorIs(t, err, ledgerStore.ErrStalePoolState)

		_, found, err := store.GetBalance(ctx, ledgerStore.BalanceKind_Liquidity, bob)
		assert.Nil(t, err)
		assert.False(t, found)

		_, err = store.GetStateRootForBlock(ctx, 2)
		assert.ErrorIs(t, err, ledgerStore.ErrNotFound)
	})
	t.Run("Should overwrite existing balances on the next block", func(t *testing.T) {
		next := &ledgerStore.Changeset{
			BlockNumber:   2,
			PreviousBlock: 1,
			Balances: map[ledgerStore.BalanceKey]numbers.Uint256{
				{Kind: ledgerStore.BalanceKind_Eth, Address: alice}: numbers.NewUint256(250),
			},
			Pool: ledgerStore.PoolState{
				TokenReserve:    numbers.NewUint256(9000),
				EthReserve:      numbers.NewUint256(9),
				TotalLiquidity:  numbers.NewUint256(1),
				LastSyncedBlock: 2,
			},
			StateRoot: "0xdef",
		}
		assert.Nil(t, store.CommitBlock(ctx, next))

		v, _, err := store.GetBalance(ctx, ledgerStore.BalanceKind_Eth, alice)
		assert.Nil(t, err)
		assert.Equal(t, uint64(250), v.Uint64())

		balances, err := store.ListBalances(ctx, ledgerStore.BalanceKind_Eth)
		assert.Nil(t, err)
		assert.Len(t, balances, 2)
		assert.Equal(t, types.FormatAddress(bob), balances[0].Address)
		assert.Equal(t, types.FormatAddress(alice), balances[1].Address)
		assert.Equal(t, uint32(2), balances[1].BlockNumber)
	})
}
