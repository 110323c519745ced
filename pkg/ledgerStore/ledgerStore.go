package ledgerStore

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

var (
	// ErrStalePoolState is returned by CommitBlock when another writer advanced the ledger first.
	ErrStalePoolState = errors.New("pool state changed since block processing started")
	ErrNotFound       = errors.New("not found")
)

type BalanceKind string

const (
	BalanceKind_Token     BalanceKind = "token"
	BalanceKind_Eth       BalanceKind = "eth"
	BalanceKind_Liquidity BalanceKind = "liquidity"
)

var BalanceKinds = []BalanceKind{BalanceKind_Token, BalanceKind_Eth, BalanceKind_Liquidity}

// PoolState holds the scalars of the ledger.
type PoolState struct {
	TokenReserve    numbers.Uint256
	EthReserve      numbers.Uint256
	TotalLiquidity  numbers.Uint256
	LastSyncedBlock uint32
}

type BalanceKey struct {
	Kind    BalanceKind
	Address types.Address
}

// SlotID is the stable textual key of a balance, used for ordering and state roots.
func (k BalanceKey) SlotID() string {
	return string(k.Kind) + "_" + types.FormatAddress(k.Address)
}

type Balance struct {
	Kind        BalanceKind     `csv:"kind" json:"kind"`
	Address     string          `csv:"address" json:"address"`
	Balance     numbers.Uint256 `csv:"balance" json:"balance"`
	BlockNumber uint32          `csv:"block_number" json:"blockNumber"`
}

type StateRoot struct {
	BlockNumber uint32 `json:"blockNumber"`
	StateRoot   string `json:"stateRoot"`
}

// Changeset is everything a block writes. It is applied atomically or not at all.
type Changeset struct {
	BlockNumber uint32
	// PreviousBlock is the last synced block the changeset was computed against.
	PreviousBlock uint32
	Balances      map[BalanceKey]numbers.Uint256
	Pool          PoolState
	StateRoot     string
	Events        []*types.Event
}

// SortedBalanceKeys orders the changed balances by slot id.
func (c *Changeset) SortedBalanceKeys() []BalanceKey {
	keys := make([]BalanceKey, 0, len(c.Balances))
	for k := range c.Balances {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b BalanceKey) int {
		return strings.Compare(a.SlotID(), b.SlotID())
	})
	return keys
}

type LedgerStore interface {
	// GetBalance returns found=false when the account has never been written for the kind.
	GetBalance(ctx context.Context, kind BalanceKind, address types.Address) (numbers.Uint256, bool, error)
	GetPoolState(ctx context.Context) (*PoolState, error)
	CommitBlock(ctx context.Context, changeset *Changeset) error

	GetStateRootForBlock(ctx context.Context, blockNumber uint32) (*StateRoot, error)
	ListEventsForBlock(ctx context.Context, blockNumber uint32) ([]*types.Event, error)
	ListBalances(ctx context.Context, kind BalanceKind) ([]*Balance, error)
}
