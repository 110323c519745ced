package memoryLedgerStore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	"go.uber.org/zap"
)

type balanceRecord struct {
	value       numbers.Uint256
	blockNumber uint32
}

// MemoryLedgerStore keeps the ledger in process memory. Used by tests and the replay command.
type MemoryLedgerStore struct {
	logger *zap.Logger

	mu         sync.RWMutex
	balances   map[ledgerStore.BalanceKey]balanceRecord
	pool       ledgerStore.PoolState
	stateRoots map[uint32]string
	events     map[uint32][]*types.Event
}

func NewMemoryLedgerStore(l *zap.Logger) *MemoryLedgerStore {
	return &MemoryLedgerStore{
		logger:     l,
		balances:   make(map[ledgerStore.BalanceKey]balanceRecord),
		stateRoots: make(map[uint32]string),
		events:     make(map[uint32][]*types.Event),
	}
}

func (s *MemoryLedgerStore) GetBalance(ctx context.Context, kind ledgerStore.BalanceKind, address types.Address) (numbers.Uint256, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.balances[ledgerStore.BalanceKey{Kind: kind, Address: address}]
	if !ok {
		return numbers.Zero(), false, nil
	}
	return rec.value, true, nil
}

func (s *MemoryLedgerStore) GetPoolState(ctx context.Context) (*ledgerStore.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool := s.pool
	return &pool, nil
}

func (s *MemoryLedgerStore) CommitBlock(ctx context.Context, changeset *ledgerStore.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool.LastSyncedBlock != changeset.PreviousBlock {
		return ledgerStore.ErrStalePoolState
	}

	for k, v := range changeset.Balances {
		s.balances[k] = balanceRecord{value: v, blockNumber: changeset.BlockNumber}
	}
	s.pool = changeset.Pool
	if changeset.StateRoot != "" {
		s.stateRoots[changeset.BlockNumber] = changeset.StateRoot
	}
	events := make([]*types.Event, len(changeset.Events))
	copy(events, changeset.Events)
	s.events[changeset.BlockNumber] = events

	s.logger.Sugar().Debugw("Committed block",
		zap.Uint32("blockNumber", changeset.BlockNumber),
		zap.Int("balances", len(changeset.Balances)),
		zap.Int("events", len(changeset.Events)),
	)
	return nil
}

func (s *MemoryLedgerStore) GetStateRootForBlock(ctx context.Context, blockNumber uint32) (*ledgerStore.StateRoot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.stateRoots[blockNumber]
	if !ok {
		return nil, ledgerStore.ErrNotFound
	}
	return &ledgerStore.StateRoot{BlockNumber: blockNumber, StateRoot: root}, nil
}

func (s *MemoryLedgerStore) ListEventsForBlock(ctx context.Context, blockNumber uint32) ([]*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*types.Event, len(s.events[blockNumber]))
	copy(events, s.events[blockNumber])
	return events, nil
}

func (s *MemoryLedgerStore) ListBalances(ctx context.Context, kind ledgerStore.BalanceKind) ([]*ledgerStore.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := make([]*ledgerStore.Balance, 0)
	for k, rec := range s.balances {
		if k.Kind != kind {
			continue
		}
		balances = append(balances, &ledgerStore.Balance{
			Kind:        k.Kind,
			Address:     types.FormatAddress(k.Address),
			Balance:     rec.value,
			BlockNumber: rec.blockNumber,
		})
	}
	slices.SortFunc(balances, func(a, b *ledgerStore.Balance) int {
		return strings.Compare(a.Address, b.Address)
	})
	return balances, nil
}
