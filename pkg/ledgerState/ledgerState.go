package ledgerState

import (
	"context"
	"sync"

	"github.com/polkaswap/bridge-sidecar/pkg/amm"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	"go.uber.org/zap"
)

type SyncResult struct {
	BlockNumber uint32
	Events      []*types.Event
	StateRoot   string
	// Applied and Rejected count the commands of the block by outcome.
	Applied  int
	Rejected map[types.ContractErrorKind]int
}

// LedgerStateManager is the block sync state machine. It is the only writer of the ledger store.
type LedgerStateManager struct {
	logger *zap.Logger
	store  ledgerStore.LedgerStore

	// one block at a time
	mu sync.Mutex
}

func NewLedgerStateManager(store ledgerStore.LedgerStore, l *zap.Logger) *LedgerStateManager {
	return &LedgerStateManager{
		logger: l,
		store:  store,
	}
}

func (m *LedgerStateManager) LastSyncedBlock(ctx context.Context) (uint32, error) {
	pool, err := m.store.GetPoolState(ctx)
	if err != nil {
		return 0, err
	}
	return pool.LastSyncedBlock, nil
}

func (m *LedgerStateManager) GetStateRootForBlock(ctx context.Context, blockNumber uint32) (*ledgerStore.StateRoot, error) {
	return m.store.GetStateRootForBlock(ctx, blockNumber)
}

// CanSync reports whether a block may follow the last synced one.
// Nothing synced yet (0) accepts any block.
func CanSync(lastSyncedBlock uint32, blockNumber uint32) bool {
	return lastSyncedBlock == 0 || uint64(blockNumber) == uint64(lastSyncedBlock)+1
}

// SyncBlock applies every command of the block in order and commits the result atomically.
//
// A block out of sequence fails with *types.AlreadySyncedError and the ledger is untouched.
// A command rejected by the exchange becomes a ContractError event and the block continues.
// Any other error aborts the block before anything is written.
func (m *LedgerStateManager) SyncBlock(ctx context.Context, block *types.BlockEvents) (*SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, err := m.store.GetPoolState(ctx)
	if err != nil {
		m.logger.Sugar().Errorw("Failed to read pool state", zap.Error(err))
		return nil, err
	}
	if !CanSync(pool.LastSyncedBlock, block.BlockNumber) {
		return nil, &types.AlreadySyncedError{
			LastSyncedBlock: pool.LastSyncedBlock,
			BlockNumber:     block.BlockNumber,
		}
	}

	overlay := newBlockOverlay(ctx, m.store, *pool)
	result := &SyncResult{
		BlockNumber: block.BlockNumber,
		Events:      make([]*types.Event, 0, len(block.Methods)+1),
		Rejected:    make(map[types.ContractErrorKind]int),
	}

	for i, method := range block.Methods {
		transition, err := amm.Apply(overlay, method)
		if err != nil {
			contractErr, ok := types.IsContractError(err)
			if !ok {
				m.logger.Sugar().Errorw("Failed to apply command",
					zap.Uint32("blockNumber", block.BlockNumber),
					zap.Int("index", i),
					zap.String("method", method.Kind.String()),
					zap.Error(err),
				)
				return nil, err
			}
			m.logger.Sugar().Warnw("Command rejected",
				zap.Uint32("blockNumber", block.BlockNumber),
				zap.Int("index", i),
				zap.String("method", method.Kind.String()),
				zap.String("sender", types.FormatAddress(method.Sender)),
				zap.String("kind", string(contractErr.Kind)),
				zap.String("error", contractErr.Message),
			)
			result.Events = append(result.Events, types.NewContractErrorEvent(method, contractErr))
			result.Rejected[contractErr.Kind]++
			continue
		}
		overlay.apply(transition)
		result.Events = append(result.Events, transition.Event)
		result.Applied++
	}

	overlay.pool.LastSyncedBlock = block.BlockNumber
	result.Events = append(result.Events, types.NewBlockSyncedEvent(block.BlockNumber))
	for i, e := range result.Events {
		e.BlockNumber = block.BlockNumber
		e.Index = i
	}

	changeset := &ledgerStore.Changeset{
		BlockNumber:   block.BlockNumber,
		PreviousBlock: pool.LastSyncedBlock,
		Balances:      overlay.balances,
		Pool:          overlay.pool,
		Events:        result.Events,
	}
	root, err := GenerateStateRoot(changeset)
	if err != nil {
		m.logger.Sugar().Errorw("Failed to generate state root",
			zap.Uint32("blockNumber", block.BlockNumber),
			zap.Error(err),
		)
		return nil, err
	}
	changeset.StateRoot = root
	result.StateRoot = root

	if err := m.store.CommitBlock(ctx, changeset); err != nil {
		return nil, err
	}

	m.logger.Sugar().Debugw("Synced block",
		zap.Uint32("blockNumber", block.BlockNumber),
		zap.Int("commands", len(block.Methods)),
		zap.Int("applied", result.Applied),
		zap.String("stateRoot", root),
	)
	return result, nil
}

// blockOverlay holds the writes of the block being processed on top of the committed store.
type blockOverlay struct {
	ctx      context.Context
	store    ledgerStore.LedgerStore
	pool     ledgerStore.PoolState
	balances map[ledgerStore.BalanceKey]numbers.Uint256
}

func newBlockOverlay(ctx context.Context, store ledgerStore.LedgerStore, pool ledgerStore.PoolState) *blockOverlay {
	return &blockOverlay{
		ctx:      ctx,
		store:    store,
		pool:     pool,
		balances: make(map[ledgerStore.BalanceKey]numbers.Uint256),
	}
}

func (o *blockOverlay) GetBalance(kind ledgerStore.BalanceKind, address types.Address) (numbers.Uint256, bool, error) {
	if v, ok := o.balances[ledgerStore.BalanceKey{Kind: kind, Address: address}]; ok {
		return v, true, nil
	}
	return o.store.GetBalance(o.ctx, kind, address)
}

func (o *blockOverlay) GetPool() ledgerStore.PoolState {
	return o.pool
}

func (o *blockOverlay) apply(t *amm.Transition) {
	for _, w := range t.Balances {
		o.balances[w.Key] = w.Value
	}
	o.pool = t.Pool
}
