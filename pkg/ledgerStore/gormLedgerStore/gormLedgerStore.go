package gormLedgerStore

import (
	"context"
	"errors"
	"time"

	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	pkgErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const poolStateId = 1

// insert batch size, well below the sqlite bound variable limit
const batchSize = 500

type AccountBalance struct {
	Kind        string `gorm:"primaryKey"`
	Address     string `gorm:"primaryKey"`
	Balance     numbers.Uint256
	BlockNumber uint32
}

func (AccountBalance) TableName() string {
	return "account_balances"
}

type PoolStateRecord struct {
	Id              int `gorm:"primaryKey"`
	TokenReserve    numbers.Uint256
	EthReserve      numbers.Uint256
	TotalLiquidity  numbers.Uint256
	LastSyncedBlock uint32
	UpdatedAt       time.Time
}

func (PoolStateRecord) TableName() string {
	return "pool_state"
}

type StateRoot struct {
	BlockNumber uint32 `gorm:"primaryKey;autoIncrement:false"`
	StateRoot   string
	CreatedAt   time.Time
}

type LedgerEvent struct {
	BlockNumber  uint32 `gorm:"primaryKey;autoIncrement:false"`
	EventIndex   int    `gorm:"primaryKey;autoIncrement:false"`
	Kind         string
	Method       string
	Address      string
	Amount       numbers.Uint256
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
}

// GormLedgerStore persists the ledger through gorm. Works with both the postgres and sqlite dialects.
type GormLedgerStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormLedgerStore(db *gorm.DB, l *zap.Logger) *GormLedgerStore {
	return &GormLedgerStore{
		db:     db,
		logger: l,
	}
}

func (s *GormLedgerStore) GetBalance(ctx context.Context, kind ledgerStore.BalanceKind, address types.Address) (numbers.Uint256, bool, error) {
	var rec AccountBalance
	res := s.db.WithContext(ctx).
		Where("kind = ? AND address = ?", string(kind), types.FormatAddress(address)).
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return numbers.Zero(), false, pkgErrors.Wrap(res.Error, "failed to read balance")
	}
	if res.RowsAffected == 0 {
		return numbers.Zero(), false, nil
	}
	return rec.Balance, true, nil
}

func (s *GormLedgerStore) GetPoolState(ctx context.Context) (*ledgerStore.PoolState, error) {
	var rec PoolStateRecord
	res := s.db.WithContext(ctx).Where("id = ?", poolStateId).First(&rec)
	if res.Error != nil {
		return nil, pkgErrors.Wrap(res.Error, "failed to read pool state")
	}
	return &ledgerStore.PoolState{
		TokenReserve:    rec.TokenReserve,
		EthReserve:      rec.EthReserve,
		TotalLiquidity:  rec.TotalLiquidity,
		LastSyncedBlock: rec.LastSyncedBlock,
	}, nil
}

func (s *GormLedgerStore) CommitBlock(ctx context.Context, changeset *ledgerStore.Changeset) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&PoolStateRecord{}).
			Where("id = ? AND last_synced_block = ?", poolStateId, changeset.PreviousBlock).
			Updates(map[string]interface{}{
				"token_reserve":     changeset.Pool.TokenReserve,
				"eth_reserve":       changeset.Pool.EthReserve,
				"total_liquidity":   changeset.Pool.TotalLiquidity,
				"last_synced_block": changeset.Pool.LastSyncedBlock,
				"updated_at":        time.Now(),
			})
		if res.Error != nil {
			return pkgErrors.Wrap(res.Error, "failed to update pool state")
		}
		if res.RowsAffected == 0 {
			return ledgerStore.ErrStalePoolState
		}

		if len(changeset.Balances) > 0 {
			balances := make([]*AccountBalance, 0, len(changeset.Balances))
			for _, k := range changeset.SortedBalanceKeys() {
				balances = append(balances, &AccountBalance{
					Kind:        string(k.Kind),
					Address:     types.FormatAddress(k.Address),
					Balance:     changeset.Balances[k],
					BlockNumber: changeset.BlockNumber,
				})
			}
			res = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "kind"}, {Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"balance", "block_number"}),
			}).CreateInBatches(balances, batchSize)
			if res.Error != nil {
				return pkgErrors.Wrap(res.Error, "failed to upsert balances")
			}
		}

		if changeset.StateRoot != "" {
			res = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "block_number"}},
				DoUpdates: clause.AssignmentColumns([]string{"state_root"}),
			}).Create(&StateRoot{
				BlockNumber: changeset.BlockNumber,
				StateRoot:   changeset.StateRoot,
			})
			if res.Error != nil {
				return pkgErrors.Wrap(res.Error, "failed to write state root")
			}
		}

		// bootstrap blocks may be synced more than once
		res = tx.Where("block_number = ?", changeset.BlockNumber).Delete(&LedgerEvent{})
		if res.Error != nil {
			return pkgErrors.Wrap(res.Error, "failed to clear events")
		}
		if len(changeset.Events) > 0 {
			events := make([]*LedgerEvent, 0, len(changeset.Events))
			for i, e := range changeset.Events {
				events = append(events, &LedgerEvent{
					BlockNumber:  changeset.BlockNumber,
					EventIndex:   i,
					Kind:         string(e.Kind),
					Method:       e.Method,
					Address:      types.FormatAddress(e.Address),
					Amount:       e.Amount,
					ErrorKind:    string(e.ErrorKind),
					ErrorMessage: e.Error,
				})
			}
			res = tx.CreateInBatches(events, batchSize)
			if res.Error != nil {
				return pkgErrors.Wrap(res.Error, "failed to write events")
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Sugar().Errorw("Failed to commit block",
			zap.Uint32("blockNumber", changeset.BlockNumber),
			zap.Error(err),
		)
		return err
	}
	s.logger.Sugar().Debugw("Committed block",
		zap.Uint32("blockNumber", changeset.BlockNumber),
		zap.Int("balances", len(changeset.Balances)),
		zap.Int("events", len(changeset.Events)),
	)
	return nil
}

func (s *GormLedgerStore) GetStateRootForBlock(ctx context.Context, blockNumber uint32) (*ledgerStore.StateRoot, error) {
	var root StateRoot
	res := s.db.WithContext(ctx).Where("block_number = ?", blockNumber).First(&root)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ledgerStore.ErrNotFound
		}
		return nil, res.Error
	}
	return &ledgerStore.StateRoot{
		BlockNumber: root.BlockNumber,
		StateRoot:   root.StateRoot,
	}, nil
}

func (s *GormLedgerStore) ListEventsForBlock(ctx context.Context, blockNumber uint32) ([]*types.Event, error) {
	records := make([]*LedgerEvent, 0)
	res := s.db.WithContext(ctx).
		Where("block_number = ?", blockNumber).
		Order("event_index asc").
		Find(&records)
	if res.Error != nil {
		return nil, res.Error
	}

	events := make([]*types.Event, 0, len(records))
	for _, r := range records {
		addr, err := types.ParseAddress(r.Address)
		if err != nil {
			return nil, err
		}
		events = append(events, &types.Event{
			Kind:        types.EventKind(r.Kind),
			BlockNumber: r.BlockNumber,
			Index:       r.EventIndex,
			Method:      r.Method,
			Address:     addr,
			Amount:      r.Amount,
			ErrorKind:   types.ContractErrorKind(r.ErrorKind),
			Error:       r.ErrorMessage,
		})
	}
	return events, nil
}

func (s *GormLedgerStore) ListBalances(ctx context.Context, kind ledgerStore.BalanceKind) ([]*ledgerStore.Balance, error) {
	records := make([]*AccountBalance, 0)
	res := s.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order("address asc").
		Find(&records)
	if res.Error != nil {
		return nil, res.Error
	}

	balances := make([]*ledgerStore.Balance, 0, len(records))
	for _, r := range records {
		balances = append(balances, &ledgerStore.Balance{
			Kind:        ledgerStore.BalanceKind(r.Kind),
			Address:     r.Address,
			Balance:     r.Balance,
			BlockNumber: r.BlockNumber,
		})
	}
	return balances, nil
}
