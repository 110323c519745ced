package _202610190930_ledgerEvents

import (
	"database/sql"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`create table if not exists ledger_events (
			block_number bigint not null,
			event_index integer not null,
			kind varchar not null,
			method varchar not null default '',
			address varchar not null,
			amount varchar not null,
			error_kind varchar not null default '',
			error_message varchar not null default '',
			created_at timestamp with time zone default current_timestamp,
			primary key (block_number, event_index)
		)`,
		`create index if not exists idx_ledger_events_address on ledger_events (address)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610190930_ledgerEvents"
}
