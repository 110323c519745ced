package _202610190900_bootstrapLedger

import (
	"database/sql"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`create table if not exists account_balances (
			kind varchar not null,
			address varchar not null,
			balance varchar not null,
			block_number bigint not null,
			primary key (kind, address)
		)`,
		`create table if not exists pool_state (
			id integer primary key,
			token_reserve varchar not null,
			eth_reserve varchar not null,
			total_liquidity varchar not null,
			last_synced_block bigint not null,
			updated_at timestamp with time zone default current_timestamp
		)`,
		`insert into pool_state (id, token_reserve, eth_reserve, total_liquidity, last_synced_block)
			values (1, '0', '0', '0', 0)
			on conflict do nothing`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610190900_bootstrapLedger"
}
