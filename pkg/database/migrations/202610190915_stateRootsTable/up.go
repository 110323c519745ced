package _202610190915_stateRootsTable

import (
	"database/sql"

	"github.com/polkaswap/bridge-sidecar/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`create table if not exists state_roots (
			block_number bigint not null primary key,
			state_root varchar not null,
			created_at timestamp with time zone default current_timestamp
		)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202610190915_stateRootsTable"
}
