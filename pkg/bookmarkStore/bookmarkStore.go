// Package bookmarkStore records the last block observed on the external chain.
// It is scratch state: the ledger store's last synced block stays authoritative.
package bookmarkStore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"go.uber.org/zap"
)

var lastFetchedBlockKey = []byte("bookmark/last_fetched_block")

type BookmarkStore struct {
	db     *leveldb.DB
	logger *zap.Logger
}

func NewBookmarkStore(path string, l *zap.Logger) (*BookmarkStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark store at '%s': %w", path, err)
	}
	return &BookmarkStore{db: db, logger: l}, nil
}

// NewInMemoryBookmarkStore is backed by memory only; used by tests and one-shot commands.
func NewInMemoryBookmarkStore(l *zap.Logger) (*BookmarkStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &BookmarkStore{db: db, logger: l}, nil
}

func (s *BookmarkStore) Get() (uint32, bool, error) {
	value, err := s.db.Get(lastFetchedBlockKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(value) != 4 {
		return 0, false, fmt.Errorf("corrupt bookmark of %d bytes", len(value))
	}
	return binary.BigEndian.Uint32(value), true, nil
}

func (s *BookmarkStore) Set(blockNumber uint32) error {
	value := binary.BigEndian.AppendUint32(nil, blockNumber)
	if err := s.db.Put(lastFetchedBlockKey, value, &opt.WriteOptions{Sync: false}); err != nil {
		s.logger.Sugar().Errorw("Failed to write bookmark",
			zap.Uint32("blockNumber", blockNumber),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *BookmarkStore) Close() error {
	return s.db.Close()
}
