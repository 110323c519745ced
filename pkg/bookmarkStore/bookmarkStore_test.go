package bookmarkStore

import (
	"testing"

	"github.com/polkaswap/bridge-sidecar/internal/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BookmarkStore(t *testing.T) {
	cfg := tests.GetConfig()
	l := tests.GetLogger(cfg)

	t.Run("Should report a missing bookmark", func(t *testing.T) {
		s, err := NewInMemoryBookmarkStore(l)
		require.Nil(t, err)
		defer s.Close()

		_, found, err := s.Get()
		assert.Nil(t, err)
		assert.False(t, found)
	})
	t.Run("Should overwrite the bookmark", func(t *testing.T) {
		s, err := NewInMemoryBookmarkStore(l)
		require.Nil(t, err)
		defer s.Close()

		assert.Nil(t, s.Set(41))
		assert.Nil(t, s.Set(42))
		n, found, err := s.Get()
		assert.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, uint32(42), n)
	})
	t.Run("Should persist across reopen", func(t *testing.T) {
		path := t.TempDir()

		s, err := NewBookmarkStore(path, l)
		require.Nil(t, err)
		assert.Nil(t, s.Set(^uint32(0)))
		assert.Nil(t, s.Close())

		s, err = NewBookmarkStore(path, l)
		require.Nil(t, err)
		defer s.Close()
		n, found, err := s.Get()
		assert.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, ^uint32(0), n)
	})
}
