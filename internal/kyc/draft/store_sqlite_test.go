package draft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SQLiteStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *SQLiteStore
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	s.ctx = context.Background()
	store, err := OpenSQLite(":memory:")
	require.NoError(s.T(), err)
	s.store = store
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *SQLiteStoreSuite) TestRoundTrip() {
	s.Run("missing key reports not found", func() {
		_, err := s.store.Get(s.ctx, Key("absent"))
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("set then get", func() {
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte(`{"a":1}`)))
		got, err := s.store.Get(s.ctx, Key("user-1"))
		s.NoError(err)
		s.Equal([]byte(`{"a":1}`), got)
	})

	s.Run("set overwrites", func() {
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte("v1")))
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte("v2")))
		got, err := s.store.Get(s.ctx, Key("user-1"))
		s.NoError(err)
		s.Equal([]byte("v2"), got)
	})

	s.Run("keys are isolated per user", func() {
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte("one")))
		s.Require().NoError(s.store.Set(s.ctx, Key("user-2"), []byte("two")))
		got, err := s.store.Get(s.ctx, Key("user-2"))
		s.NoError(err)
		s.Equal([]byte("two"), got)
	})

	s.Run("remove deletes and is idempotent", func() {
		s.Require().NoError(s.store.Set(s.ctx, Key("user-1"), []byte("v")))
		s.Require().NoError(s.store.Remove(s.ctx, Key("user-1")))
		_, err := s.store.Get(s.ctx, Key("user-1"))
		s.ErrorIs(err, ErrNotFound)
		s.NoError(s.store.Remove(s.ctx, Key("user-1")))
	})
}
