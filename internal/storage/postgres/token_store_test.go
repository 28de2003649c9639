package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

func testToken(id, symbol string) *domain.Token {
	return &domain.Token{
		TokenID:     id,
		Symbol:      symbol,
		Name:        symbol + " Token",
		Supply:      decimal.NewFromInt(1_000_000),
		Price:       decimal.NewFromInt(1),
		Volume24h:   decimal.Zero,
		HolderCount: 1,
		LaunchedAt:  1_700_000_000_000,
	}
}

func TestTokenStore_Postgres(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, testToken("t1", "MOON")))

		got, err := store.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "MOON", got.Symbol)
		assert.True(t, got.Supply.Equal(decimal.NewFromInt(1_000_000)))
		assert.Equal(t, int64(1), got.Version)

		bySymbol, err := store.GetBySymbol(ctx, "moon")
		require.NoError(t, err)
		assert.Equal(t, "t1", bySymbol.TokenID)
	})

	t.Run("duplicate symbol", func(t *testing.T) {
		err := store.Insert(ctx, testToken("t2", "MOON"))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetByID(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update with version check", func(t *testing.T) {
		cur, err := store.GetByID(ctx, "t1")
		require.NoError(t, err)

		cur.Volume24h = decimal.NewFromInt(500)
		require.NoError(t, store.Update(ctx, cur, cur.Version))

		// Stale version conflicts.
		err = store.Update(ctx, cur, cur.Version)
		assert.ErrorIs(t, err, storage.ErrVersionConflict)

		got, err := store.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, got.Volume24h.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("update missing token", func(t *testing.T) {
		missing := testToken("ghost", "GHOST")
		err := store.Update(ctx, missing, 1)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
