package profit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
	"token-ledger-engine/internal/storage/memory"
)

func newDistributor() (*Distributor, *memory.Ledger) {
	ledger := memory.NewLedger()
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDistributor(ledger, clock, logger), ledger
}

func TestDistributor_Distribute(t *testing.T) {
	ctx := context.Background()

	t.Run("canonical split", func(t *testing.T) {
		d, ledger := newDistributor()
		require.NoError(t, ledger.Pools().Credit(ctx, domain.PoolSystem, decimal.NewFromInt(1000)))

		event, err := d.Distribute(ctx, domain.PoolSystem, "", decimal.NewFromInt(1000))
		require.NoError(t, err)

		assert.True(t, event.ReinvestmentAmount.Equal(decimal.NewFromInt(800)))
		assert.True(t, event.DAOAmount.Equal(decimal.NewFromInt(150)))
		assert.True(t, event.LuckyAmount.Equal(decimal.NewFromInt(30)))
		assert.True(t, event.CreatorAmount.Equal(decimal.NewFromInt(20)))

		source, err := ledger.Pools().Get(ctx, domain.PoolSystem)
		require.NoError(t, err)
		assert.True(t, source.Balance.IsZero())

		treasury, err := ledger.Pools().Get(ctx, domain.PoolTreasury)
		require.NoError(t, err)
		assert.True(t, treasury.Balance.Equal(decimal.NewFromInt(150)))

		events, err := ledger.ProfitEvents().List(ctx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, event.EventID, events[0].EventID)
	})

	t.Run("split sums exactly on awkward amounts", func(t *testing.T) {
		d, _ := newDistributor()

		profit := decimal.RequireFromString("999.99999999")
		event, err := d.Distribute(ctx, domain.PoolSystem, "", profit)
		require.NoError(t, err)

		sum := event.ReinvestmentAmount.
			Add(event.DAOAmount).
			Add(event.LuckyAmount).
			Add(event.CreatorAmount)
		assert.True(t, sum.Equal(profit), "sum %s != profit %s", sum, profit)
		assert.True(t, event.CreatorAmount.Sign() >= 0)
	})

	t.Run("source pool can receive its own share", func(t *testing.T) {
		d, ledger := newDistributor()
		require.NoError(t, ledger.Pools().Credit(ctx, domain.PoolAI, decimal.NewFromInt(1000)))

		_, err := d.Distribute(ctx, domain.PoolAI, "", decimal.NewFromInt(1000))
		require.NoError(t, err)

		// Zeroed first, then the 80% reinvestment lands back in ai.
		ai, err := ledger.Pools().Get(ctx, domain.PoolAI)
		require.NoError(t, err)
		assert.True(t, ai.Balance.Equal(decimal.NewFromInt(800)), "ai: %s", ai.Balance)
	})

	t.Run("non-positive profit is a no-op", func(t *testing.T) {
		d, ledger := newDistributor()
		require.NoError(t, ledger.Pools().Credit(ctx, domain.PoolSystem, decimal.NewFromInt(500)))

		event, err := d.Distribute(ctx, domain.PoolSystem, "", decimal.Zero)
		require.NoError(t, err)
		assert.True(t, event.SaleAmount.IsZero())
		assert.Empty(t, event.EventID)

		// Source untouched, nothing persisted.
		source, err := ledger.Pools().Get(ctx, domain.PoolSystem)
		require.NoError(t, err)
		assert.True(t, source.Balance.Equal(decimal.NewFromInt(500)))

		events, err := ledger.ProfitEvents().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("unknown source pool rejected", func(t *testing.T) {
		d, _ := newDistributor()
		_, err := d.Distribute(ctx, "slush", "", decimal.NewFromInt(100))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
