package lucky

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/mint"
	"token-ledger-engine/internal/storage"
	"token-ledger-engine/internal/storage/memory"
	"token-ledger-engine/internal/trade"
)

const creatorWallet = "11111111111111111111111111111111"

// fixedRand returns the same value on every draw.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func newWallet(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base58.Encode(pub)
}

type fixture struct {
	ledger  *memory.Ledger
	clock   clockwork.Clock
	logger  *slog.Logger
	trades  *trade.Processor
	tokenID string
}

// newFixture mints a 1000-supply token (lucky pool seeded with 30) and
// returns a trade processor over the same ledger.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := memory.NewLedger()
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := mint.NewDistributor(ledger, clock, logger).Mint(context.Background(), mint.Request{
		Name:          "Moon Token",
		Symbol:        "MOON",
		Supply:        decimal.NewFromInt(1000),
		CreatorWallet: creatorWallet,
	})
	require.NoError(t, err)

	return &fixture{
		ledger:  ledger,
		clock:   clock,
		logger:  logger,
		trades:  trade.NewProcessor(ledger, clock, logger),
		tokenID: res.Token.TokenID,
	}
}

func (f *fixture) buy(t *testing.T, wallet string, amount int64) {
	t.Helper()
	_, err := f.trades.Trade(context.Background(), f.tokenID, wallet, domain.ActivityBuy, decimal.NewFromInt(amount))
	require.NoError(t, err)
}

func (f *fixture) selector(r RandSource, window int) *Selector {
	return NewSelector(f.ledger, f.clock, f.logger, r, window)
}

func TestSelector_Select(t *testing.T) {
	ctx := context.Background()

	// The shared history: four small buys then one whale buy. With a
	// window of 5 the mint row falls out and the newest-first weights are
	// whale:5, w3:4, w1:3+1, w2:2.
	setup := func(t *testing.T) (*fixture, string, string, string, string) {
		f := newFixture(t)
		w1, w2, w3, whale := newWallet(t), newWallet(t), newWallet(t), newWallet(t)
		f.buy(t, w1, 10)
		f.buy(t, w2, 20)
		f.buy(t, w1, 10)
		f.buy(t, w3, 10)
		f.buy(t, whale, 100) // 10% of supply, flagged
		return f, w1, w2, w3, whale
	}

	t.Run("deterministic draws walk the cumulative weights", func(t *testing.T) {
		f, w1, w2, w3, _ := setup(t)

		// Eligible candidates newest-first: w3 (weight 4), w1 (4), w2 (2).
		cases := []struct {
			r    float64
			want string
		}{
			{0.0, w3},
			{0.39, w3},  // target 3.9 <= 4
			{0.45, w1},  // target 4.5, cumulative 8
			{0.95, w2},  // target 9.5, cumulative 10
			{0.999, w2},
		}
		for _, tc := range cases {
			sel, err := f.selector(fixedRand{tc.r}, 5).Select(ctx, f.tokenID, decimal.NewFromInt(1))
			require.NoError(t, err)
			assert.Equal(t, tc.want, sel.Wallet, "r=%v", tc.r)
		}
	})

	t.Run("whales are never selected", func(t *testing.T) {
		f, _, _, _, whale := setup(t)

		for _, r := range []float64{0, 0.2, 0.4, 0.6, 0.8, 0.99} {
			sel, err := f.selector(fixedRand{r}, 5).Select(ctx, f.tokenID, decimal.NewFromInt(1))
			require.NoError(t, err)
			assert.NotEqual(t, whale, sel.Wallet, "r=%v", r)
		}
	})

	t.Run("payout debits the lucky pool", func(t *testing.T) {
		f, _, _, w3, _ := setup(t)

		sel, err := f.selector(fixedRand{0}, 5).Select(ctx, f.tokenID, decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Equal(t, w3, sel.Wallet)
		assert.Equal(t, int64(4), sel.ActivityScore)

		pool, err := f.ledger.Pools().Get(ctx, domain.PoolLucky)
		require.NoError(t, err)
		assert.True(t, pool.Balance.Equal(decimal.NewFromInt(20)), "balance: %s", pool.Balance)
		assert.Equal(t, int64(1), pool.RewardCount)
		assert.True(t, pool.TotalRewardsPaid.Equal(decimal.NewFromInt(10)))

		selections, err := f.ledger.Selections().GetByToken(ctx, f.tokenID)
		require.NoError(t, err)
		require.Len(t, selections, 1)
		assert.Equal(t, sel.SelectionID, selections[0].SelectionID)
	})

	t.Run("payout beyond pool balance rejected", func(t *testing.T) {
		f, _, _, _, _ := setup(t)

		// Lucky pool holds 30 after the mint.
		_, err := f.selector(fixedRand{0}, 5).Select(ctx, f.tokenID, decimal.NewFromInt(1000))
		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)

		selections, err := f.ledger.Selections().GetByToken(ctx, f.tokenID)
		require.NoError(t, err)
		assert.Empty(t, selections)
	})

	t.Run("window of whales leaves no candidates", func(t *testing.T) {
		f, _, _, _, _ := setup(t)

		// Only the newest row (the whale buy) is in a window of 1.
		_, err := f.selector(fixedRand{0}, 1).Select(ctx, f.tokenID, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrNoEligibleCandidates)
	})

	t.Run("token with no activity window", func(t *testing.T) {
		f := newFixture(t)

		// Creator's mint row is the only activity; creator is eligible.
		sel, err := f.selector(fixedRand{0.5}, 5).Select(ctx, f.tokenID, decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.Equal(t, creatorWallet, sel.Wallet)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.selector(fixedRand{0}, 5).Select(ctx, f.tokenID, decimal.Zero)
		assert.ErrorIs(t, err, storage.ErrInvalidInput)

		_, err = f.selector(fixedRand{0}, 5).Select(ctx, "nonexistent", decimal.NewFromInt(1))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
