// Package lucky rewards one active, non-whale wallet chosen by
// activity-weighted random selection over a token's recent mint/buy
// history.
package lucky

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// ErrNoEligibleCandidates means the candidate window held no eligible
// wallet after whale exclusion. Callers should retry later or widen the
// window.
var ErrNoEligibleCandidates = errors.New("no eligible candidates")

// DefaultCandidateWindow is the number of recent activity rows considered.
const DefaultCandidateWindow = 50

// RandSource yields uniform floats in [0, 1). Injected so tests can pin
// the draw.
type RandSource interface {
	Float64() float64
}

// candidate is one distinct wallet in the window with its summed recency
// weight. Candidates keep the order of their newest appearance.
type candidate struct {
	wallet string
	weight int64
}

// Selector picks lucky wallets. The candidate read is allowed to be a few
// trades stale; the payout itself is atomic and rejects if the lucky pool
// has dropped below the distribution amount.
type Selector struct {
	ledger storage.Ledger
	clock  clockwork.Clock
	logger *slog.Logger
	rand   RandSource
	window int
}

// NewSelector creates a new Selector with the given random source and
// candidate window; window <= 0 means DefaultCandidateWindow.
func NewSelector(ledger storage.Ledger, clock clockwork.Clock, logger *slog.Logger, rand RandSource, window int) *Selector {
	if window <= 0 {
		window = DefaultCandidateWindow
	}
	return &Selector{ledger: ledger, clock: clock, logger: logger, rand: rand, window: window}
}

// Select draws one eligible wallet from the token's recent activity and
// pays it distributionAmount out of the lucky pool.
func (s *Selector) Select(ctx context.Context, tokenID string, distributionAmount decimal.Decimal) (*domain.LuckySelection, error) {
	if distributionAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: distribution amount must be positive", storage.ErrInvalidInput)
	}
	if _, err := s.ledger.Tokens().GetByID(ctx, tokenID); err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	candidates, err := s.eligibleCandidates(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleCandidates
	}

	winner := draw(candidates, s.rand.Float64())

	selection := &domain.LuckySelection{
		SelectionID:        uuid.NewString(),
		Wallet:             winner.wallet,
		TokenID:            tokenID,
		DistributionAmount: domain.Quantize(distributionAmount),
		ActivityScore:      winner.weight,
		Timestamp:          s.clock.Now().UnixMilli(),
	}
	unit := &storage.RewardUnit{
		Selection: selection,
		Audit: &domain.AuditEvent{
			EventID:   uuid.NewString(),
			Kind:      domain.AuditLuckyPayout,
			TokenID:   tokenID,
			Wallet:    winner.wallet,
			Detail:    fmt.Sprintf("paid %s, activity score %d", selection.DistributionAmount, winner.weight),
			Timestamp: selection.Timestamp,
		},
	}
	if err := s.ledger.PayLuckyReward(ctx, unit); err != nil {
		return nil, fmt.Errorf("pay lucky reward: %w", err)
	}

	s.logger.Info("lucky wallet selected",
		"token_id", tokenID,
		"wallet", winner.wallet,
		"amount", selection.DistributionAmount.String(),
		"activity_score", winner.weight,
	)
	return selection, nil
}

// eligibleCandidates builds the weighted candidate pool: the most recent
// window mint/buy rows, newest first, row i weighted window−i, summed per
// wallet, with whales and ineligible wallets dropped.
func (s *Selector) eligibleCandidates(ctx context.Context, tokenID string) ([]candidate, error) {
	rows, err := s.ledger.Activities().RecentByToken(ctx, tokenID,
		[]domain.ActivityKind{domain.ActivityMint, domain.ActivityBuy}, s.window)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	weights := make(map[string]int64)
	var order []string
	for i, row := range rows {
		if _, seen := weights[row.Wallet]; !seen {
			order = append(order, row.Wallet)
		}
		weights[row.Wallet] += int64(s.window - i)
	}

	var candidates []candidate
	for _, w := range order {
		rec, err := s.ledger.Eligibility().Get(ctx, w, tokenID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get eligibility: %w", err)
		}
		if rec.WhaleStatus || !rec.IsEligible {
			continue
		}
		candidates = append(candidates, candidate{wallet: w, weight: weights[w]})
	}
	return candidates, nil
}

// draw performs the cumulative-weight walk: r is scaled to the total
// weight and the first candidate whose cumulative weight reaches it wins.
func draw(candidates []candidate, r float64) candidate {
	var total int64
	for _, c := range candidates {
		total += c.weight
	}

	target := r * float64(total)
	var cum float64
	for _, c := range candidates {
		cum += float64(c.weight)
		if cum >= target {
			return c
		}
	}
	return candidates[len(candidates)-1]
}
