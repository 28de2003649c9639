// Package eligibility maintains per-(wallet, token) governance standing.
// State moves one way: a wallet starts eligible and loses eligibility the
// first time one of its trades is whale-flagged. Later small trades never
// restore it.
package eligibility

import (
	"context"
	"errors"
	"fmt"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// Apply folds one activity row into a wallet's eligibility record and
// returns the record to persist along with the version the write must
// expect. A nil prev means no record exists yet; the returned expected
// version is then 0, which tells the store to insert.
func Apply(prev *domain.EligibilityRecord, a *domain.WalletActivity, now int64) (*domain.EligibilityRecord, int64) {
	rec := &domain.EligibilityRecord{
		Wallet:     a.Wallet,
		TokenID:    a.TokenID,
		IsEligible: true,
	}
	var expectedVersion int64
	if prev != nil {
		cp := *prev
		rec = &cp
		expectedVersion = prev.Version
	}

	switch a.Kind {
	case domain.ActivityMint, domain.ActivityBuy:
		rec.TotalBought = rec.TotalBought.Add(a.Amount)
		rec.EverHeld = true
		if a.PctOfSupply.GreaterThan(rec.MaxBuyPct) {
			rec.MaxBuyPct = a.PctOfSupply
		}
	case domain.ActivitySell, domain.ActivityBurn:
		rec.TotalSold = rec.TotalSold.Add(a.Amount)
		if a.PctOfSupply.GreaterThan(rec.MaxSellPct) {
			rec.MaxSellPct = a.PctOfSupply
		}
	}

	if a.WhaleFlagged && !rec.WhaleStatus {
		rec.WhaleStatus = true
		rec.IsEligible = false
		reason := fmt.Sprintf("%s of %s%% of supply crossed the whale threshold",
			a.Kind, a.PctOfSupply.StringFixed(2))
		rec.FlaggedReason = &reason
	}

	rec.UpdatedAt = now
	return rec, expectedVersion
}

// Tracker answers eligibility queries for voting and proposal gating.
type Tracker struct {
	store storage.EligibilityStore
}

// NewTracker creates a new Tracker.
func NewTracker(store storage.EligibilityStore) *Tracker {
	return &Tracker{store: store}
}

// Check retrieves a wallet's standing for a token. Absence of a record is
// not an error; it means the wallet has not traded yet and is reported as
// not eligible.
func (t *Tracker) Check(ctx context.Context, wallet, tokenID string) (*domain.EligibilityRecord, error) {
	rec, err := t.store.Get(ctx, wallet, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &domain.EligibilityRecord{
				Wallet:     wallet,
				TokenID:    tokenID,
				IsEligible: false,
			}, nil
		}
		return nil, fmt.Errorf("get eligibility record: %w", err)
	}
	return rec, nil
}

// ListByToken retrieves all eligibility records for a token.
func (t *Tracker) ListByToken(ctx context.Context, tokenID string) ([]*domain.EligibilityRecord, error) {
	return t.store.GetByToken(ctx, tokenID)
}
