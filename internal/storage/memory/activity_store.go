package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// activityStore is the in-memory implementation of storage.ActivityStore.
type activityStore struct {
	l *Ledger
}

var _ storage.ActivityStore = (*activityStore)(nil)

func (s *activityStore) Insert(_ context.Context, a *domain.WalletActivity) error {
	if err := validateActivity(a); err != nil {
		return err
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.insertActivityLocked(a)
}

func (s *activityStore) GetByToken(_ context.Context, tokenID string) ([]*domain.WalletActivity, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	var result []*domain.WalletActivity
	for _, a := range s.l.activities {
		if a.TokenID == tokenID {
			result = append(result, copyActivity(a))
		}
	}

	sortActivitiesAsc(result)
	return result, nil
}

func (s *activityStore) GetByWallet(_ context.Context, wallet string) ([]*domain.WalletActivity, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	var result []*domain.WalletActivity
	for _, a := range s.l.activities {
		if a.Wallet == wallet {
			result = append(result, copyActivity(a))
		}
	}

	sortActivitiesAsc(result)
	return result, nil
}

func (s *activityStore) RecentByToken(_ context.Context, tokenID string, kinds []domain.ActivityKind, limit int) ([]*domain.WalletActivity, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	wanted := make(map[domain.ActivityKind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}

	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	// Walk newest first; insertion order is chronological.
	var result []*domain.WalletActivity
	for i := len(s.l.activities) - 1; i >= 0 && len(result) < limit; i-- {
		a := s.l.activities[i]
		if a.TokenID != tokenID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[a.Kind]; !ok {
				continue
			}
		}
		result = append(result, copyActivity(a))
	}

	return result, nil
}

func (s *activityStore) BalanceOf(_ context.Context, tokenID, wallet string) (decimal.Decimal, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	return s.l.balanceOfLocked(tokenID, wallet), nil
}

func validateActivity(a *domain.WalletActivity) error {
	if a == nil || a.ActivityID == "" || a.TokenID == "" || a.Wallet == "" || !domain.ValidKind(a.Kind) {
		return storage.ErrInvalidInput
	}
	return nil
}

// insertActivityLocked appends the row. Caller holds l.mu.
func (l *Ledger) insertActivityLocked(a *domain.WalletActivity) error {
	if _, exists := l.activityIDs[a.ActivityID]; exists {
		return storage.ErrDuplicateKey
	}
	l.activityIDs[a.ActivityID] = struct{}{}
	l.activities = append(l.activities, copyActivity(a))
	return nil
}

// balanceOfLocked folds the wallet's rows. Caller holds l.mu.
func (l *Ledger) balanceOfLocked(tokenID, wallet string) decimal.Decimal {
	balance := decimal.Zero
	for _, a := range l.activities {
		if a.TokenID != tokenID || a.Wallet != wallet {
			continue
		}
		if a.Kind.Sign() > 0 {
			balance = balance.Add(a.Amount)
		} else {
			balance = balance.Sub(a.Amount)
		}
	}
	return balance
}

func sortActivitiesAsc(rows []*domain.WalletActivity) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp < rows[j].Timestamp
	})
}
