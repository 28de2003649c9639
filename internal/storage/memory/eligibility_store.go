package memory

import (
	"context"
	"sort"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// eligibilityStore is the in-memory implementation of storage.EligibilityStore.
type eligibilityStore struct {
	l *Ledger
}

var _ storage.EligibilityStore = (*eligibilityStore)(nil)

func (s *eligibilityStore) Get(_ context.Context, wallet, tokenID string) (*domain.EligibilityRecord, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	rec, ok := s.l.eligibility[eligibilityKey(wallet, tokenID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyEligibility(rec), nil
}

func (s *eligibilityStore) GetByToken(_ context.Context, tokenID string) ([]*domain.EligibilityRecord, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	var result []*domain.EligibilityRecord
	for _, rec := range s.l.eligibility {
		if rec.TokenID == tokenID {
			result = append(result, copyEligibility(rec))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Wallet < result[j].Wallet
	})

	return result, nil
}

func (s *eligibilityStore) Upsert(_ context.Context, rec *domain.EligibilityRecord, expectedVersion int64) error {
	if err := validateEligibility(rec); err != nil {
		return err
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.upsertEligibilityLocked(rec, expectedVersion)
}

func validateEligibility(rec *domain.EligibilityRecord) error {
	if rec == nil || rec.Wallet == "" || rec.TokenID == "" {
		return storage.ErrInvalidInput
	}
	return nil
}

// upsertEligibilityLocked writes the record after a version check.
// Caller holds l.mu.
func (l *Ledger) upsertEligibilityLocked(rec *domain.EligibilityRecord, expectedVersion int64) error {
	key := eligibilityKey(rec.Wallet, rec.TokenID)
	cur, exists := l.eligibility[key]

	if expectedVersion == 0 {
		if exists {
			return storage.ErrVersionConflict
		}
	} else {
		if !exists {
			return storage.ErrNotFound
		}
		if cur.Version != expectedVersion {
			return storage.ErrVersionConflict
		}
	}

	c := copyEligibility(rec)
	c.Version = expectedVersion + 1
	l.eligibility[key] = c
	return nil
}
