package memory

import (
	"context"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// distributionStore is the in-memory implementation of storage.DistributionStore.
type distributionStore struct {
	l *Ledger
}

var _ storage.DistributionStore = (*distributionStore)(nil)

func (s *distributionStore) Insert(_ context.Context, d *domain.DistributionRecord) error {
	if d == nil || d.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.insertDistributionLocked(d)
}

func (s *distributionStore) GetByTokenID(_ context.Context, tokenID string) (*domain.DistributionRecord, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	d, ok := s.l.distributions[tokenID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyDistribution(d), nil
}

// insertDistributionLocked adds the record. Caller holds l.mu.
func (l *Ledger) insertDistributionLocked(d *domain.DistributionRecord) error {
	if _, exists := l.distributions[d.TokenID]; exists {
		return storage.ErrDuplicateKey
	}
	l.distributions[d.TokenID] = copyDistribution(d)
	return nil
}
