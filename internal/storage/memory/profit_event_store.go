package memory

import (
	"context"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// profitEventStore is the in-memory implementation of storage.ProfitEventStore.
type profitEventStore struct {
	l *Ledger
}

var _ storage.ProfitEventStore = (*profitEventStore)(nil)

func (s *profitEventStore) Insert(_ context.Context, e *domain.ProfitEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.insertProfitEventLocked(e)
}

func (s *profitEventStore) List(_ context.Context) ([]*domain.ProfitEvent, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	result := make([]*domain.ProfitEvent, 0, len(s.l.profitEvents))
	for _, e := range s.l.profitEvents {
		result = append(result, copyProfitEvent(e))
	}
	return result, nil
}

// insertProfitEventLocked appends the row. Caller holds l.mu.
func (l *Ledger) insertProfitEventLocked(e *domain.ProfitEvent) error {
	if _, exists := l.profitEventIDs[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	l.profitEventIDs[e.EventID] = struct{}{}
	l.profitEvents = append(l.profitEvents, copyProfitEvent(e))
	return nil
}
