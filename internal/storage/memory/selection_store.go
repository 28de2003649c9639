package memory

import (
	"context"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// selectionStore is the in-memory implementation of storage.SelectionStore.
type selectionStore struct {
	l *Ledger
}

var _ storage.SelectionStore = (*selectionStore)(nil)

func (s *selectionStore) Insert(_ context.Context, sel *domain.LuckySelection) error {
	if sel == nil || sel.SelectionID == "" || sel.Wallet == "" || sel.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.insertSelectionLocked(sel)
}

func (s *selectionStore) GetByToken(_ context.Context, tokenID string) ([]*domain.LuckySelection, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	var result []*domain.LuckySelection
	for _, sel := range s.l.selections {
		if sel.TokenID == tokenID {
			result = append(result, copySelection(sel))
		}
	}
	return result, nil
}

// insertSelectionLocked appends the row. Caller holds l.mu.
func (l *Ledger) insertSelectionLocked(sel *domain.LuckySelection) error {
	if _, exists := l.selectionIDs[sel.SelectionID]; exists {
		return storage.ErrDuplicateKey
	}
	l.selectionIDs[sel.SelectionID] = struct{}{}
	l.selections = append(l.selections, copySelection(sel))
	return nil
}
