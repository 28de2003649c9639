package memory

import (
	"context"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// auditEventStore is the in-memory implementation of storage.AuditEventStore.
type auditEventStore struct {
	l *Ledger
}

var _ storage.AuditEventStore = (*auditEventStore)(nil)

func (s *auditEventStore) Insert(_ context.Context, e *domain.AuditEvent) error {
	if e == nil || e.EventID == "" || e.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.insertAuditLocked(e)
}

func (s *auditEventStore) GetByToken(_ context.Context, tokenID string) ([]*domain.AuditEvent, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	var result []*domain.AuditEvent
	for _, e := range s.l.audits {
		if e.TokenID == tokenID {
			result = append(result, copyAudit(e))
		}
	}
	return result, nil
}

// insertAuditLocked appends the row. Caller holds l.mu.
func (l *Ledger) insertAuditLocked(e *domain.AuditEvent) error {
	if _, exists := l.auditIDs[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	l.auditIDs[e.EventID] = struct{}{}
	l.audits = append(l.audits, copyAudit(e))
	return nil
}
