package postgres

import (
	"context"
	"fmt"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// AuditEventStore implements storage.AuditEventStore using PostgreSQL.
type AuditEventStore struct {
	pool *Pool
}

// NewAuditEventStore creates a new AuditEventStore.
func NewAuditEventStore(pool *Pool) *AuditEventStore {
	return &AuditEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AuditEventStore = (*AuditEventStore)(nil)

// Insert appends a new audit event.
func (s *AuditEventStore) Insert(ctx context.Context, e *domain.AuditEvent) error {
	return insertAuditEvent(ctx, s.pool, e)
}

// GetByToken retrieves all events for a token, ordered by timestamp ASC.
func (s *AuditEventStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.AuditEvent, error) {
	query := `
		SELECT event_id, kind, token_id, wallet, detail, timestamp
		FROM audit_events
		WHERE token_id = $1
		ORDER BY timestamp ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get audit events by token: %w", err)
	}
	defer rows.Close()

	var result []*domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var kind string
		err := rows.Scan(
			&e.EventID,
			&kind,
			&e.TokenID,
			&e.Wallet,
			&e.Detail,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}
		e.Kind = domain.AuditKind(kind)
		result = append(result, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit event rows: %w", err)
	}

	return result, nil
}

func insertAuditEvent(ctx context.Context, q querier, e *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_events (
			event_id, kind, token_id, wallet, detail, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		e.EventID,
		string(e.Kind),
		e.TokenID,
		e.Wallet,
		e.Detail,
		e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
