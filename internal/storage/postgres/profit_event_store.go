package postgres

import (
	"context"
	"fmt"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// ProfitEventStore implements storage.ProfitEventStore using PostgreSQL.
type ProfitEventStore struct {
	pool *Pool
}

// NewProfitEventStore creates a new ProfitEventStore.
func NewProfitEventStore(pool *Pool) *ProfitEventStore {
	return &ProfitEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProfitEventStore = (*ProfitEventStore)(nil)

// Insert appends a new profit event. Returns ErrDuplicateKey if event_id exists.
func (s *ProfitEventStore) Insert(ctx context.Context, e *domain.ProfitEvent) error {
	return insertProfitEvent(ctx, s.pool, e)
}

// List retrieves all profit events, ordered by timestamp ASC.
func (s *ProfitEventStore) List(ctx context.Context) ([]*domain.ProfitEvent, error) {
	query := `
		SELECT event_id, token_id, source_pool, sale_amount, reinvestment_amount, dao_amount, creator_amount, lucky_amount, timestamp
		FROM profit_events
		ORDER BY timestamp ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profit events: %w", err)
	}
	defer rows.Close()

	var result []*domain.ProfitEvent
	for rows.Next() {
		var e domain.ProfitEvent
		err := rows.Scan(
			&e.EventID,
			&e.TokenID,
			&e.SourcePool,
			&e.SaleAmount,
			&e.ReinvestmentAmount,
			&e.DAOAmount,
			&e.CreatorAmount,
			&e.LuckyAmount,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan profit event row: %w", err)
		}
		result = append(result, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profit event rows: %w", err)
	}

	return result, nil
}

func insertProfitEvent(ctx context.Context, q querier, e *domain.ProfitEvent) error {
	query := `
		INSERT INTO profit_events (
			event_id, token_id, source_pool, sale_amount, reinvestment_amount, dao_amount, creator_amount, lucky_amount, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		e.EventID,
		e.TokenID,
		e.SourcePool,
		e.SaleAmount,
		e.ReinvestmentAmount,
		e.DAOAmount,
		e.CreatorAmount,
		e.LuckyAmount,
		e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert profit event: %w", err)
	}
	return nil
}
