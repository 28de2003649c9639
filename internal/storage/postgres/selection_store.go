package postgres

import (
	"context"
	"fmt"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// SelectionStore implements storage.SelectionStore using PostgreSQL.
type SelectionStore struct {
	pool *Pool
}

// NewSelectionStore creates a new SelectionStore.
func NewSelectionStore(pool *Pool) *SelectionStore {
	return &SelectionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SelectionStore = (*SelectionStore)(nil)

// Insert appends a new selection. Returns ErrDuplicateKey if selection_id exists.
func (s *SelectionStore) Insert(ctx context.Context, sel *domain.LuckySelection) error {
	return insertSelection(ctx, s.pool, sel)
}

// GetByToken retrieves all selections for a token, ordered by timestamp ASC.
func (s *SelectionStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.LuckySelection, error) {
	query := `
		SELECT selection_id, wallet, token_id, distribution_amount, activity_score, timestamp
		FROM lucky_selections
		WHERE token_id = $1
		ORDER BY timestamp ASC, selection_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get selections by token: %w", err)
	}
	defer rows.Close()

	var result []*domain.LuckySelection
	for rows.Next() {
		var sel domain.LuckySelection
		err := rows.Scan(
			&sel.SelectionID,
			&sel.Wallet,
			&sel.TokenID,
			&sel.DistributionAmount,
			&sel.ActivityScore,
			&sel.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan selection row: %w", err)
		}
		result = append(result, &sel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate selection rows: %w", err)
	}

	return result, nil
}

func insertSelection(ctx context.Context, q querier, sel *domain.LuckySelection) error {
	query := `
		INSERT INTO lucky_selections (
			selection_id, wallet, token_id, distribution_amount, activity_score, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		sel.SelectionID,
		sel.Wallet,
		sel.TokenID,
		sel.DistributionAmount,
		sel.ActivityScore,
		sel.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert lucky selection: %w", err)
	}
	return nil
}
