package postgres

import (
	"context"
	"fmt"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// DistributionStore implements storage.DistributionStore using PostgreSQL.
type DistributionStore struct {
	pool *Pool
}

// NewDistributionStore creates a new DistributionStore.
func NewDistributionStore(pool *Pool) *DistributionStore {
	return &DistributionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DistributionStore = (*DistributionStore)(nil)

// Insert adds a new distribution record. Returns ErrDuplicateKey if token_id exists.
func (s *DistributionStore) Insert(ctx context.Context, d *domain.DistributionRecord) error {
	return insertDistribution(ctx, s.pool, d)
}

// GetByTokenID retrieves the record for a token. Returns ErrNotFound if not exists.
func (s *DistributionStore) GetByTokenID(ctx context.Context, tokenID string) (*domain.DistributionRecord, error) {
	query := `
		SELECT token_id, ai_amount, creator_amount, lucky_amount, system_amount, public_amount, created_at
		FROM distribution_records
		WHERE token_id = $1
	`

	var d domain.DistributionRecord
	err := s.pool.QueryRow(ctx, query, tokenID).Scan(
		&d.TokenID,
		&d.AIAmount,
		&d.CreatorAmount,
		&d.LuckyAmount,
		&d.SystemAmount,
		&d.PublicAmount,
		&d.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get distribution record: %w", err)
	}

	return &d, nil
}

func insertDistribution(ctx context.Context, q querier, d *domain.DistributionRecord) error {
	query := `
		INSERT INTO distribution_records (
			token_id, ai_amount, creator_amount, lucky_amount, system_amount, public_amount
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		d.TokenID,
		d.AIAmount,
		d.CreatorAmount,
		d.LuckyAmount,
		d.SystemAmount,
		d.PublicAmount,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert distribution record: %w", err)
	}
	return nil
}
