package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// EligibilityStore implements storage.EligibilityStore using PostgreSQL.
type EligibilityStore struct {
	pool *Pool
}

// NewEligibilityStore creates a new EligibilityStore.
func NewEligibilityStore(pool *Pool) *EligibilityStore {
	return &EligibilityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EligibilityStore = (*EligibilityStore)(nil)

const eligibilityColumns = `wallet, token_id, total_bought, total_sold, max_buy_pct, max_sell_pct, whale_status, is_eligible, flagged_reason, ever_held, version, updated_at, created_at`

// Get retrieves the record for a wallet/token pair. Returns ErrNotFound if not exists.
func (s *EligibilityStore) Get(ctx context.Context, wallet, tokenID string) (*domain.EligibilityRecord, error) {
	query := `SELECT ` + eligibilityColumns + ` FROM eligibility_records WHERE wallet = $1 AND token_id = $2`

	row := s.pool.QueryRow(ctx, query, wallet, tokenID)
	return scanEligibility(row)
}

// GetByToken retrieves all records for a token.
func (s *EligibilityStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.EligibilityRecord, error) {
	query := `SELECT ` + eligibilityColumns + ` FROM eligibility_records WHERE token_id = $1 ORDER BY wallet ASC`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get eligibility by token: %w", err)
	}
	defer rows.Close()

	var result []*domain.EligibilityRecord
	for rows.Next() {
		rec, err := scanEligibility(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligibility rows: %w", err)
	}

	return result, nil
}

// Upsert writes the record with an optimistic version check.
func (s *EligibilityStore) Upsert(ctx context.Context, rec *domain.EligibilityRecord, expectedVersion int64) error {
	return upsertEligibility(ctx, s.pool, rec, expectedVersion)
}

func upsertEligibility(ctx context.Context, q querier, rec *domain.EligibilityRecord, expectedVersion int64) error {
	now := time.Now().UnixMilli()

	if expectedVersion == 0 {
		query := `
			INSERT INTO eligibility_records (
				wallet, token_id, total_bought, total_sold, max_buy_pct, max_sell_pct,
				whale_status, is_eligible, flagged_reason, ever_held, version, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11)
		`
		_, err := q.Exec(ctx, query,
			rec.Wallet,
			rec.TokenID,
			rec.TotalBought,
			rec.TotalSold,
			rec.MaxBuyPct,
			rec.MaxSellPct,
			rec.WhaleStatus,
			rec.IsEligible,
			rec.FlaggedReason,
			rec.EverHeld,
			now,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrVersionConflict
			}
			return fmt.Errorf("insert eligibility record: %w", err)
		}
		return nil
	}

	query := `
		UPDATE eligibility_records
		SET total_bought = $3, total_sold = $4, max_buy_pct = $5, max_sell_pct = $6,
			whale_status = $7, is_eligible = $8, flagged_reason = $9, ever_held = $10,
			version = version + 1, updated_at = $11
		WHERE wallet = $1 AND token_id = $2 AND version = $12
	`
	tag, err := q.Exec(ctx, query,
		rec.Wallet,
		rec.TokenID,
		rec.TotalBought,
		rec.TotalSold,
		rec.MaxBuyPct,
		rec.MaxSellPct,
		rec.WhaleStatus,
		rec.IsEligible,
		rec.FlaggedReason,
		rec.EverHeld,
		now,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update eligibility record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM eligibility_records WHERE wallet = $1 AND token_id = $2)`
		if err := q.QueryRow(ctx, check, rec.Wallet, rec.TokenID).Scan(&exists); err != nil {
			return fmt.Errorf("check eligibility record: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrVersionConflict
	}
	return nil
}

func scanEligibility(row pgx.Row) (*domain.EligibilityRecord, error) {
	var rec domain.EligibilityRecord

	err := row.Scan(
		&rec.Wallet,
		&rec.TokenID,
		&rec.TotalBought,
		&rec.TotalSold,
		&rec.MaxBuyPct,
		&rec.MaxSellPct,
		&rec.WhaleStatus,
		&rec.IsEligible,
		&rec.FlaggedReason,
		&rec.EverHeld,
		&rec.Version,
		&rec.UpdatedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan eligibility row: %w", err)
	}

	return &rec, nil
}
