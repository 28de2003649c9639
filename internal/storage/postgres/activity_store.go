package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// ActivityStore implements storage.ActivityStore using PostgreSQL.
type ActivityStore struct {
	pool *Pool
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(pool *Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ActivityStore = (*ActivityStore)(nil)

const activityColumns = `activity_id, wallet, token_id, kind, amount, pct_of_supply, whale_flagged, timestamp`

// Insert appends a new activity row. Returns ErrDuplicateKey if activity_id exists.
func (s *ActivityStore) Insert(ctx context.Context, a *domain.WalletActivity) error {
	return insertActivity(ctx, s.pool, a)
}

// GetByToken retrieves all rows for a token, ordered by timestamp ASC.
func (s *ActivityStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.WalletActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM wallet_activity
		WHERE token_id = $1
		ORDER BY timestamp ASC, activity_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get activity by token: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetByWallet retrieves all rows for a wallet, ordered by timestamp ASC.
func (s *ActivityStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.WalletActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM wallet_activity
		WHERE wallet = $1
		ORDER BY timestamp ASC, activity_id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get activity by wallet: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// RecentByToken retrieves up to limit rows of the given kinds, newest first.
func (s *ActivityStore) RecentByToken(ctx context.Context, tokenID string, kinds []domain.ActivityKind, limit int) ([]*domain.WalletActivity, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	kindStrs := make([]string, 0, len(kinds))
	for _, k := range kinds {
		kindStrs = append(kindStrs, string(k))
	}

	query := `
		SELECT ` + activityColumns + `
		FROM wallet_activity
		WHERE token_id = $1 AND (cardinality($2::text[]) = 0 OR kind = ANY($2))
		ORDER BY timestamp DESC, activity_id DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, tokenID, kindStrs, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent activity: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// BalanceOf folds the wallet's rows into a live balance.
func (s *ActivityStore) BalanceOf(ctx context.Context, tokenID, wallet string) (decimal.Decimal, error) {
	return balanceOf(ctx, s.pool, tokenID, wallet)
}

func insertActivity(ctx context.Context, q querier, a *domain.WalletActivity) error {
	query := `
		INSERT INTO wallet_activity (
			activity_id, wallet, token_id, kind, amount, pct_of_supply, whale_flagged, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		a.ActivityID,
		a.Wallet,
		a.TokenID,
		string(a.Kind),
		a.Amount,
		a.PctOfSupply,
		a.WhaleFlagged,
		a.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert wallet activity: %w", err)
	}
	return nil
}

func balanceOf(ctx context.Context, q querier, tokenID, wallet string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN kind IN ('mint', 'buy') THEN amount ELSE -amount END
		), 0)
		FROM wallet_activity
		WHERE token_id = $1 AND wallet = $2
	`

	var balance decimal.Decimal
	if err := q.QueryRow(ctx, query, tokenID, wallet).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("fold wallet balance: %w", err)
	}
	return balance, nil
}

func scanActivities(rows pgx.Rows) ([]*domain.WalletActivity, error) {
	var result []*domain.WalletActivity

	for rows.Next() {
		var a domain.WalletActivity
		var kind string

		err := rows.Scan(
			&a.ActivityID,
			&a.Wallet,
			&a.TokenID,
			&kind,
			&a.Amount,
			&a.PctOfSupply,
			&a.WhaleFlagged,
			&a.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}

		a.Kind = domain.ActivityKind(kind)
		result = append(result, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}

	return result, nil
}
