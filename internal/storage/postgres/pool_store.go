package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

const poolColumns = `name, balance, total_rewards_paid, reward_count, last_reward_at, updated_at`

// Get retrieves a pool by name. Returns ErrNotFound if not exists.
func (s *PoolStore) Get(ctx context.Context, name string) (*domain.PooledWallet, error) {
	query := `SELECT ` + poolColumns + ` FROM pooled_wallets WHERE name = $1`

	row := s.pool.QueryRow(ctx, query, name)
	return scanPool(row)
}

// List retrieves all pools in seeding order.
func (s *PoolStore) List(ctx context.Context) ([]*domain.PooledWallet, error) {
	query := `
		SELECT ` + poolColumns + `
		FROM pooled_wallets
		ORDER BY array_position($1::text[], name)
	`

	rows, err := s.pool.Query(ctx, query, domain.PoolNames)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var result []*domain.PooledWallet
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}

	return result, nil
}

// Credit adds amount (> 0) to a pool balance.
func (s *PoolStore) Credit(ctx context.Context, name string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return storage.ErrInvalidInput
	}
	return creditPool(ctx, s.pool, name, amount)
}

func creditPool(ctx context.Context, q querier, name string, amount decimal.Decimal) error {
	query := `
		UPDATE pooled_wallets
		SET balance = balance + $2, updated_at = $3
		WHERE name = $1
	`

	tag, err := q.Exec(ctx, query, name, amount, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("credit pool %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// zeroPool sets a pool balance to zero.
func zeroPool(ctx context.Context, q querier, name string) error {
	query := `
		UPDATE pooled_wallets
		SET balance = 0, updated_at = $2
		WHERE name = $1
	`

	tag, err := q.Exec(ctx, query, name, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("zero pool %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// debitPoolForReward debits the lucky pool and updates its reward counters.
// Returns ErrInsufficientBalance when the balance is too low.
func debitPoolForReward(ctx context.Context, q querier, name string, amount decimal.Decimal, at int64) error {
	query := `
		UPDATE pooled_wallets
		SET balance = balance - $2,
			total_rewards_paid = total_rewards_paid + $2,
			reward_count = reward_count + 1,
			last_reward_at = $3,
			updated_at = $4
		WHERE name = $1 AND balance >= $2
	`

	tag, err := q.Exec(ctx, query, name, amount, at, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("debit pool %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM pooled_wallets WHERE name = $1)`
		if err := q.QueryRow(ctx, check, name).Scan(&exists); err != nil {
			return fmt.Errorf("check pool %s: %w", name, err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrInsufficientBalance
	}
	return nil
}

func scanPool(row pgx.Row) (*domain.PooledWallet, error) {
	var p domain.PooledWallet

	err := row.Scan(
		&p.Name,
		&p.Balance,
		&p.TotalRewardsPaid,
		&p.RewardCount,
		&p.LastRewardAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan pool row: %w", err)
	}

	return &p, nil
}
