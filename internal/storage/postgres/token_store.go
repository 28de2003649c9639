package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `token_id, symbol, name, supply, price, volume_24h, holder_count, launched_at, version, created_at`

// Insert adds a new token. Returns ErrDuplicateKey if token_id or symbol exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	return insertToken(ctx, s.pool, t)
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(ctx context.Context, tokenID string) (*domain.Token, error) {
	return getTokenByID(ctx, s.pool, tokenID, false)
}

// GetBySymbol retrieves a token by symbol. Returns ErrNotFound if not exists.
func (s *TokenStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE symbol = $1`

	row := s.pool.QueryRow(ctx, query, strings.ToUpper(symbol))
	return scanToken(row)
}

// List retrieves all tokens ordered by launch time ASC.
func (s *TokenStore) List(ctx context.Context) ([]*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens ORDER BY launched_at ASC, token_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}

// Update replaces the mutable token fields after a version check.
func (s *TokenStore) Update(ctx context.Context, t *domain.Token, expectedVersion int64) error {
	return updateToken(ctx, s.pool, t, expectedVersion)
}

func insertToken(ctx context.Context, q querier, t *domain.Token) error {
	query := `
		INSERT INTO tokens (
			token_id, symbol, name, supply, price, volume_24h, holder_count, launched_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
	`

	_, err := q.Exec(ctx, query,
		t.TokenID,
		strings.ToUpper(t.Symbol),
		t.Name,
		t.Supply,
		t.Price,
		t.Volume24h,
		t.HolderCount,
		t.LaunchedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func getTokenByID(ctx context.Context, q querier, tokenID string, forUpdate bool) (*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE token_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	row := q.QueryRow(ctx, query, tokenID)
	return scanToken(row)
}

func updateToken(ctx context.Context, q querier, t *domain.Token, expectedVersion int64) error {
	query := `
		UPDATE tokens
		SET supply = $2, price = $3, volume_24h = $4, holder_count = $5, version = version + 1
		WHERE token_id = $1 AND version = $6
	`

	tag, err := q.Exec(ctx, query,
		t.TokenID,
		t.Supply,
		t.Price,
		t.Volume24h,
		t.HolderCount,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row missing or version mismatch.
		if _, err := getTokenByID(ctx, q, t.TokenID, false); err != nil {
			return err
		}
		return storage.ErrVersionConflict
	}
	return nil
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token

	err := row.Scan(
		&t.TokenID,
		&t.Symbol,
		&t.Name,
		&t.Supply,
		&t.Price,
		&t.Volume24h,
		&t.HolderCount,
		&t.LaunchedAt,
		&t.Version,
		&t.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan token row: %w", err)
	}

	return &t, nil
}
