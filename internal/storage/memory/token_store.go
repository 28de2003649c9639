package memory

import (
	"context"
	"sort"
	"strings"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// tokenStore is the in-memory implementation of storage.TokenStore.
type tokenStore struct {
	l *Ledger
}

var _ storage.TokenStore = (*tokenStore)(nil)

func (s *tokenStore) Insert(_ context.Context, t *domain.Token) error {
	if err := validateToken(t); err != nil {
		return err
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.insertTokenLocked(t)
}

func (s *tokenStore) GetByID(_ context.Context, tokenID string) (*domain.Token, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	t, ok := s.l.tokens[tokenID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyToken(t), nil
}

func (s *tokenStore) GetBySymbol(_ context.Context, symbol string) (*domain.Token, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	id, ok := s.l.symbols[strings.ToUpper(symbol)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyToken(s.l.tokens[id]), nil
}

func (s *tokenStore) List(_ context.Context) ([]*domain.Token, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	result := make([]*domain.Token, 0, len(s.l.tokens))
	for _, t := range s.l.tokens {
		result = append(result, copyToken(t))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LaunchedAt != result[j].LaunchedAt {
			return result[i].LaunchedAt < result[j].LaunchedAt
		}
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}

func (s *tokenStore) Update(_ context.Context, t *domain.Token, expectedVersion int64) error {
	if err := validateToken(t); err != nil {
		return err
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.updateTokenLocked(t, expectedVersion)
}

func validateToken(t *domain.Token) error {
	if t == nil || t.TokenID == "" || t.Symbol == "" {
		return storage.ErrInvalidInput
	}
	return nil
}

// insertTokenLocked adds the token. Caller holds l.mu.
func (l *Ledger) insertTokenLocked(t *domain.Token) error {
	symbol := strings.ToUpper(t.Symbol)
	if _, exists := l.tokens[t.TokenID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := l.symbols[symbol]; exists {
		return storage.ErrDuplicateKey
	}

	c := copyToken(t)
	if c.Version == 0 {
		c.Version = 1
	}
	l.tokens[t.TokenID] = c
	l.symbols[symbol] = t.TokenID
	return nil
}

// updateTokenLocked replaces mutable fields after a version check.
// Caller holds l.mu.
func (l *Ledger) updateTokenLocked(t *domain.Token, expectedVersion int64) error {
	cur, ok := l.tokens[t.TokenID]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return storage.ErrVersionConflict
	}

	c := copyToken(t)
	c.Version = expectedVersion + 1
	l.tokens[t.TokenID] = c
	return nil
}
