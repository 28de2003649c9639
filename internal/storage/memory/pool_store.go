package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// poolStore is the in-memory implementation of storage.PoolStore.
type poolStore struct {
	l *Ledger
}

var _ storage.PoolStore = (*poolStore)(nil)

func (s *poolStore) Get(_ context.Context, name string) (*domain.PooledWallet, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	p, ok := s.l.pools[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPool(p), nil
}

func (s *poolStore) List(_ context.Context) ([]*domain.PooledWallet, error) {
	s.l.mu.RLock()
	defer s.l.mu.RUnlock()

	result := make([]*domain.PooledWallet, 0, len(s.l.pools))
	for _, name := range domain.PoolNames {
		if p, ok := s.l.pools[name]; ok {
			result = append(result, copyPool(p))
		}
	}
	return result, nil
}

func (s *poolStore) Credit(_ context.Context, name string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return storage.ErrInvalidInput
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	return s.l.creditPoolLocked(name, amount)
}

// creditPoolLocked adds amount to the pool balance. Caller holds l.mu.
func (l *Ledger) creditPoolLocked(name string, amount decimal.Decimal) error {
	p, ok := l.pools[name]
	if !ok {
		return storage.ErrNotFound
	}
	p.Balance = p.Balance.Add(amount)
	p.UpdatedAt = time.Now().UnixMilli()
	return nil
}
