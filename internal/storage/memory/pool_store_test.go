package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

func TestPoolStore_Seeded(t *testing.T) {
	store := NewLedger().Pools()
	ctx := context.Background()

	pools, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pools) != len(domain.PoolNames) {
		t.Fatalf("Expected %d pools, got %d", len(domain.PoolNames), len(pools))
	}

	for _, p := range pools {
		if !p.Balance.IsZero() {
			t.Errorf("Pool %s seeded with non-zero balance %s", p.Name, p.Balance)
		}
	}
}

func TestPoolStore_Credit(t *testing.T) {
	store := NewLedger().Pools()
	ctx := context.Background()

	if err := store.Credit(ctx, domain.PoolLucky, decimal.NewFromInt(250)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	p, err := store.Get(ctx, domain.PoolLucky)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !p.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Balance mismatch: got %s, want 250", p.Balance)
	}
}

func TestPoolStore_CreditInvalid(t *testing.T) {
	store := NewLedger().Pools()
	ctx := context.Background()

	err := store.Credit(ctx, domain.PoolLucky, decimal.NewFromInt(-1))
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	err = store.Credit(ctx, "unknown", decimal.NewFromInt(1))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
