package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

func newTestActivity(id, tokenID, wallet string, kind domain.ActivityKind, amount int64, ts int64) *domain.WalletActivity {
	return &domain.WalletActivity{
		ActivityID: id,
		TokenID:    tokenID,
		Wallet:     wallet,
		Kind:       kind,
		Amount:     decimal.NewFromInt(amount),
		Timestamp:  ts,
	}
}

func TestActivityStore_InsertAndGet(t *testing.T) {
	store := NewLedger().Activities()
	ctx := context.Background()

	if err := store.Insert(ctx, newTestActivity("a1", "t1", "w1", domain.ActivityBuy, 100, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rows, err := store.GetByToken(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Kind != domain.ActivityBuy {
		t.Errorf("Kind mismatch: got %s", rows[0].Kind)
	}
}

func TestActivityStore_DuplicateID(t *testing.T) {
	store := NewLedger().Activities()
	ctx := context.Background()

	row := newTestActivity("a1", "t1", "w1", domain.ActivityBuy, 100, 1000)
	if err := store.Insert(ctx, row); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, row)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestActivityStore_BalanceOf(t *testing.T) {
	store := NewLedger().Activities()
	ctx := context.Background()

	rows := []*domain.WalletActivity{
		newTestActivity("a1", "t1", "w1", domain.ActivityMint, 500, 1000),
		newTestActivity("a2", "t1", "w1", domain.ActivityBuy, 100, 2000),
		newTestActivity("a3", "t1", "w1", domain.ActivitySell, 50, 3000),
		newTestActivity("a4", "t1", "w1", domain.ActivityBurn, 25, 4000),
		newTestActivity("a5", "t1", "w2", domain.ActivityBuy, 999, 5000), // other wallet
		newTestActivity("a6", "t2", "w1", domain.ActivityBuy, 999, 6000), // other token
	}
	for _, r := range rows {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	balance, err := store.BalanceOf(ctx, "t1", "w1")
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}

	// 500 + 100 - 50 - 25 = 525
	if !balance.Equal(decimal.NewFromInt(525)) {
		t.Errorf("Balance mismatch: got %s, want 525", balance)
	}
}

func TestActivityStore_RecentByToken(t *testing.T) {
	store := NewLedger().Activities()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		kind := domain.ActivityBuy
		if i%2 == 1 {
			kind = domain.ActivitySell
		}
		row := newTestActivity(fmt.Sprintf("a%d", i), "t1", fmt.Sprintf("w%d", i), kind, 10, int64(1000+i))
		if err := store.Insert(ctx, row); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	recent, err := store.RecentByToken(ctx, "t1", []domain.ActivityKind{domain.ActivityBuy}, 3)
	if err != nil {
		t.Fatalf("RecentByToken failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(recent))
	}

	// Newest buys first: a8, a6, a4.
	want := []string{"a8", "a6", "a4"}
	for i, w := range want {
		if recent[i].ActivityID != w {
			t.Errorf("Row %d: got %s, want %s", i, recent[i].ActivityID, w)
		}
	}
}

func TestActivityStore_RecentByToken_InvalidLimit(t *testing.T) {
	store := NewLedger().Activities()
	ctx := context.Background()

	_, err := store.RecentByToken(ctx, "t1", nil, 0)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
