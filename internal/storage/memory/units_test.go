package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

func newMintUnit(tokenID, symbol, creator string) *storage.MintUnit {
	return &storage.MintUnit{
		Token: newTestToken(tokenID, symbol),
		Distribution: &domain.DistributionRecord{
			TokenID:       tokenID,
			AIAmount:      decimal.NewFromInt(70_000),
			CreatorAmount: decimal.NewFromInt(50_000),
			LuckyAmount:   decimal.NewFromInt(30_000),
			SystemAmount:  decimal.NewFromInt(20_000),
			PublicAmount:  decimal.NewFromInt(830_000),
		},
		Activity: newTestActivity("mint-"+tokenID, tokenID, creator, domain.ActivityMint, 50_000, 1000),
		Eligibility: &domain.EligibilityRecord{
			Wallet:     creator,
			TokenID:    tokenID,
			IsEligible: true,
			EverHeld:   true,
		},
		PoolCredits: []storage.PoolCredit{
			{Pool: domain.PoolAI, Amount: decimal.NewFromInt(70_000)},
			{Pool: domain.PoolLucky, Amount: decimal.NewFromInt(30_000)},
			{Pool: domain.PoolSystem, Amount: decimal.NewFromInt(20_000)},
		},
		Audit: &domain.AuditEvent{EventID: "audit-" + tokenID, Kind: domain.AuditMint, TokenID: tokenID},
	}
}

func TestLedger_MintToken(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.MintToken(ctx, newMintUnit("t1", "MOON", "creator1")); err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}

	if _, err := l.Tokens().GetByID(ctx, "t1"); err != nil {
		t.Errorf("token not persisted: %v", err)
	}
	if _, err := l.Distributions().GetByTokenID(ctx, "t1"); err != nil {
		t.Errorf("distribution not persisted: %v", err)
	}
	if _, err := l.Eligibility().Get(ctx, "creator1", "t1"); err != nil {
		t.Errorf("eligibility not persisted: %v", err)
	}

	lucky, _ := l.Pools().Get(ctx, domain.PoolLucky)
	if !lucky.Balance.Equal(decimal.NewFromInt(30_000)) {
		t.Errorf("lucky pool balance mismatch: got %s", lucky.Balance)
	}

	events, _ := l.AuditEvents().GetByToken(ctx, "t1")
	if len(events) != 1 {
		t.Errorf("expected 1 audit event, got %d", len(events))
	}
}

func TestLedger_MintToken_DuplicateSymbolNoPartialState(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.MintToken(ctx, newMintUnit("t1", "MOON", "creator1")); err != nil {
		t.Fatalf("First mint failed: %v", err)
	}

	err := l.MintToken(ctx, newMintUnit("t2", "moon", "creator2"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing of the failed mint may be visible.
	if _, err := l.Tokens().GetByID(ctx, "t2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed mint left token behind: %v", err)
	}
	lucky, _ := l.Pools().Get(ctx, domain.PoolLucky)
	if !lucky.Balance.Equal(decimal.NewFromInt(30_000)) {
		t.Errorf("failed mint changed pool balance: got %s", lucky.Balance)
	}
}

func TestLedger_ApplyTrade(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.MintToken(ctx, newMintUnit("t1", "MOON", "creator1")); err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}

	tok, _ := l.Tokens().GetByID(ctx, "t1")
	tok.Volume24h = tok.Volume24h.Add(decimal.NewFromInt(100))
	tok.HolderCount++

	unit := &storage.TradeUnit{
		Activity:             newTestActivity("a-buy", "t1", "w1", domain.ActivityBuy, 100, 2000),
		Token:                tok,
		TokenExpectedVersion: tok.Version,
		Eligibility: &domain.EligibilityRecord{
			Wallet:      "w1",
			TokenID:     "t1",
			TotalBought: decimal.NewFromInt(100),
			IsEligible:  true,
			EverHeld:    true,
		},
		EligibilityExpectedVersion: 0,
		PoolCredits: []storage.PoolCredit{
			{Pool: domain.PoolCreator, Amount: decimal.NewFromInt(1)},
			{Pool: domain.PoolSystem, Amount: decimal.NewFromInt(1)},
		},
		Audit: []*domain.AuditEvent{{EventID: "audit-a-buy", Kind: domain.AuditTrade, TokenID: "t1", Wallet: "w1"}},
	}

	if err := l.ApplyTrade(ctx, unit); err != nil {
		t.Fatalf("ApplyTrade failed: %v", err)
	}

	got, _ := l.Tokens().GetByID(ctx, "t1")
	if !got.Volume24h.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Volume24h mismatch: got %s", got.Volume24h)
	}
	if got.HolderCount != 2 {
		t.Errorf("HolderCount mismatch: got %d", got.HolderCount)
	}

	creatorPool, _ := l.Pools().Get(ctx, domain.PoolCreator)
	if !creatorPool.Balance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("creator fee not credited: got %s", creatorPool.Balance)
	}
}

func TestLedger_ApplyTrade_StaleTokenVersion(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.MintToken(ctx, newMintUnit("t1", "MOON", "creator1")); err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}

	tok, _ := l.Tokens().GetByID(ctx, "t1")

	unit := &storage.TradeUnit{
		Activity:             newTestActivity("a-buy", "t1", "w1", domain.ActivityBuy, 100, 2000),
		Token:                tok,
		TokenExpectedVersion: tok.Version + 7, // stale
	}

	err := l.ApplyTrade(ctx, unit)
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("Expected ErrVersionConflict, got %v", err)
	}

	// Activity must not have been appended.
	rows, _ := l.Activities().GetByToken(ctx, "t1")
	if len(rows) != 1 { // only the mint row
		t.Errorf("Expected 1 activity row, got %d", len(rows))
	}
}

func TestLedger_DistributeProfit(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.Pools().Credit(ctx, domain.PoolSystem, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	unit := &storage.ProfitUnit{
		SourcePool: domain.PoolSystem,
		Credits: []storage.PoolCredit{
			{Pool: domain.PoolAI, Amount: decimal.NewFromInt(800)},
			{Pool: domain.PoolTreasury, Amount: decimal.NewFromInt(150)},
			{Pool: domain.PoolLucky, Amount: decimal.NewFromInt(30)},
			{Pool: domain.PoolCreator, Amount: decimal.NewFromInt(20)},
		},
		Event: &domain.ProfitEvent{EventID: "p1", SourcePool: domain.PoolSystem, SaleAmount: decimal.NewFromInt(1000)},
	}

	if err := l.DistributeProfit(ctx, unit); err != nil {
		t.Fatalf("DistributeProfit failed: %v", err)
	}

	source, _ := l.Pools().Get(ctx, domain.PoolSystem)
	if !source.Balance.IsZero() {
		t.Errorf("source pool not zeroed: got %s", source.Balance)
	}
	ai, _ := l.Pools().Get(ctx, domain.PoolAI)
	if !ai.Balance.Equal(decimal.NewFromInt(800)) {
		t.Errorf("ai pool mismatch: got %s", ai.Balance)
	}

	events, _ := l.ProfitEvents().List(ctx)
	if len(events) != 1 {
		t.Errorf("expected 1 profit event, got %d", len(events))
	}
}

func TestLedger_DistributeProfit_UnknownPoolNoPartialState(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.Pools().Credit(ctx, domain.PoolSystem, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	unit := &storage.ProfitUnit{
		SourcePool: domain.PoolSystem,
		Credits: []storage.PoolCredit{
			{Pool: domain.PoolAI, Amount: decimal.NewFromInt(800)},
			{Pool: "nonexistent", Amount: decimal.NewFromInt(200)},
		},
		Event: &domain.ProfitEvent{EventID: "p1", SourcePool: domain.PoolSystem},
	}

	err := l.DistributeProfit(ctx, unit)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// Source untouched, no credits applied.
	source, _ := l.Pools().Get(ctx, domain.PoolSystem)
	if !source.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("source pool changed: got %s", source.Balance)
	}
	ai, _ := l.Pools().Get(ctx, domain.PoolAI)
	if !ai.Balance.IsZero() {
		t.Errorf("partial credit applied: got %s", ai.Balance)
	}
}

func TestLedger_PayLuckyReward(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.Pools().Credit(ctx, domain.PoolLucky, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	unit := &storage.RewardUnit{
		Selection: &domain.LuckySelection{
			SelectionID:        "s1",
			Wallet:             "w1",
			TokenID:            "t1",
			DistributionAmount: decimal.NewFromInt(40),
			ActivityScore:      93,
			Timestamp:          5000,
		},
	}

	if err := l.PayLuckyReward(ctx, unit); err != nil {
		t.Fatalf("PayLuckyReward failed: %v", err)
	}

	pool, _ := l.Pools().Get(ctx, domain.PoolLucky)
	if !pool.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("lucky balance mismatch: got %s", pool.Balance)
	}
	if pool.RewardCount != 1 {
		t.Errorf("reward count mismatch: got %d", pool.RewardCount)
	}
	if !pool.TotalRewardsPaid.Equal(decimal.NewFromInt(40)) {
		t.Errorf("total rewards mismatch: got %s", pool.TotalRewardsPaid)
	}
	if pool.LastRewardAt == nil || *pool.LastRewardAt != 5000 {
		t.Errorf("last reward at mismatch: got %v", pool.LastRewardAt)
	}

	selections, _ := l.Selections().GetByToken(ctx, "t1")
	if len(selections) != 1 {
		t.Errorf("expected 1 selection, got %d", len(selections))
	}
}

func TestLedger_PayLuckyReward_InsufficientBalance(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	if err := l.Pools().Credit(ctx, domain.PoolLucky, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	unit := &storage.RewardUnit{
		Selection: &domain.LuckySelection{
			SelectionID:        "s1",
			Wallet:             "w1",
			TokenID:            "t1",
			DistributionAmount: decimal.NewFromInt(40),
		},
	}

	err := l.PayLuckyReward(ctx, unit)
	if !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	pool, _ := l.Pools().Get(ctx, domain.PoolLucky)
	if !pool.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance changed on failed payout: got %s", pool.Balance)
	}
	selections, _ := l.Selections().GetByToken(ctx, "t1")
	if len(selections) != 0 {
		t.Errorf("selection persisted on failed payout")
	}
}
