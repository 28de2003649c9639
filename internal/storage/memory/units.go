package memory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// Composite units follow the validate-then-write pattern: every check runs
// before the first mutation so a failed unit leaves no partial state.

// MintToken persists a mint as one unit.
func (l *Ledger) MintToken(_ context.Context, u *storage.MintUnit) error {
	if u == nil || u.Token == nil || u.Distribution == nil || u.Activity == nil || u.Eligibility == nil {
		return storage.ErrInvalidInput
	}
	if err := validateToken(u.Token); err != nil {
		return err
	}
	if err := validateActivity(u.Activity); err != nil {
		return err
	}
	if err := validateEligibility(u.Eligibility); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// First pass: checks only.
	if _, exists := l.tokens[u.Token.TokenID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := l.symbols[strings.ToUpper(u.Token.Symbol)]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := l.distributions[u.Distribution.TokenID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := l.activityIDs[u.Activity.ActivityID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := l.eligibility[eligibilityKey(u.Eligibility.Wallet, u.Eligibility.TokenID)]; exists {
		return storage.ErrDuplicateKey
	}
	for _, c := range u.PoolCredits {
		if _, ok := l.pools[c.Pool]; !ok {
			return storage.ErrNotFound
		}
		if c.Amount.Sign() <= 0 {
			return storage.ErrInvalidInput
		}
	}

	// Second pass: writes.
	_ = l.insertTokenLocked(u.Token)
	_ = l.insertDistributionLocked(u.Distribution)
	_ = l.insertActivityLocked(u.Activity)
	_ = l.upsertEligibilityLocked(u.Eligibility, 0)
	for _, c := range u.PoolCredits {
		_ = l.creditPoolLocked(c.Pool, c.Amount)
	}
	if u.Audit != nil {
		_ = l.insertAuditLocked(u.Audit)
	}

	return nil
}

// ApplyTrade persists a trade or burn as one unit.
func (l *Ledger) ApplyTrade(_ context.Context, u *storage.TradeUnit) error {
	if u == nil || u.Activity == nil || u.Token == nil {
		return storage.ErrInvalidInput
	}
	if err := validateActivity(u.Activity); err != nil {
		return err
	}
	if u.Eligibility != nil {
		if err := validateEligibility(u.Eligibility); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// First pass: checks only.
	if _, exists := l.activityIDs[u.Activity.ActivityID]; exists {
		return storage.ErrDuplicateKey
	}
	cur, ok := l.tokens[u.Token.TokenID]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Version != u.TokenExpectedVersion {
		return storage.ErrVersionConflict
	}
	if u.Eligibility != nil {
		key := eligibilityKey(u.Eligibility.Wallet, u.Eligibility.TokenID)
		rec, exists := l.eligibility[key]
		if u.EligibilityExpectedVersion == 0 {
			if exists {
				return storage.ErrVersionConflict
			}
		} else {
			if !exists {
				return storage.ErrNotFound
			}
			if rec.Version != u.EligibilityExpectedVersion {
				return storage.ErrVersionConflict
			}
		}
	}
	for _, c := range u.PoolCredits {
		if _, ok := l.pools[c.Pool]; !ok {
			return storage.ErrNotFound
		}
		if c.Amount.Sign() <= 0 {
			return storage.ErrInvalidInput
		}
	}

	// Second pass: writes.
	_ = l.insertActivityLocked(u.Activity)
	_ = l.updateTokenLocked(u.Token, u.TokenExpectedVersion)
	if u.Eligibility != nil {
		_ = l.upsertEligibilityLocked(u.Eligibility, u.EligibilityExpectedVersion)
	}
	for _, c := range u.PoolCredits {
		_ = l.creditPoolLocked(c.Pool, c.Amount)
	}
	for _, a := range u.Audit {
		if a != nil {
			_ = l.insertAuditLocked(a)
		}
	}

	return nil
}

// DistributeProfit zeroes the source pool and applies all credits as one
// unit.
func (l *Ledger) DistributeProfit(_ context.Context, u *storage.ProfitUnit) error {
	if u == nil || u.SourcePool == "" || u.Event == nil || u.Event.EventID == "" {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// First pass: checks only.
	source, ok := l.pools[u.SourcePool]
	if !ok {
		return storage.ErrNotFound
	}
	for _, c := range u.Credits {
		if _, ok := l.pools[c.Pool]; !ok {
			return storage.ErrNotFound
		}
		if c.Amount.Sign() < 0 {
			return storage.ErrInvalidInput
		}
	}
	if _, exists := l.profitEventIDs[u.Event.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	// Second pass: writes. The source is zeroed first so a credit back into
	// the source pool is not lost.
	now := time.Now().UnixMilli()
	source.Balance = decimal.Zero
	source.UpdatedAt = now
	for _, c := range u.Credits {
		if c.Amount.Sign() == 0 {
			continue
		}
		_ = l.creditPoolLocked(c.Pool, c.Amount)
	}
	_ = l.insertProfitEventLocked(u.Event)
	if u.Audit != nil {
		_ = l.insertAuditLocked(u.Audit)
	}

	return nil
}

// PayLuckyReward debits the lucky pool and appends the selection as one
// unit.
func (l *Ledger) PayLuckyReward(_ context.Context, u *storage.RewardUnit) error {
	if u == nil || u.Selection == nil || u.Selection.SelectionID == "" {
		return storage.ErrInvalidInput
	}
	if u.Selection.DistributionAmount.Sign() <= 0 {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// First pass: checks only.
	pool, ok := l.pools[domain.PoolLucky]
	if !ok {
		return storage.ErrNotFound
	}
	if pool.Balance.LessThan(u.Selection.DistributionAmount) {
		return storage.ErrInsufficientBalance
	}
	if _, exists := l.selectionIDs[u.Selection.SelectionID]; exists {
		return storage.ErrDuplicateKey
	}

	// Second pass: writes.
	now := time.Now().UnixMilli()
	pool.Balance = pool.Balance.Sub(u.Selection.DistributionAmount)
	pool.TotalRewardsPaid = pool.TotalRewardsPaid.Add(u.Selection.DistributionAmount)
	pool.RewardCount++
	at := u.Selection.Timestamp
	pool.LastRewardAt = &at
	pool.UpdatedAt = now
	_ = l.insertSelectionLocked(u.Selection)
	if u.Audit != nil {
		_ = l.insertAuditLocked(u.Audit)
	}

	return nil
}
