package postgres

import (
	"context"
	"fmt"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// Ledger implements storage.Ledger using PostgreSQL. Composite units run in
// a single transaction so a failure leaves no partial state.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a new PostgreSQL-backed ledger.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Compile-time interface check.
var _ storage.Ledger = (*Ledger)(nil)

func (l *Ledger) Tokens() storage.TokenStore               { return NewTokenStore(l.pool) }
func (l *Ledger) Distributions() storage.DistributionStore { return NewDistributionStore(l.pool) }
func (l *Ledger) Activities() storage.ActivityStore        { return NewActivityStore(l.pool) }
func (l *Ledger) Eligibility() storage.EligibilityStore    { return NewEligibilityStore(l.pool) }
func (l *Ledger) Pools() storage.PoolStore                 { return NewPoolStore(l.pool) }
func (l *Ledger) Selections() storage.SelectionStore       { return NewSelectionStore(l.pool) }
func (l *Ledger) ProfitEvents() storage.ProfitEventStore   { return NewProfitEventStore(l.pool) }
func (l *Ledger) AuditEvents() storage.AuditEventStore     { return NewAuditEventStore(l.pool) }

// inTx runs fn inside a transaction, rolling back on error.
func (l *Ledger) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// MintToken persists a mint as one transaction.
func (l *Ledger) MintToken(ctx context.Context, u *storage.MintUnit) error {
	if u == nil || u.Token == nil || u.Distribution == nil || u.Activity == nil || u.Eligibility == nil {
		return storage.ErrInvalidInput
	}

	return l.inTx(ctx, func(q querier) error {
		if err := insertToken(ctx, q, u.Token); err != nil {
			return err
		}
		if err := insertDistribution(ctx, q, u.Distribution); err != nil {
			return err
		}
		if err := insertActivity(ctx, q, u.Activity); err != nil {
			return err
		}
		if err := upsertEligibility(ctx, q, u.Eligibility, 0); err != nil {
			return err
		}
		for _, c := range u.PoolCredits {
			if c.Amount.Sign() <= 0 {
				return storage.ErrInvalidInput
			}
			if err := creditPool(ctx, q, c.Pool, c.Amount); err != nil {
				return err
			}
		}
		if u.Audit != nil {
			if err := insertAuditEvent(ctx, q, u.Audit); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyTrade persists a trade or burn as one transaction. The version checks
// on the token and eligibility rows reject concurrent lost updates.
func (l *Ledger) ApplyTrade(ctx context.Context, u *storage.TradeUnit) error {
	if u == nil || u.Activity == nil || u.Token == nil {
		return storage.ErrInvalidInput
	}

	return l.inTx(ctx, func(q querier) error {
		if err := insertActivity(ctx, q, u.Activity); err != nil {
			return err
		}
		if err := updateToken(ctx, q, u.Token, u.TokenExpectedVersion); err != nil {
			return err
		}
		if u.Eligibility != nil {
			if err := upsertEligibility(ctx, q, u.Eligibility, u.EligibilityExpectedVersion); err != nil {
				return err
			}
		}
		for _, c := range u.PoolCredits {
			if c.Amount.Sign() <= 0 {
				return storage.ErrInvalidInput
			}
			if err := creditPool(ctx, q, c.Pool, c.Amount); err != nil {
				return err
			}
		}
		for _, a := range u.Audit {
			if a == nil {
				continue
			}
			if err := insertAuditEvent(ctx, q, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// DistributeProfit zeroes the source pool and applies all credits in one
// transaction. A crash mid-split rolls back to the untouched source balance.
func (l *Ledger) DistributeProfit(ctx context.Context, u *storage.ProfitUnit) error {
	if u == nil || u.SourcePool == "" || u.Event == nil || u.Event.EventID == "" {
		return storage.ErrInvalidInput
	}

	return l.inTx(ctx, func(q querier) error {
		// Zero the source first so a credit back into the source pool
		// survives.
		if err := zeroPool(ctx, q, u.SourcePool); err != nil {
			return err
		}
		for _, c := range u.Credits {
			if c.Amount.Sign() < 0 {
				return storage.ErrInvalidInput
			}
			if c.Amount.Sign() == 0 {
				// Still require the pool to exist.
				var exists bool
				check := `SELECT EXISTS (SELECT 1 FROM pooled_wallets WHERE name = $1)`
				if err := q.QueryRow(ctx, check, c.Pool).Scan(&exists); err != nil {
					return fmt.Errorf("check pool %s: %w", c.Pool, err)
				}
				if !exists {
					return storage.ErrNotFound
				}
				continue
			}
			if err := creditPool(ctx, q, c.Pool, c.Amount); err != nil {
				return err
			}
		}
		if err := insertProfitEvent(ctx, q, u.Event); err != nil {
			return err
		}
		if u.Audit != nil {
			if err := insertAuditEvent(ctx, q, u.Audit); err != nil {
				return err
			}
		}
		return nil
	})
}

// PayLuckyReward debits the lucky pool and appends the selection in one
// transaction.
func (l *Ledger) PayLuckyReward(ctx context.Context, u *storage.RewardUnit) error {
	if u == nil || u.Selection == nil || u.Selection.SelectionID == "" {
		return storage.ErrInvalidInput
	}
	if u.Selection.DistributionAmount.Sign() <= 0 {
		return storage.ErrInvalidInput
	}

	return l.inTx(ctx, func(q querier) error {
		err := debitPoolForReward(ctx, q, domain.PoolLucky, u.Selection.DistributionAmount, u.Selection.Timestamp)
		if err != nil {
			return err
		}
		if err := insertSelection(ctx, q, u.Selection); err != nil {
			return err
		}
		if u.Audit != nil {
			if err := insertAuditEvent(ctx, q, u.Audit); err != nil {
				return err
			}
		}
		return nil
	})
}
