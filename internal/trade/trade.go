// Package trade records buys, sells and burns against a token, computes
// fees and whale flags, and keeps the per-wallet eligibility aggregates
// current.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/eligibility"
	"token-ledger-engine/internal/retry"
	"token-ledger-engine/internal/storage"
	"token-ledger-engine/internal/wallet"
)

// Fee and whale parameters. Fees are always computed on the trade's
// notional amount regardless of direction.
var (
	feeRate               = decimal.NewFromFloat(0.01) // 1% creator + 1% system
	whaleBuyThresholdPct  = decimal.NewFromInt(5)
	whaleSellThresholdPct = decimal.NewFromInt(50)

	oneHundred = decimal.NewFromInt(100)
)

// Result is the outcome of a successful trade.
type Result struct {
	ActivityID   string
	CreatorFee   decimal.Decimal
	SystemFee    decimal.Decimal
	WhaleFlagged bool
	PctOfSupply  decimal.Decimal
	NewVolume24h decimal.Decimal
}

// BurnResult is the outcome of a successful burn.
type BurnResult struct {
	ActivityID  string
	NewSupply   decimal.Decimal
	PctOfSupply decimal.Decimal
}

// Processor records trades. Writes go through the ledger's atomic trade
// unit; version conflicts from concurrent trades on the same token or
// wallet are retried from a fresh read.
type Processor struct {
	ledger   storage.Ledger
	clock    clockwork.Clock
	logger   *slog.Logger
	retryCfg retry.Config
}

// NewProcessor creates a new Processor.
func NewProcessor(ledger storage.Ledger, clock clockwork.Clock, logger *slog.Logger) *Processor {
	return &Processor{
		ledger:   ledger,
		clock:    clock,
		logger:   logger,
		retryCfg: retry.DefaultConfig(),
	}
}

// Trade records one buy or sell. Whale detection is advisory: the trade is
// recorded either way and the flag returned to the caller.
func (p *Processor) Trade(ctx context.Context, tokenID, walletAddr string, kind domain.ActivityKind, amount decimal.Decimal) (*Result, error) {
	if kind != domain.ActivityBuy && kind != domain.ActivitySell {
		return nil, fmt.Errorf("%w: kind must be buy or sell", storage.ErrInvalidInput)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", storage.ErrInvalidInput)
	}
	if err := wallet.Validate(walletAddr); err != nil {
		return nil, fmt.Errorf("%w: wallet: %v", storage.ErrInvalidInput, err)
	}
	amount = domain.Quantize(amount)

	var result *Result
	err := retry.Do(ctx, p.retryCfg, func() error {
		r, err := p.tradeOnce(ctx, tokenID, walletAddr, kind, amount)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.WhaleFlagged {
		p.logger.Warn("whale trade flagged",
			"token_id", tokenID,
			"wallet", walletAddr,
			"kind", string(kind),
			"pct_of_supply", result.PctOfSupply.String(),
		)
	}
	return result, nil
}

// tradeOnce runs a single read-compute-write attempt. A version conflict
// means a concurrent writer got there first; the caller re-runs from a
// fresh read.
func (p *Processor) tradeOnce(ctx context.Context, tokenID, walletAddr string, kind domain.ActivityKind, amount decimal.Decimal) (*Result, error) {
	token, err := p.ledger.Tokens().GetByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	pct := domain.Quantize(amount.Div(token.Supply).Mul(oneHundred))

	// Quantizing the total first keeps creator + system == 2% exact.
	totalFee := domain.Quantize(amount.Mul(feeRate).Mul(decimal.NewFromInt(2)))
	creatorFee := domain.Quantize(amount.Mul(feeRate))
	systemFee := totalFee.Sub(creatorFee)

	flagged := kind == domain.ActivityBuy && pct.GreaterThan(whaleBuyThresholdPct) ||
		kind == domain.ActivitySell && pct.GreaterThan(whaleSellThresholdPct)

	prev, err := p.ledger.Eligibility().Get(ctx, walletAddr, tokenID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get eligibility: %w", err)
	}

	now := p.clock.Now().UnixMilli()
	activity := &domain.WalletActivity{
		ActivityID:   uuid.NewString(),
		Wallet:       walletAddr,
		TokenID:      tokenID,
		Kind:         kind,
		Amount:       amount,
		PctOfSupply:  pct,
		WhaleFlagged: flagged,
		Timestamp:    now,
	}

	rec, expectedVersion := eligibility.Apply(prev, activity, now)
	newlyFlagged := flagged && (prev == nil || !prev.WhaleStatus)

	updated := *token
	updated.Volume24h = updated.Volume24h.Add(amount)
	if kind == domain.ActivityBuy && (prev == nil || !prev.EverHeld) {
		updated.HolderCount++
	}

	audits := []*domain.AuditEvent{{
		EventID:   uuid.NewString(),
		Kind:      domain.AuditTrade,
		TokenID:   tokenID,
		Wallet:    walletAddr,
		Detail:    fmt.Sprintf("%s %s (%s%% of supply)", kind, amount, pct.StringFixed(2)),
		Timestamp: now,
	}}
	if newlyFlagged {
		audits = append(audits, &domain.AuditEvent{
			EventID:   uuid.NewString(),
			Kind:      domain.AuditWhaleFlagged,
			TokenID:   tokenID,
			Wallet:    walletAddr,
			Detail:    fmt.Sprintf("%s of %s%% of supply", kind, pct.StringFixed(2)),
			Timestamp: now,
		})
	}

	unit := &storage.TradeUnit{
		Activity:                   activity,
		Token:                      &updated,
		TokenExpectedVersion:       token.Version,
		Eligibility:                rec,
		EligibilityExpectedVersion: expectedVersion,
		PoolCredits: []storage.PoolCredit{
			{Pool: domain.PoolCreator, Amount: creatorFee},
			{Pool: domain.PoolSystem, Amount: systemFee},
		},
		Audit: audits,
	}
	if err := p.ledger.ApplyTrade(ctx, unit); err != nil {
		return nil, fmt.Errorf("apply trade: %w", err)
	}

	return &Result{
		ActivityID:   activity.ActivityID,
		CreatorFee:   creatorFee,
		SystemFee:    systemFee,
		WhaleFlagged: flagged,
		PctOfSupply:  pct,
		NewVolume24h: updated.Volume24h,
	}, nil
}

// Burn destroys part of a wallet's holding, shrinking the token supply.
// Fails with ErrInsufficientBalance when the amount exceeds the wallet's
// live folded balance.
func (p *Processor) Burn(ctx context.Context, tokenID, walletAddr string, amount decimal.Decimal) (*BurnResult, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", storage.ErrInvalidInput)
	}
	if err := wallet.Validate(walletAddr); err != nil {
		return nil, fmt.Errorf("%w: wallet: %v", storage.ErrInvalidInput, err)
	}
	amount = domain.Quantize(amount)

	var result *BurnResult
	err := retry.Do(ctx, p.retryCfg, func() error {
		r, err := p.burnOnce(ctx, tokenID, walletAddr, amount)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

func (p *Processor) burnOnce(ctx context.Context, tokenID, walletAddr string, amount decimal.Decimal) (*BurnResult, error) {
	token, err := p.ledger.Tokens().GetByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	balance, err := p.ledger.Activities().BalanceOf(ctx, tokenID, walletAddr)
	if err != nil {
		return nil, fmt.Errorf("fold balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: burn %s exceeds balance %s", storage.ErrInsufficientBalance, amount, balance)
	}

	pct := domain.Quantize(amount.Div(token.Supply).Mul(oneHundred))

	prev, err := p.ledger.Eligibility().Get(ctx, walletAddr, tokenID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get eligibility: %w", err)
	}

	now := p.clock.Now().UnixMilli()
	activity := &domain.WalletActivity{
		ActivityID:  uuid.NewString(),
		Wallet:      walletAddr,
		TokenID:     tokenID,
		Kind:        domain.ActivityBurn,
		Amount:      amount,
		PctOfSupply: pct,
		Timestamp:   now,
	}
	rec, expectedVersion := eligibility.Apply(prev, activity, now)

	updated := *token
	updated.Supply = updated.Supply.Sub(amount)

	unit := &storage.TradeUnit{
		Activity:                   activity,
		Token:                      &updated,
		TokenExpectedVersion:       token.Version,
		Eligibility:                rec,
		EligibilityExpectedVersion: expectedVersion,
		Audit: []*domain.AuditEvent{{
			EventID:   uuid.NewString(),
			Kind:      domain.AuditBurn,
			TokenID:   tokenID,
			Wallet:    walletAddr,
			Detail:    fmt.Sprintf("burned %s (%s%% of supply)", amount, pct.StringFixed(2)),
			Timestamp: now,
		}},
	}
	if err := p.ledger.ApplyTrade(ctx, unit); err != nil {
		return nil, fmt.Errorf("apply burn: %w", err)
	}

	return &BurnResult{
		ActivityID:  activity.ActivityID,
		NewSupply:   updated.Supply,
		PctOfSupply: pct,
	}, nil
}
