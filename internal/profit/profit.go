// Package profit fans a realized profit amount out across the
// reinvestment, treasury, creator and lucky pools.
package profit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// Distributor runs the profit waterfall. The split is
// reinvestment 80% / DAO 15% / lucky 3% / creator 2%; the creator share
// absorbs the rounding residual so the four amounts sum to the profit
// exactly. Reinvestment lands in the ai pool, the DAO share in treasury.
type Distributor struct {
	ledger storage.Ledger
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewDistributor creates a new Distributor.
func NewDistributor(ledger storage.Ledger, clock clockwork.Clock, logger *slog.Logger) *Distributor {
	return &Distributor{ledger: ledger, clock: clock, logger: logger}
}

// Distribute splits totalProfit out of sourcePool. The source pool balance
// is zeroed and the four credits applied as one unit; on any failure
// nothing is applied. A non-positive totalProfit is a no-op returning a
// zero split without touching the ledger.
func (d *Distributor) Distribute(ctx context.Context, sourcePool, tokenID string, totalProfit decimal.Decimal) (*domain.ProfitEvent, error) {
	if !domain.ValidPool(sourcePool) {
		return nil, fmt.Errorf("%w: unknown pool %q", storage.ErrNotFound, sourcePool)
	}

	now := d.clock.Now().UnixMilli()
	if totalProfit.Sign() <= 0 {
		d.logger.Info("profit distribution skipped", "source", sourcePool, "total_profit", totalProfit.String())
		return &domain.ProfitEvent{
			TokenID:    tokenID,
			SourcePool: sourcePool,
			SaleAmount: decimal.Zero,
			Timestamp:  now,
		}, nil
	}

	totalProfit = domain.Quantize(totalProfit)
	reinvest := domain.Quantize(totalProfit.Mul(domain.ProfitFractionReinvest))
	dao := domain.Quantize(totalProfit.Mul(domain.ProfitFractionDAO))
	lucky := domain.Quantize(totalProfit.Mul(domain.ProfitFractionLucky))
	creator := totalProfit.Sub(reinvest).Sub(dao).Sub(lucky)
	if creator.Sign() < 0 {
		return nil, fmt.Errorf("%w: profit too small to split", storage.ErrInvalidInput)
	}

	event := &domain.ProfitEvent{
		EventID:            uuid.NewString(),
		TokenID:            tokenID,
		SourcePool:         sourcePool,
		SaleAmount:         totalProfit,
		ReinvestmentAmount: reinvest,
		DAOAmount:          dao,
		LuckyAmount:        lucky,
		CreatorAmount:      creator,
		Timestamp:          now,
	}

	unit := &storage.ProfitUnit{
		SourcePool: sourcePool,
		Credits: []storage.PoolCredit{
			{Pool: domain.PoolAI, Amount: reinvest},
			{Pool: domain.PoolTreasury, Amount: dao},
			{Pool: domain.PoolLucky, Amount: lucky},
			{Pool: domain.PoolCreator, Amount: creator},
		},
		Event: event,
		Audit: &domain.AuditEvent{
			EventID:   uuid.NewString(),
			Kind:      domain.AuditProfitSplit,
			TokenID:   tokenID,
			Detail:    fmt.Sprintf("split %s from %s: reinvest %s, dao %s, lucky %s, creator %s", totalProfit, sourcePool, reinvest, dao, lucky, creator),
			Timestamp: now,
		},
	}
	if err := d.ledger.DistributeProfit(ctx, unit); err != nil {
		return nil, fmt.Errorf("distribute profit from %s: %w", sourcePool, err)
	}

	d.logger.Info("profit distributed",
		"source", sourcePool,
		"total_profit", totalProfit.String(),
		"reinvestment", reinvest.String(),
		"dao", dao.String(),
		"lucky", lucky.String(),
		"creator", creator.String(),
	)
	return event, nil
}
