// Package mint creates tokens and splits their initial supply into the
// fixed stakeholder allocations.
package mint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/eligibility"
	"token-ledger-engine/internal/idhash"
	"token-ledger-engine/internal/storage"
	"token-ledger-engine/internal/wallet"
)

// Request carries the inputs for one mint. Price is the token's initial
// externally supplied price scalar; zero means the default of 1.
type Request struct {
	Name          string
	Symbol        string
	Supply        decimal.Decimal
	CreatorWallet string
	Price         decimal.Decimal
}

// Result is the outcome of a successful mint.
type Result struct {
	Token        *domain.Token
	Distribution *domain.DistributionRecord
}

// Distributor creates tokens. All writes go through the ledger's atomic
// mint unit.
type Distributor struct {
	ledger storage.Ledger
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewDistributor creates a new Distributor.
func NewDistributor(ledger storage.Ledger, clock clockwork.Clock, logger *slog.Logger) *Distributor {
	return &Distributor{ledger: ledger, clock: clock, logger: logger}
}

// Mint validates the request, computes the five allocation amounts and
// persists the token, its distribution record, the creator's initial
// activity and eligibility rows, and the pool allocations as one unit.
func (d *Distributor) Mint(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Symbol) == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", storage.ErrInvalidInput)
	}
	if req.Supply.Sign() <= 0 {
		return nil, fmt.Errorf("%w: supply must be positive", storage.ErrInvalidInput)
	}
	if err := wallet.Validate(req.CreatorWallet); err != nil {
		return nil, fmt.Errorf("%w: creator wallet: %v", storage.ErrInvalidInput, err)
	}
	if !domain.VerifyMintFractions() {
		return nil, fmt.Errorf("mint fractions do not sum to 1")
	}

	price := req.Price
	if price.IsZero() {
		price = decimal.NewFromInt(1)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", storage.ErrInvalidInput)
	}

	supply := domain.Quantize(req.Supply)
	now := d.clock.Now().UnixMilli()
	tokenID := idhash.ComputeTokenID(req.Symbol, req.Name, req.CreatorWallet, now)

	// The public share is the remainder so the five amounts always sum to
	// the supply exactly.
	aiAmount := domain.Quantize(supply.Mul(domain.FractionAI))
	creatorAmount := domain.Quantize(supply.Mul(domain.FractionCreator))
	luckyAmount := domain.Quantize(supply.Mul(domain.FractionLucky))
	systemAmount := domain.Quantize(supply.Mul(domain.FractionSystem))
	publicAmount := supply.Sub(aiAmount).Sub(creatorAmount).Sub(luckyAmount).Sub(systemAmount)
	if publicAmount.Sign() < 0 {
		return nil, fmt.Errorf("%w: supply too small to allocate", storage.ErrInvalidInput)
	}

	token := &domain.Token{
		TokenID:     tokenID,
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Name:        strings.TrimSpace(req.Name),
		Supply:      supply,
		Price:       price,
		Volume24h:   decimal.Zero,
		HolderCount: 1, // the creator
		LaunchedAt:  now,
	}
	dist := &domain.DistributionRecord{
		TokenID:       tokenID,
		AIAmount:      aiAmount,
		CreatorAmount: creatorAmount,
		LuckyAmount:   luckyAmount,
		SystemAmount:  systemAmount,
		PublicAmount:  publicAmount,
	}
	if !dist.Total().Equal(supply) {
		return nil, fmt.Errorf("allocation drift: %s != %s", dist.Total(), supply)
	}

	activity := &domain.WalletActivity{
		ActivityID:  uuid.NewString(),
		Wallet:      req.CreatorWallet,
		TokenID:     tokenID,
		Kind:        domain.ActivityMint,
		Amount:      creatorAmount,
		PctOfSupply: domain.Quantize(creatorAmount.Div(supply).Mul(decimal.NewFromInt(100))),
		Timestamp:   now,
	}
	creatorRec, _ := eligibility.Apply(nil, activity, now)

	unit := &storage.MintUnit{
		Token:        token,
		Distribution: dist,
		Activity:     activity,
		Eligibility:  creatorRec,
		PoolCredits: []storage.PoolCredit{
			{Pool: domain.PoolAI, Amount: aiAmount},
			{Pool: domain.PoolLucky, Amount: luckyAmount},
			{Pool: domain.PoolSystem, Amount: systemAmount},
		},
		Audit: &domain.AuditEvent{
			EventID:   uuid.NewString(),
			Kind:      domain.AuditMint,
			TokenID:   tokenID,
			Wallet:    req.CreatorWallet,
			Detail:    fmt.Sprintf("minted %s %s, supply %s", token.Symbol, token.Name, supply),
			Timestamp: now,
		},
	}

	if err := d.ledger.MintToken(ctx, unit); err != nil {
		return nil, fmt.Errorf("mint %s: %w", token.Symbol, err)
	}

	d.logger.Info("token minted",
		"token_id", tokenID,
		"symbol", token.Symbol,
		"supply", supply.String(),
		"creator", req.CreatorWallet,
	)

	stored, err := d.ledger.Tokens().GetByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("read back token: %w", err)
	}
	return &Result{Token: stored, Distribution: dist}, nil
}
