package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"token-ledger-engine/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if token_id or symbol exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tokenID string) (*domain.Token, error)

	// GetBySymbol retrieves a token by symbol. Returns ErrNotFound if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Token, error)

	// List retrieves all tokens ordered by launch time ASC.
	List(ctx context.Context) ([]*domain.Token, error)

	// Update replaces the mutable token fields. The row's stored version must
	// equal expectedVersion or ErrVersionConflict is returned; on success the
	// version is incremented.
	Update(ctx context.Context, t *domain.Token, expectedVersion int64) error
}

// DistributionStore provides access to distribution_records storage.
type DistributionStore interface {
	// Insert adds a new distribution record. Returns ErrDuplicateKey if token_id exists.
	Insert(ctx context.Context, d *domain.DistributionRecord) error

	// GetByTokenID retrieves the record for a token. Returns ErrNotFound if not exists.
	GetByTokenID(ctx context.Context, tokenID string) (*domain.DistributionRecord, error)
}

// ActivityStore provides access to the append-only wallet_activity log.
type ActivityStore interface {
	// Insert appends a new activity row. Returns ErrDuplicateKey if activity_id exists.
	Insert(ctx context.Context, a *domain.WalletActivity) error

	// GetByToken retrieves all rows for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.WalletActivity, error)

	// GetByWallet retrieves all rows for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.WalletActivity, error)

	// RecentByToken retrieves up to limit rows of the given kinds for a token,
	// newest first.
	RecentByToken(ctx context.Context, tokenID string, kinds []domain.ActivityKind, limit int) ([]*domain.WalletActivity, error)

	// BalanceOf folds the wallet's rows for a token into a live balance:
	// +amount for mint/buy, -amount for sell/burn.
	BalanceOf(ctx context.Context, tokenID, wallet string) (decimal.Decimal, error)
}

// EligibilityStore provides access to eligibility_records storage,
// keyed by (wallet, token_id).
type EligibilityStore interface {
	// Get retrieves the record for a wallet/token pair. Returns ErrNotFound if not exists.
	Get(ctx context.Context, wallet, tokenID string) (*domain.EligibilityRecord, error)

	// GetByToken retrieves all records for a token.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.EligibilityRecord, error)

	// Upsert writes the record. expectedVersion 0 inserts a new row and fails
	// with ErrVersionConflict if one exists; otherwise the stored version must
	// match and is incremented on success.
	Upsert(ctx context.Context, rec *domain.EligibilityRecord, expectedVersion int64) error
}

// PoolStore provides access to pooled_wallets storage. The five pool rows
// are seeded by migrations; Credit never creates rows.
type PoolStore interface {
	// Get retrieves a pool by name. Returns ErrNotFound if not exists.
	Get(ctx context.Context, name string) (*domain.PooledWallet, error)

	// List retrieves all pools in seeding order.
	List(ctx context.Context) ([]*domain.PooledWallet, error)

	// Credit adds amount (> 0) to a pool balance.
	Credit(ctx context.Context, name string, amount decimal.Decimal) error
}

// SelectionStore provides access to lucky_selections storage.
type SelectionStore interface {
	// Insert appends a new selection. Returns ErrDuplicateKey if selection_id exists.
	Insert(ctx context.Context, s *domain.LuckySelection) error

	// GetByToken retrieves all selections for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.LuckySelection, error)
}

// ProfitEventStore provides access to profit_events storage.
type ProfitEventStore interface {
	// Insert appends a new profit event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.ProfitEvent) error

	// List retrieves all profit events, ordered by timestamp ASC.
	List(ctx context.Context) ([]*domain.ProfitEvent, error)
}

// AuditEventStore provides access to the append-only audit_events log.
type AuditEventStore interface {
	// Insert appends a new audit event.
	Insert(ctx context.Context, e *domain.AuditEvent) error

	// GetByToken retrieves all events for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.AuditEvent, error)
}

// ActivityArchive mirrors the wallet_activity log into the analytics
// backend. Inserts are batched and best-effort; the postgres log stays the
// source of truth.
type ActivityArchive interface {
	// InsertBatch appends rows in one batch. Fails the whole batch on an
	// intra-batch duplicate activity_id.
	InsertBatch(ctx context.Context, rows []*domain.WalletActivity) error

	// GetByTimeRange retrieves archived rows for a token within
	// [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, tokenID string, start, end int64) ([]*domain.WalletActivity, error)

	// CountByToken returns the number of archived rows for a token.
	CountByToken(ctx context.Context, tokenID string) (uint64, error)
}

// PoolCredit is one staged balance addition inside an atomic unit.
type PoolCredit struct {
	Pool   string
	Amount decimal.Decimal
}

// MintUnit bundles everything one mint persists atomically.
type MintUnit struct {
	Token        *domain.Token
	Distribution *domain.DistributionRecord
	Activity     *domain.WalletActivity    // creator share credit, kind mint
	Eligibility  *domain.EligibilityRecord // creator row, EverHeld set
	PoolCredits  []PoolCredit              // ai/lucky/system allocation shares
	Audit        *domain.AuditEvent
}

// TradeUnit bundles everything one trade or burn persists atomically.
// Token and Eligibility carry the post-trade state; the expected versions
// guard against concurrent writers on the same rows.
type TradeUnit struct {
	Activity                   *domain.WalletActivity
	Token                      *domain.Token
	TokenExpectedVersion       int64
	Eligibility                *domain.EligibilityRecord // nil for burn
	EligibilityExpectedVersion int64                     // 0 creates the row
	PoolCredits                []PoolCredit              // fee credits
	Audit                      []*domain.AuditEvent
}

// ProfitUnit bundles one profit waterfall. The source pool balance is set to
// zero and the credits applied as one unit; nothing is applied on failure.
type ProfitUnit struct {
	SourcePool string
	Credits    []PoolCredit
	Event      *domain.ProfitEvent
	Audit      *domain.AuditEvent
}

// RewardUnit bundles one lucky payout. The lucky pool is debited by the
// selection's distribution amount; ErrInsufficientBalance if it would go
// negative.
type RewardUnit struct {
	Selection *domain.LuckySelection
	Audit     *domain.AuditEvent
}

// Ledger bundles the per-table stores with the cross-table atomic units the
// engine requires. All mutation beyond pool credits flows through the unit
// methods.
type Ledger interface {
	Tokens() TokenStore
	Distributions() DistributionStore
	Activities() ActivityStore
	Eligibility() EligibilityStore
	Pools() PoolStore
	Selections() SelectionStore
	ProfitEvents() ProfitEventStore
	AuditEvents() AuditEventStore

	// MintToken persists the token, its distribution record, the creator's
	// initial activity and eligibility rows, and the pool allocations as one
	// unit.
	MintToken(ctx context.Context, u *MintUnit) error

	// ApplyTrade persists one trade or burn: activity append, token update,
	// eligibility upsert and fee credits, all version-checked.
	ApplyTrade(ctx context.Context, u *TradeUnit) error

	// DistributeProfit credits the destination pools, zeroes the source pool
	// and appends the profit event, all-or-nothing.
	DistributeProfit(ctx context.Context, u *ProfitUnit) error

	// PayLuckyReward debits the lucky pool, updates its reward counters and
	// appends the selection.
	PayLuckyReward(ctx context.Context, u *RewardUnit) error
}
