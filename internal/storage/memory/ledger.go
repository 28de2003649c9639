// Package memory provides an in-memory implementation of the ledger storage,
// used by tests and by the server's --use-memory mode. A single mutex guards
// all tables so cross-table units are naturally atomic.
package memory

import (
	"fmt"
	"sync"
	"time"

	"token-ledger-engine/internal/domain"
	"token-ledger-engine/internal/storage"
)

// Ledger is an in-memory implementation of storage.Ledger.
type Ledger struct {
	mu sync.RWMutex

	tokens  map[string]*domain.Token // keyed by token_id
	symbols map[string]string        // symbol -> token_id

	distributions map[string]*domain.DistributionRecord // keyed by token_id

	activities  []*domain.WalletActivity // insertion order == chronological order
	activityIDs map[string]struct{}

	eligibility map[string]*domain.EligibilityRecord // keyed by wallet|token_id

	pools map[string]*domain.PooledWallet // keyed by pool name

	selections   []*domain.LuckySelection
	selectionIDs map[string]struct{}

	profitEvents   []*domain.ProfitEvent
	profitEventIDs map[string]struct{}

	audits   []*domain.AuditEvent
	auditIDs map[string]struct{}
}

// NewLedger creates an in-memory ledger with the five pooled wallets seeded
// at zero balance.
func NewLedger() *Ledger {
	l := &Ledger{
		tokens:         make(map[string]*domain.Token),
		symbols:        make(map[string]string),
		distributions:  make(map[string]*domain.DistributionRecord),
		activityIDs:    make(map[string]struct{}),
		eligibility:    make(map[string]*domain.EligibilityRecord),
		pools:          make(map[string]*domain.PooledWallet),
		selectionIDs:   make(map[string]struct{}),
		profitEventIDs: make(map[string]struct{}),
		auditIDs:       make(map[string]struct{}),
	}

	now := time.Now().UnixMilli()
	for _, name := range domain.PoolNames {
		l.pools[name] = &domain.PooledWallet{Name: name, UpdatedAt: now}
	}

	return l
}

// Compile-time interface check.
var _ storage.Ledger = (*Ledger)(nil)

func (l *Ledger) Tokens() storage.TokenStore               { return &tokenStore{l} }
func (l *Ledger) Distributions() storage.DistributionStore { return &distributionStore{l} }
func (l *Ledger) Activities() storage.ActivityStore        { return &activityStore{l} }
func (l *Ledger) Eligibility() storage.EligibilityStore    { return &eligibilityStore{l} }
func (l *Ledger) Pools() storage.PoolStore                 { return &poolStore{l} }
func (l *Ledger) Selections() storage.SelectionStore       { return &selectionStore{l} }
func (l *Ledger) ProfitEvents() storage.ProfitEventStore   { return &profitEventStore{l} }
func (l *Ledger) AuditEvents() storage.AuditEventStore     { return &auditEventStore{l} }

// eligibilityKey generates the composite key for an eligibility record.
func eligibilityKey(wallet, tokenID string) string {
	return fmt.Sprintf("%s|%s", wallet, tokenID)
}

func copyToken(t *domain.Token) *domain.Token {
	c := *t
	return &c
}

func copyDistribution(d *domain.DistributionRecord) *domain.DistributionRecord {
	c := *d
	return &c
}

func copyActivity(a *domain.WalletActivity) *domain.WalletActivity {
	c := *a
	return &c
}

func copyEligibility(r *domain.EligibilityRecord) *domain.EligibilityRecord {
	c := *r
	if r.FlaggedReason != nil {
		reason := *r.FlaggedReason
		c.FlaggedReason = &reason
	}
	return &c
}

func copyPool(p *domain.PooledWallet) *domain.PooledWallet {
	c := *p
	if p.LastRewardAt != nil {
		at := *p.LastRewardAt
		c.LastRewardAt = &at
	}
	return &c
}

func copySelection(s *domain.LuckySelection) *domain.LuckySelection {
	c := *s
	return &c
}

func copyProfitEvent(e *domain.ProfitEvent) *domain.ProfitEvent {
	c := *e
	return &c
}

func copyAudit(e *domain.AuditEvent) *domain.AuditEvent {
	c := *e
	return &c
}
