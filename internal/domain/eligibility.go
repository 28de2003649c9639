package domain

import "github.com/shopspring/decimal"

// EligibilityRecord tracks a wallet's standing for one token. Created lazily
// on first activity, updated on every subsequent trade, never deleted.
// WhaleStatus is monotonic: once true it stays true.
// Corresponds to eligibility_records table, keyed by (wallet, token_id).
type EligibilityRecord struct {
	Wallet        string
	TokenID       string
	TotalBought   decimal.Decimal
	TotalSold     decimal.Decimal
	MaxBuyPct     decimal.Decimal
	MaxSellPct    decimal.Decimal
	WhaleStatus   bool
	IsEligible    bool
	FlaggedReason *string
	EverHeld      bool  // true once the wallet ever acquired a balance
	Version       int64 // optimistic concurrency version
	UpdatedAt     int64 // ms
	CreatedAt     int64 // ms
}
