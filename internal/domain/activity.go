package domain

import "github.com/shopspring/decimal"

// ActivityKind is the type of a wallet activity row.
type ActivityKind string

// Activity kinds. Mint and buy add to a wallet's balance, sell and burn
// subtract from it.
const (
	ActivityMint ActivityKind = "mint"
	ActivityBuy  ActivityKind = "buy"
	ActivitySell ActivityKind = "sell"
	ActivityBurn ActivityKind = "burn"
)

// ValidKind reports whether k is a known activity kind.
func ValidKind(k ActivityKind) bool {
	switch k {
	case ActivityMint, ActivityBuy, ActivitySell, ActivityBurn:
		return true
	}
	return false
}

// Sign returns +1 for kinds that add to a wallet's balance and -1 for kinds
// that subtract from it.
func (k ActivityKind) Sign() int {
	switch k {
	case ActivityMint, ActivityBuy:
		return 1
	default:
		return -1
	}
}

// WalletActivity is one append-only log row. Rows are never updated or
// deleted; a wallet's live balance is the signed fold over its rows.
// Corresponds to wallet_activity table.
type WalletActivity struct {
	ActivityID   string // PRIMARY KEY, uuid
	Wallet       string
	TokenID      string
	Kind         ActivityKind
	Amount       decimal.Decimal
	PctOfSupply  decimal.Decimal // amount / supply * 100 at trade time
	WhaleFlagged bool
	Timestamp    int64 // ms
}
