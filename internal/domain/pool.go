package domain

import "github.com/shopspring/decimal"

// Pool names. These five rows are seeded at startup and never created on
// demand.
const (
	PoolAI       = "ai"
	PoolSystem   = "system"
	PoolTreasury = "treasury"
	PoolCreator  = "creator"
	PoolLucky    = "lucky"
)

// PoolNames lists all pooled wallets in seeding order.
var PoolNames = []string{PoolAI, PoolSystem, PoolTreasury, PoolCreator, PoolLucky}

// ValidPool reports whether name is a known pooled wallet.
func ValidPool(name string) bool {
	for _, n := range PoolNames {
		if n == name {
			return true
		}
	}
	return false
}

// PooledWallet is a named aggregate balance distinct from trader wallets.
// Balance must never go negative.
// Corresponds to pooled_wallets table, keyed by name.
type PooledWallet struct {
	Name             string
	Balance          decimal.Decimal
	TotalRewardsPaid decimal.Decimal
	RewardCount      int64
	LastRewardAt     *int64 // ms, nil until first reward
	UpdatedAt        int64  // ms
}
