package domain

import "github.com/shopspring/decimal"

// Profit waterfall fractions. Canonical ordering is
// reinvestment 80% / DAO 15% / lucky 3% / creator 2%; the creator share
// absorbs any rounding residual so the four amounts always sum to the
// distributed profit exactly.
var (
	ProfitFractionReinvest = decimal.NewFromFloat(0.80)
	ProfitFractionDAO      = decimal.NewFromFloat(0.15)
	ProfitFractionLucky    = decimal.NewFromFloat(0.03)
	ProfitFractionCreator  = decimal.NewFromFloat(0.02)
)

// ProfitEvent is an immutable record of one profit-realization split.
// Corresponds to profit_events table.
type ProfitEvent struct {
	EventID            string // PRIMARY KEY, uuid
	TokenID            string // optional, empty when the split is not token-scoped
	SourcePool         string
	SaleAmount         decimal.Decimal
	ReinvestmentAmount decimal.Decimal
	DAOAmount          decimal.Decimal
	CreatorAmount      decimal.Decimal
	LuckyAmount        decimal.Decimal
	Timestamp          int64 // ms
}
