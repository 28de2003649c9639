package domain

import "github.com/shopspring/decimal"

// Mint allocation fractions. They must sum to exactly 1; VerifyMintFractions
// checks this at runtime rather than trusting the constants.
var (
	FractionAI      = decimal.NewFromFloat(0.07)
	FractionCreator = decimal.NewFromFloat(0.05)
	FractionLucky   = decimal.NewFromFloat(0.03)
	FractionSystem  = decimal.NewFromFloat(0.02)
	FractionPublic  = decimal.NewFromFloat(0.83)
)

// VerifyMintFractions returns false if the five allocation fractions do not
// sum to exactly 1.
func VerifyMintFractions() bool {
	sum := FractionAI.Add(FractionCreator).Add(FractionLucky).Add(FractionSystem).Add(FractionPublic)
	return sum.Equal(decimal.NewFromInt(1))
}

// DistributionRecord captures the initial supply split of a token.
// Corresponds to distribution_records table, one row per token.
type DistributionRecord struct {
	TokenID       string
	AIAmount      decimal.Decimal
	CreatorAmount decimal.Decimal
	LuckyAmount   decimal.Decimal
	SystemAmount  decimal.Decimal
	PublicAmount  decimal.Decimal
	CreatedAt     int64 // ms
}

// Total returns the sum of the five allocation amounts.
func (d *DistributionRecord) Total() decimal.Decimal {
	return d.AIAmount.Add(d.CreatorAmount).Add(d.LuckyAmount).Add(d.SystemAmount).Add(d.PublicAmount)
}
