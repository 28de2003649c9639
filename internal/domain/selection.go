package domain

import "github.com/shopspring/decimal"

// LuckySelection is an immutable record of one activity-weighted random
// reward payout. Corresponds to lucky_selections table.
type LuckySelection struct {
	SelectionID        string // PRIMARY KEY, uuid
	Wallet             string
	TokenID            string
	DistributionAmount decimal.Decimal
	ActivityScore      int64 // recency weight of the winning wallet
	Timestamp          int64 // ms
}
