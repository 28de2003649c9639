package domain

import "github.com/shopspring/decimal"

// Token represents an issued synthetic asset.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	TokenID     string          // PRIMARY KEY, deterministic hash
	Symbol      string          // ticker symbol, unique
	Name        string          // display name
	Supply      decimal.Decimal // current supply, mutated only by burn
	Price       decimal.Decimal // externally supplied scalar, > 0
	Volume24h   decimal.Decimal // running trade volume
	HolderCount int             // distinct wallets that ever acquired a balance
	LaunchedAt  int64           // Unix timestamp in milliseconds
	Version     int64           // optimistic concurrency version
	CreatedAt   int64           // record creation timestamp (ms)
}

// Places is the number of fractional digits kept on every monetary amount.
// One minimal unit is 1e-8.
const Places = 8

// Quantize rounds d to the ledger's minimal unit.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}
