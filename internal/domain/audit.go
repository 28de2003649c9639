package domain

// AuditKind classifies an audit event.
type AuditKind string

const (
	AuditMint         AuditKind = "MINT"
	AuditTrade        AuditKind = "TRADE"
	AuditBurn         AuditKind = "BURN"
	AuditProfitSplit  AuditKind = "PROFIT_SPLIT"
	AuditLuckyPayout  AuditKind = "LUCKY_PAYOUT"
	AuditWhaleFlagged AuditKind = "WHALE_FLAGGED"
)

// AuditEvent is an append-only log entry describing one engine operation.
// Corresponds to audit_events table.
type AuditEvent struct {
	EventID   string // PRIMARY KEY, uuid
	Kind      AuditKind
	TokenID   string // optional
	Wallet    string // optional
	Detail    string // human-readable summary
	Timestamp int64  // ms
}
