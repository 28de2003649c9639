package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeTokenID computes a deterministic token_id using SHA256.
// Formula: SHA256(symbol|name|creator_wallet|launched_at)
// Returns hex-encoded hash (64 characters).
func ComputeTokenID(symbol, name, creatorWallet string, launchedAt int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		strings.ToUpper(symbol),
		name,
		creatorWallet,
		launchedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
