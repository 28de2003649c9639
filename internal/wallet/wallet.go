// Package wallet validates trader wallet addresses. Addresses are base58
// encoded 32-byte ed25519 public keys; pool names are never valid wallets.
package wallet

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

var (
	// ErrEmpty is returned for an empty address string.
	ErrEmpty = errors.New("wallet address is empty")

	// ErrMalformed is returned when the address is not base58 or does not
	// decode to 32 bytes.
	ErrMalformed = errors.New("wallet address is not a base58 32-byte key")

	// ErrOffCurve is returned when the decoded key is not a valid ed25519
	// curve point.
	ErrOffCurve = errors.New("wallet address is not on the ed25519 curve")
)

// Validate checks that addr is a plausible wallet address.
func Validate(addr string) error {
	if addr == "" {
		return ErrEmpty
	}

	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return ErrMalformed
	}

	if !isOnCurve(raw) {
		return ErrOffCurve
	}

	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
