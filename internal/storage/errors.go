package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Append-only stores do not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientBalance is returned when a debit would take a balance
	// below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrVersionConflict is returned when an optimistic version check fails.
	// The whole operation is safe to retry from scratch.
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnavailable is returned for transient persistence failures.
	// Callers should retry with backoff.
	ErrUnavailable = errors.New("storage unavailable")
)
