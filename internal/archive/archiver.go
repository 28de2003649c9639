// Package archive mirrors the append-only wallet activity log into the
// analytics backend. The mirror is best-effort and always behind by at
// most one sweep; the relational log stays the source of truth.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"token-ledger-engine/internal/storage"
)

// Archiver sweeps the activity log token by token and appends the rows
// the analytics backend has not seen yet. The log is append-only and read
// in insertion order, so the archived row count is a resume cursor.
type Archiver struct {
	ledger  storage.Ledger
	archive storage.ActivityArchive
	logger  *slog.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(ledger storage.Ledger, archive storage.ActivityArchive, logger *slog.Logger) *Archiver {
	return &Archiver{ledger: ledger, archive: archive, logger: logger}
}

// Sweep mirrors all tokens once and returns the number of rows shipped.
func (a *Archiver) Sweep(ctx context.Context) (int, error) {
	tokens, err := a.ledger.Tokens().List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tokens: %w", err)
	}

	var shipped int
	for _, token := range tokens {
		n, err := a.sweepToken(ctx, token.TokenID)
		if err != nil {
			return shipped, fmt.Errorf("sweep token %s: %w", token.TokenID, err)
		}
		shipped += n
	}
	return shipped, nil
}

func (a *Archiver) sweepToken(ctx context.Context, tokenID string) (int, error) {
	rows, err := a.ledger.Activities().GetByToken(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("read activity log: %w", err)
	}

	archived, err := a.archive.CountByToken(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("count archived rows: %w", err)
	}
	if uint64(len(rows)) <= archived {
		return 0, nil
	}

	pending := rows[archived:]
	if err := a.archive.InsertBatch(ctx, pending); err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	return len(pending), nil
}

// Run sweeps on the given interval until the context is cancelled.
// Failures are logged and retried on the next tick.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			shipped, err := a.Sweep(ctx)
			if err != nil {
				a.logger.Warn("archive sweep failed", "error", err)
				continue
			}
			if shipped > 0 {
				a.logger.Debug("archive sweep complete", "rows", shipped)
			}
		}
	}
}
