package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
)

// currentBalance reads the customer's latest balance through the given
// entry repository. An empty ledger is balance zero.
func currentBalance(ctx context.Context, entries ledger.EntryRepository, tenantID, customerID uuid.UUID) (decimal.Decimal, error) {
	latest, err := entries.Latest(ctx, tenantID, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return latest.NewBalance, nil
}

// appendEntry is the single write path for ledger entries. It must be
// called inside a transaction that already holds the customer's row lock.
// It re-reads the latest entry and rejects the append when the entry's
// previous balance went stale (lost-update guard) or when the entry would
// sort before the ledger's current tail, then writes the entry and
// refreshes the customer's has_utang flag.
func appendEntry(ctx context.Context, repos TxRepositories, entry *ledger.Entry) error {
	if err := entry.CheckBalanceInvariant(); err != nil {
		return err
	}

	latest, err := repos.Entries().Latest(ctx, entry.TenantID, entry.CustomerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to read latest entry: %w", err)
	}
	current := decimal.Zero
	if err == nil {
		current = latest.NewBalance
		// The tail entry's new balance is the live balance only while the
		// tail stays the last entry in replay order.
		if entry.OccurredAt.Before(latest.OccurredAt) ||
			(entry.OccurredAt.Equal(latest.OccurredAt) && entry.Kind.Priority() < latest.Kind.Priority()) {
			return fmt.Errorf("occurred_at predates the latest ledger entry: %w", shared.ErrInvalidInput)
		}
	}
	if !entry.PreviousBalance.Equal(current) {
		return shared.ErrConcurrencyConflict
	}

	if err := repos.Entries().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := repos.Customers().SetHasUtang(ctx, entry.TenantID, entry.CustomerID, entry.LeavesUtang()); err != nil {
		return fmt.Errorf("failed to update has_utang flag: %w", err)
	}
	return nil
}
