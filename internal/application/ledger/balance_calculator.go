package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
)

// BalanceCalculator derives a customer's current balance and interest
// eligibility from the ledger stream. The ledger is the sole source of
// truth for balances; nothing aggregates sales or payments directly.
type BalanceCalculator struct {
	entries   ledger.EntryRepository
	customers partner.CustomerRepository
}

// NewBalanceCalculator creates a BalanceCalculator
func NewBalanceCalculator(
	entries ledger.EntryRepository,
	customers partner.CustomerRepository,
) *BalanceCalculator {
	return &BalanceCalculator{
		entries:   entries,
		customers: customers,
	}
}

// CurrentBalance returns the latest entry's new balance, or zero for a
// customer with no entries.
func (c *BalanceCalculator) CurrentBalance(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error) {
	return currentBalance(ctx, c.entries, tenantID, customerID)
}

// IsEligibleForInterest reports whether the customer should accrue interest
// for the calendar month containing asOfMonth: the customer carries utang
// with a positive balance, existed before the month began, and has no
// interest entry for the month yet.
func (c *BalanceCalculator) IsEligibleForInterest(ctx context.Context, tenantID, customerID uuid.UUID, asOfMonth time.Time) (bool, error) {
	customer, err := c.customers.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return false, err
	}
	if !customer.HasUtang {
		return false, nil
	}

	balance, err := c.CurrentBalance(ctx, tenantID, customerID)
	if err != nil {
		return false, err
	}

	monthStart := ledger.MonthStart(asOfMonth)
	if !balance.IsPositive() || !customer.CreatedAt.Before(monthStart) {
		return false, nil
	}

	applied, err := c.entries.ExistsMonthlyInterest(ctx, tenantID, customerID, monthStart)
	if err != nil {
		return false, err
	}
	return !applied, nil
}
