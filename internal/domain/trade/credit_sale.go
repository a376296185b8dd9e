package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
)

// CreditSale is the source record for a completed sale. It is owned by the
// sales subsystem; the ledger only reads it (sale bridge, rebuilder) and
// references it from ledger entries.
type CreditSale struct {
	shared.BaseEntity
	TenantID uuid.UUID
	// CustomerID is nil for cash/walk-in sales, which never reach the ledger.
	CustomerID  *uuid.UUID
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	Reference   string
	OccurredAt  time.Time
}

// NewCreditSale creates a completed sale record
func NewCreditSale(
	tenantID uuid.UUID,
	customerID *uuid.UUID,
	totalAmount, paidAmount decimal.Decimal,
	occurredAt time.Time,
	reference string,
) (*CreditSale, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if customerID != nil && *customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}
	if paidAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Paid amount cannot be negative")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &CreditSale{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		CustomerID:  customerID,
		TotalAmount: totalAmount,
		PaidAmount:  paidAmount,
		Reference:   reference,
		OccurredAt:  occurredAt,
	}, nil
}

// UnpaidAmount returns the part of the sale left on credit. Negative means
// the customer overpaid at the till, which behaves like an implicit payment.
func (s *CreditSale) UnpaidAmount() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// IsCredit returns true when the sale owes or credits a known customer
func (s *CreditSale) IsCredit() bool {
	return s.CustomerID != nil && !s.UnpaidAmount().IsZero()
}
