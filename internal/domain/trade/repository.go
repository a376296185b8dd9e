package trade

import (
	"context"

	"github.com/google/uuid"
)

// CreditSaleRepository defines persistence for sale source records
type CreditSaleRepository interface {
	// Create persists a new credit sale record
	Create(ctx context.Context, sale *CreditSale) error

	// FindByID finds a sale by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CreditSale, error)

	// FindCreditSalesByCustomer returns all credit sales for a customer
	// ordered by (occurred_at, created_at) ascending, for ledger replay.
	FindCreditSalesByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]CreditSale, error)

	// FindCreditCustomerIDs returns the distinct customer ids with at least
	// one credit sale for the tenant.
	FindCreditCustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}

// PaymentRecordRepository defines persistence for payment source records
type PaymentRecordRepository interface {
	// Create persists a new payment record
	Create(ctx context.Context, payment *PaymentRecord) error

	// FindByCustomer returns all payment records for a customer ordered by
	// (occurred_at, created_at) ascending, for ledger replay.
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]PaymentRecord, error)

	// FindCustomerIDs returns the distinct customer ids with at least one
	// payment record for the tenant.
	FindCustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}
