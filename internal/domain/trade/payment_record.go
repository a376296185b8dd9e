package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
)

// PaymentRecord is the source record for an utang payment. One record is
// written per accepted payment; the matching ledger entry references it.
// Together with CreditSale rows it forms the replay input for ledger
// rebuilds.
type PaymentRecord struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Note       string
	OccurredAt time.Time
}

// NewPaymentRecord creates a payment source record
func NewPaymentRecord(
	tenantID, customerID uuid.UUID,
	amount decimal.Decimal,
	occurredAt time.Time,
	note string,
) (*PaymentRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &PaymentRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		CustomerID: customerID,
		Amount:     amount,
		Note:       note,
		OccurredAt: occurredAt,
	}, nil
}
