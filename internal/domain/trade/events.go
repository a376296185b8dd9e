package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
)

// Event types for the trade domain
const (
	EventTypeSaleCompleted = "trade.sale.completed"
)

// SaleCompletedEvent is published when the sales subsystem completes a sale.
// The ledger's sale bridge consumes it and appends a sale entry when the
// sale leaves an unpaid amount on a known customer.
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID       `json:"sale_id"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Reference   string          `json:"reference"`
	SaleTime    time.Time       `json:"sale_time"`
}

// NewSaleCompletedEvent creates a sale completed event from a sale record
func NewSaleCompletedEvent(sale *CreditSale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeSaleCompleted,
			sale.TenantID,
			sale.ID,
			"CreditSale",
		),
		SaleID:      sale.ID,
		CustomerID:  sale.CustomerID,
		TotalAmount: sale.TotalAmount,
		PaidAmount:  sale.PaidAmount,
		Reference:   sale.Reference,
		SaleTime:    sale.OccurredAt,
	}
}
