package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SaleService records completed sales and notifies the rest of the system.
// The ledger side effect happens in the sale-completed handler, not here;
// a failed notification leaves the sale recorded and is surfaced for the
// rebuilder to repair.
type SaleService struct {
	sales     trade.CreditSaleRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewSaleService creates a SaleService
func NewSaleService(
	sales trade.CreditSaleRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		sales:     sales,
		publisher: publisher,
		logger:    logger,
	}
}

// SaleResponse represents a recorded sale in API responses
type SaleResponse struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	CustomerID  *string `json:"customer_id,omitempty"`
	TotalAmount string  `json:"total_amount"`
	PaidAmount  string  `json:"paid_amount"`
	Reference   string  `json:"reference"`
	OccurredAt  string  `json:"occurred_at"`
	IsCredit    bool    `json:"is_credit"`
}

func toSaleResponse(sale *trade.CreditSale) *SaleResponse {
	resp := &SaleResponse{
		ID:          sale.ID.String(),
		TenantID:    sale.TenantID.String(),
		TotalAmount: sale.TotalAmount.StringFixed(2),
		PaidAmount:  sale.PaidAmount.StringFixed(2),
		Reference:   sale.Reference,
		OccurredAt:  sale.OccurredAt.Format(time.RFC3339),
		IsCredit:    sale.IsCredit(),
	}
	if sale.CustomerID != nil {
		id := sale.CustomerID.String()
		resp.CustomerID = &id
	}
	return resp
}

// CompleteSale persists a sale source record and publishes the completion
// event. Cash sales (nil customer, or fully paid) are recorded but produce
// no ledger entry downstream.
func (s *SaleService) CompleteSale(
	ctx context.Context,
	tenantID uuid.UUID,
	customerID *uuid.UUID,
	totalAmount, paidAmount decimal.Decimal,
	occurredAt time.Time,
	reference string,
) (*SaleResponse, error) {
	sale, err := trade.NewCreditSale(tenantID, customerID, totalAmount, paidAmount, occurredAt, reference)
	if err != nil {
		return nil, err
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	if err := s.publisher.Publish(ctx, trade.NewSaleCompletedEvent(sale)); err != nil {
		// The sale record is the source of truth; a missed ledger entry is
		// recoverable through a rebuild.
		s.logger.Error("failed to publish sale completed event",
			zap.String("tenant_id", tenantID.String()),
			zap.String("sale_id", sale.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("sale completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("total", sale.TotalAmount.StringFixed(2)),
		zap.String("paid", sale.PaidAmount.StringFixed(2)),
		zap.Bool("credit", sale.IsCredit()),
	)
	return toSaleResponse(sale), nil
}

// GetSale returns one sale by id
func (s *SaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}
