package ledger

import (
	"context"
	"fmt"

	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SaleCompletedHandler bridges the sales subsystem into the ledger: it
// consumes sale-completed events and appends a sale entry for the unpaid
// part of each credit sale.
type SaleCompletedHandler struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewSaleCompletedHandler creates a handler for sale completed events
func NewSaleCompletedHandler(scope TransactionScope, logger *zap.Logger) *SaleCompletedHandler {
	return &SaleCompletedHandler{
		scope:  scope,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleCompletedHandler) EventTypes() []string {
	return []string{trade.EventTypeSaleCompleted}
}

// Handle appends a sale ledger entry for a completed credit sale. Cash
// sales (no customer) and fully paid sales produce no entry. A negative
// unpaid amount (overpaid at the till) reduces the balance like an
// implicit payment.
func (h *SaleCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	saleEvent, ok := event.(*trade.SaleCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			trade.EventTypeSaleCompleted, event.EventType())
	}

	if saleEvent.CustomerID == nil {
		return nil // walk-in cash sale, nothing owed
	}
	unpaid := saleEvent.TotalAmount.Sub(saleEvent.PaidAmount)
	if unpaid.IsZero() {
		return nil
	}

	tenantID := saleEvent.TenantID()
	customerID := *saleEvent.CustomerID

	err := h.scope.Execute(ctx, func(repos TxRepositories) error {
		if _, err := repos.Customers().FindByIDForTenantLocked(ctx, tenantID, customerID); err != nil {
			return err
		}

		balance, err := currentBalance(ctx, repos.Entries(), tenantID, customerID)
		if err != nil {
			return err
		}

		description := saleEvent.Reference
		if description == "" {
			description = "Credit sale"
		}
		entry, err := ledger.NewSaleEntry(tenantID, customerID, balance, unpaid, saleEvent.SaleTime, description)
		if err != nil {
			return err
		}
		entry.WithReference(saleEvent.SaleID)

		return appendEntry(ctx, repos, entry)
	})
	if err != nil {
		h.logger.Error("failed to append sale ledger entry",
			zap.String("tenant_id", tenantID.String()),
			zap.String("customer_id", customerID.String()),
			zap.String("sale_id", saleEvent.SaleID.String()),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("sale ledger entry appended",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("sale_id", saleEvent.SaleID.String()),
		zap.String("unpaid", unpaid.StringFixed(2)),
	)
	return nil
}

var _ shared.EventHandler = (*SaleCompletedHandler)(nil)
