package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PaymentService records utang payments against the ledger
type PaymentService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewPaymentService creates a PaymentService
func NewPaymentService(scope TransactionScope, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		scope:  scope,
		logger: logger,
	}
}

// RecordPayment validates and appends a payment entry for a customer. The
// amount must be positive and must not exceed the outstanding balance read
// under the customer's row lock; a rejected payment reports the exact
// balance so the caller can display it. The payment source record, the
// ledger entry and the has_utang update commit atomically.
func (s *PaymentService) RecordPayment(
	ctx context.Context,
	tenantID, customerID uuid.UUID,
	amount decimal.Decimal,
	occurredAt time.Time,
	note string,
) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	var result *PaymentResult
	err := s.scope.Execute(ctx, func(repos TxRepositories) error {
		// Lock serializes writers for this customer; parallel writers for
		// other customers are unaffected.
		if _, err := repos.Customers().FindByIDForTenantLocked(ctx, tenantID, customerID); err != nil {
			return err
		}

		balance, err := currentBalance(ctx, repos.Entries(), tenantID, customerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(balance) {
			return shared.NewExceedsBalanceError(balance)
		}

		payment, err := trade.NewPaymentRecord(tenantID, customerID, amount, occurredAt, note)
		if err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment record: %w", err)
		}

		entry, err := ledger.NewPaymentEntry(tenantID, customerID, balance, amount, payment.OccurredAt, note)
		if err != nil {
			return err
		}
		entry.WithReference(payment.ID)

		if err := appendEntry(ctx, repos, entry); err != nil {
			return err
		}

		result = &PaymentResult{
			EntryID:    entry.ID,
			NewBalance: entry.NewBalance.StringFixed(2),
			HasUtang:   entry.LeavesUtang(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("new_balance", result.NewBalance),
	)
	return result, nil
}
