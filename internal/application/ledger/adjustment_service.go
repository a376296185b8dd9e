package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AdjustmentService appends manual balance corrections with an audit note
type AdjustmentService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewAdjustmentService creates an AdjustmentService
func NewAdjustmentService(scope TransactionScope, logger *zap.Logger) *AdjustmentService {
	return &AdjustmentService{
		scope:  scope,
		logger: logger,
	}
}

// AdjustBalance sets the customer's balance to an absolute value via a
// BALANCE_UPDATE entry. The new balance must differ from the current one
// and cannot be negative.
func (s *AdjustmentService) AdjustBalance(
	ctx context.Context,
	tenantID, customerID uuid.UUID,
	newBalance decimal.Decimal,
	note string,
) (*AdjustmentResult, error) {
	if newBalance.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}

	var result *AdjustmentResult
	err := s.scope.Execute(ctx, func(repos TxRepositories) error {
		if _, err := repos.Customers().FindByIDForTenantLocked(ctx, tenantID, customerID); err != nil {
			return err
		}

		balance, err := currentBalance(ctx, repos.Entries(), tenantID, customerID)
		if err != nil {
			return err
		}

		entry, err := ledger.NewBalanceUpdateEntry(tenantID, customerID, balance, newBalance, time.Now(), note)
		if err != nil {
			return err
		}

		if err := appendEntry(ctx, repos, entry); err != nil {
			return err
		}

		result = &AdjustmentResult{
			EntryID:    entry.ID,
			NewBalance: entry.NewBalance.StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance adjusted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("new_balance", result.NewBalance),
		zap.String("note", note),
	)
	return result, nil
}
