package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OpeningBalance describes one customer to seed during a backfill
type OpeningBalance struct {
	Name         string
	Phone        string
	Balance      decimal.Decimal
	InterestRate *decimal.Decimal
}

// BackfillFailure identifies a customer that could not be seeded
type BackfillFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// BackfillResult summarizes a seeding run
type BackfillResult struct {
	CustomersCreated int               `json:"customers_created"`
	EntriesCreated   int               `json:"entries_created"`
	Failures         []BackfillFailure `json:"failures,omitempty"`
}

// BackfillService seeds migrated customers and their opening balances.
// This is the only path that mints STARTING_BALANCE entries outside a
// rebuild; there is no runtime API for them.
type BackfillService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewBackfillService creates a BackfillService
func NewBackfillService(scope TransactionScope, logger *zap.Logger) *BackfillService {
	return &BackfillService{
		scope:  scope,
		logger: logger,
	}
}

// Seed creates one customer per record and, for nonzero balances, an
// opening STARTING_BALANCE entry dated asOf. Each customer commits in its
// own transaction, so a failed record does not roll back the ones before
// it.
func (s *BackfillService) Seed(
	ctx context.Context,
	tenantID uuid.UUID,
	records []OpeningBalance,
	asOf time.Time,
) (*BackfillResult, error) {
	result := &BackfillResult{}

	for _, record := range records {
		entryCreated, err := s.seedOne(ctx, tenantID, record, asOf)
		if err != nil {
			result.Failures = append(result.Failures, BackfillFailure{
				Name:   record.Name,
				Reason: err.Error(),
			})
			s.logger.Warn("failed to seed customer",
				zap.String("tenant_id", tenantID.String()),
				zap.String("name", record.Name),
				zap.Error(err),
			)
			continue
		}
		result.CustomersCreated++
		if entryCreated {
			result.EntriesCreated++
		}
	}

	s.logger.Info("backfill completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("customers_created", result.CustomersCreated),
		zap.Int("entries_created", result.EntriesCreated),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (s *BackfillService) seedOne(
	ctx context.Context,
	tenantID uuid.UUID,
	record OpeningBalance,
	asOf time.Time,
) (bool, error) {
	if record.Balance.IsNegative() {
		return false, shared.NewDomainError("INVALID_AMOUNT", "Opening balance cannot be negative")
	}

	entryCreated := false
	err := s.scope.Execute(ctx, func(repos TxRepositories) error {
		customer, err := partner.NewCustomer(tenantID, record.Name, record.Phone)
		if err != nil {
			return err
		}
		customer.InterestRate = record.InterestRate
		// Migrated accounts predate the cutover. Dating them at the
		// opening balance lets interest accrue from the following month.
		customer.CreatedAt = asOf
		customer.UpdatedAt = asOf

		if err := repos.Customers().Save(ctx, customer); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}

		if record.Balance.IsZero() {
			return nil
		}

		entry, err := ledger.NewStartingBalanceEntry(
			tenantID, customer.ID,
			record.Balance, asOf,
			"Migrated opening balance",
		)
		if err != nil {
			return err
		}
		if err := appendEntry(ctx, repos, entry); err != nil {
			return err
		}
		entryCreated = true
		return nil
	})
	return entryCreated, err
}
