package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/identity"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// RebuildService regenerates ledgers from the sale and payment source
// records. Each customer is rebuilt in its own transaction: the old entries
// are dropped and the history is replayed in chronological order, accruing
// the same monthly interest the live engine would have produced. A replay
// that hits an inconsistency rolls that customer back, keeps the previous
// ledger, and reports the failure; other customers are unaffected.
type RebuildService struct {
	scope    TransactionScope
	tenants  identity.TenantRepository
	sales    trade.CreditSaleRepository
	payments trade.PaymentRecordRepository
	entries  ledger.EntryRepository
	logger   *zap.Logger
}

// NewRebuildService creates a RebuildService
func NewRebuildService(
	scope TransactionScope,
	tenants identity.TenantRepository,
	sales trade.CreditSaleRepository,
	payments trade.PaymentRecordRepository,
	entries ledger.EntryRepository,
	logger *zap.Logger,
) *RebuildService {
	return &RebuildService{
		scope:    scope,
		tenants:  tenants,
		sales:    sales,
		payments: payments,
		entries:  entries,
		logger:   logger,
	}
}

// replayEvent is one sale or payment in the rebuild timeline
type replayEvent struct {
	kind        ledger.EntryKind
	amount      decimal.Decimal
	referenceID uuid.UUID
	description string
	occurredAt  time.Time
	createdAt   time.Time
}

// RebuildForTenant rebuilds every customer that has sales, payments or
// ledger entries. Customers whose replay fails are reported in the result
// and keep their previous ledger.
func (s *RebuildService) RebuildForTenant(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*RebuildResult, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	customerIDs, err := s.collectCustomerIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &RebuildResult{}
	for _, customerID := range customerIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		created, err := s.RebuildForCustomer(ctx, tenant, customerID, asOf)
		if err != nil {
			s.logger.Warn("ledger rebuild failed for customer",
				zap.String("tenant_id", tenantID.String()),
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, RebuildFailure{
				CustomerID: customerID,
				Reason:     err.Error(),
			})
			continue
		}
		result.CustomersRebuilt++
		result.EntriesCreated += created
	}

	s.logger.Info("ledger rebuild completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("customers_rebuilt", result.CustomersRebuilt),
		zap.Int("entries_created", result.EntriesCreated),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

// RebuildCustomer rebuilds a single customer's ledger. A replay failure is
// reported in the result rather than returned, matching the tenant-wide
// rebuild's behavior.
func (s *RebuildService) RebuildCustomer(ctx context.Context, tenantID, customerID uuid.UUID, asOf time.Time) (*RebuildResult, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	created, err := s.RebuildForCustomer(ctx, tenant, customerID, asOf)
	if err != nil {
		return &RebuildResult{
			Failures: []RebuildFailure{{CustomerID: customerID, Reason: err.Error()}},
		}, nil
	}
	return &RebuildResult{CustomersRebuilt: 1, EntriesCreated: created}, nil
}

// RebuildForCustomer replays one customer's history inside a single
// transaction and returns the number of entries created. The replay is
// deterministic: the same source records always produce the same amounts,
// balances and ordering.
func (s *RebuildService) RebuildForCustomer(ctx context.Context, tenant *identity.Tenant, customerID uuid.UUID, asOf time.Time) (int, error) {
	created := 0
	err := s.scope.Execute(ctx, func(repos TxRepositories) error {
		customer, err := repos.Customers().FindByIDForTenantLocked(ctx, tenant.ID, customerID)
		if err != nil {
			return err
		}

		// A migrated opening balance has no source record, so carry it over
		// before dropping the old entries.
		starting, err := repos.Entries().FindStartingBalance(ctx, tenant.ID, customerID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			starting = nil
		}

		if err := repos.Entries().DeleteByCustomer(ctx, tenant.ID, customerID); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}

		events, err := s.loadEvents(ctx, repos, tenant.ID, customerID)
		if err != nil {
			return err
		}

		balance := decimal.Zero
		var anchor time.Time

		if starting != nil {
			entry, err := ledger.NewStartingBalanceEntry(
				tenant.ID, customerID, starting.Amount, starting.OccurredAt, starting.Description)
			if err != nil {
				return err
			}
			if err := repos.Entries().Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to save starting balance: %w", err)
			}
			created++
			balance = entry.NewBalance
			anchor = starting.OccurredAt
		} else if len(events) > 0 {
			anchor = events[0].occurredAt
		}

		rate := customer.EffectiveInterestRate(tenant.DefaultInterestRate)
		month := time.Time{}
		if !anchor.IsZero() {
			month = ledger.NextMonth(ledger.MonthStart(anchor))
		}

		accrue := func(m time.Time) error {
			if !balance.IsPositive() || !customer.CreatedAt.Before(m) {
				return nil
			}
			amount := ledger.InterestAmount(balance, rate)
			if amount.IsZero() {
				return nil
			}
			description := fmt.Sprintf("Monthly interest %s%% for %s", rate.String(), m.Format("2006-01"))
			entry, err := ledger.NewMonthlyInterestEntry(tenant.ID, customerID, balance, amount, m, description)
			if err != nil {
				return err
			}
			if err := repos.Entries().Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to save interest entry: %w", err)
			}
			created++
			balance = entry.NewBalance
			return nil
		}

		for i := range events {
			e := &events[i]

			// Interest for a month boundary lands before any event strictly
			// after it; events at the boundary instant sort ahead of the
			// interest entry by kind.
			for !month.IsZero() && month.Before(e.occurredAt) {
				if err := accrue(month); err != nil {
					return err
				}
				month = ledger.NextMonth(month)
			}

			var entry *ledger.Entry
			switch e.kind {
			case ledger.EntryKindSale:
				entry, err = ledger.NewSaleEntry(tenant.ID, customerID, balance, e.amount, e.occurredAt, e.description)
			case ledger.EntryKindPayment:
				if e.amount.GreaterThan(balance) {
					return fmt.Errorf("payment %s exceeds replayed balance %s: %w",
						e.amount.StringFixed(2), balance.StringFixed(2), shared.ErrIntegrity)
				}
				entry, err = ledger.NewPaymentEntry(tenant.ID, customerID, balance, e.amount, e.occurredAt, e.description)
			default:
				return shared.ErrIntegrity
			}
			if err != nil {
				return err
			}
			entry.WithReference(e.referenceID)
			if err := repos.Entries().Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to save replayed entry: %w", err)
			}
			created++
			balance = entry.NewBalance

			if month.IsZero() {
				month = ledger.NextMonth(ledger.MonthStart(e.occurredAt))
			}
		}

		// Months between the last event and now still accrue.
		limit := ledger.MonthStart(asOf)
		for !month.IsZero() && !month.After(limit) {
			if err := accrue(month); err != nil {
				return err
			}
			month = ledger.NextMonth(month)
		}

		if err := repos.Customers().SetHasUtang(ctx, tenant.ID, customerID, balance.IsPositive()); err != nil {
			return fmt.Errorf("failed to update utang flag: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// loadEvents merges the customer's sales and payments into one timeline
// ordered by (occurred_at, kind priority, created_at).
func (s *RebuildService) loadEvents(ctx context.Context, repos TxRepositories, tenantID, customerID uuid.UUID) ([]replayEvent, error) {
	sales, err := repos.Sales().FindCreditSalesByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	payments, err := repos.Payments().FindByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	events := make([]replayEvent, 0, len(sales)+len(payments))
	for i := range sales {
		if !sales[i].IsCredit() {
			continue
		}
		description := sales[i].Reference
		if description == "" {
			description = "Credit sale"
		}
		events = append(events, replayEvent{
			kind:        ledger.EntryKindSale,
			amount:      sales[i].UnpaidAmount(),
			referenceID: sales[i].ID,
			description: description,
			occurredAt:  sales[i].OccurredAt,
			createdAt:   sales[i].CreatedAt,
		})
	}
	for i := range payments {
		events = append(events, replayEvent{
			kind:        ledger.EntryKindPayment,
			amount:      payments[i].Amount,
			referenceID: payments[i].ID,
			description: payments[i].Note,
			occurredAt:  payments[i].OccurredAt,
			createdAt:   payments[i].CreatedAt,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].occurredAt.Equal(events[j].occurredAt) {
			return events[i].occurredAt.Before(events[j].occurredAt)
		}
		if events[i].kind.Priority() != events[j].kind.Priority() {
			return events[i].kind.Priority() < events[j].kind.Priority()
		}
		return events[i].createdAt.Before(events[j].createdAt)
	})
	return events, nil
}

// collectCustomerIDs unions the customer ids present in any replay source
func (s *RebuildService) collectCustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	ordered := make([]uuid.UUID, 0)

	add := func(ids []uuid.UUID) {
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ordered = append(ordered, id)
			}
		}
	}

	saleIDs, err := s.sales.FindCreditCustomerIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale customers: %w", err)
	}
	add(saleIDs)

	paymentIDs, err := s.payments.FindCustomerIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment customers: %w", err)
	}
	add(paymentIDs)

	entryIDs, err := s.entries.CustomerIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger customers: %w", err)
	}
	add(entryIDs)

	return ordered, nil
}
