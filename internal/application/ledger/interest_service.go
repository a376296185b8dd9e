package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/identity"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// defaultRunLockTTL bounds how long a crashed run can block the next attempt
const defaultRunLockTTL = time.Hour

// RunLock is a best-effort single-flight lock for interest runs. The real
// idempotency guard is the per-customer, per-month eligibility check; the
// lock only keeps concurrent runs from burning work on the same tenant.
type RunLock interface {
	// TryAcquire attempts to take the named lock, returning false when it
	// is already held.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the named lock
	Release(ctx context.Context, key string) error
}

// InterestService is the monthly interest accrual engine. A run selects
// the tenant's utang-flagged customers and appends one compounding
// MONTHLY_INTEREST entry per eligible customer, at most once per calendar
// month. Re-running within the same month is a no-op for customers already
// processed, and the job can be interrupted between customers without
// corrupting state.
type InterestService struct {
	scope      TransactionScope
	tenants    identity.TenantRepository
	customers  partner.CustomerRepository
	entries    ledger.EntryRepository
	runs       ledger.InterestRunRepository
	calculator *BalanceCalculator
	runLock    RunLock
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewInterestService creates an InterestService
func NewInterestService(
	scope TransactionScope,
	tenants identity.TenantRepository,
	customers partner.CustomerRepository,
	entries ledger.EntryRepository,
	runs ledger.InterestRunRepository,
	calculator *BalanceCalculator,
	runLock RunLock,
	logger *zap.Logger,
) *InterestService {
	return &InterestService{
		scope:      scope,
		tenants:    tenants,
		customers:  customers,
		entries:    entries,
		runs:       runs,
		calculator: calculator,
		runLock:    runLock,
		lockTTL:    defaultRunLockTTL,
		logger:     logger,
	}
}

// SetRunLockTTL overrides the default run lock TTL. Values of zero or
// less are ignored.
func (s *InterestService) SetRunLockTTL(ttl time.Duration) {
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

// RunForTenant accrues interest for one tenant for the calendar month
// containing asOf and returns the audit summary.
func (s *InterestService) RunForTenant(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*ledger.InterestRunSummary, error) {
	month := ledger.MonthStart(asOf)
	startedAt := time.Now()

	lockKey := fmt.Sprintf("interest-run:%s:%s", tenantID, month.Format("2006-01"))
	acquired, err := s.runLock.TryAcquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire interest run lock: %w", err)
	}
	if !acquired {
		return nil, shared.ErrConcurrencyConflict
	}
	defer func() {
		if releaseErr := s.runLock.Release(context.WithoutCancel(ctx), lockKey); releaseErr != nil {
			s.logger.Warn("failed to release interest run lock",
				zap.String("key", lockKey), zap.Error(releaseErr))
		}
	}()

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.customers.FindWithUtang(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list utang customers: %w", err)
	}

	summary := &ledger.InterestRunSummary{
		TotalCustomersConsidered: len(candidates),
		CreatedEntryIDs:          []uuid.UUID{},
	}

	for i := range candidates {
		// The run may be interrupted between customers; each append is
		// atomic and a resumed run skips already-processed customers.
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		customerID := candidates[i].ID

		applied, err := s.entries.ExistsMonthlyInterest(ctx, tenantID, customerID, month)
		if err != nil {
			return summary, err
		}
		if applied {
			summary.SkippedAlreadyApplied++
			continue
		}

		eligible, err := s.calculator.IsEligibleForInterest(ctx, tenantID, customerID, month)
		if err != nil {
			return summary, err
		}
		if !eligible {
			continue
		}

		if err := s.accrueForCustomer(ctx, tenant, customerID, month, summary); err != nil {
			s.logger.Error("interest accrual failed for customer",
				zap.String("tenant_id", tenantID.String()),
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
			return summary, err
		}
	}

	run := ledger.NewInterestRun(tenantID, month, startedAt, time.Now(), *summary)
	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Warn("failed to persist interest run record", zap.Error(err))
	}

	s.logger.Info("monthly interest run completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("month", month.Format("2006-01")),
		zap.Int("considered", summary.TotalCustomersConsidered),
		zap.Int("created", summary.Created),
		zap.Int("skipped_already_applied", summary.SkippedAlreadyApplied),
		zap.Int("skipped_zero_interest", summary.SkippedZeroInterest),
	)
	return summary, nil
}

// accrueForCustomer appends at most one interest entry for the customer in
// the given month. Eligibility is re-checked under the customer's row lock
// so overlapping runs cannot double-apply.
func (s *InterestService) accrueForCustomer(
	ctx context.Context,
	tenant *identity.Tenant,
	customerID uuid.UUID,
	month time.Time,
	summary *ledger.InterestRunSummary,
) error {
	return s.scope.Execute(ctx, func(repos TxRepositories) error {
		locked, err := repos.Customers().FindByIDForTenantLocked(ctx, tenant.ID, customerID)
		if err != nil {
			return err
		}

		latest, err := repos.Entries().Latest(ctx, tenant.ID, customerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		// The accrual must sort after everything already in the ledger. A
		// run fired or resumed after same-month activity dates the entry at
		// the latest entry instead of the month start.
		balance := decimal.Zero
		occurredAt := month
		if err == nil {
			balance = latest.NewBalance
			if !latest.OccurredAt.Before(occurredAt) {
				occurredAt = latest.OccurredAt
				if latest.Kind.Priority() >= ledger.EntryKindMonthlyInterest.Priority() {
					occurredAt = occurredAt.Add(time.Microsecond)
				}
			}
		}
		// No interest in the month the account was created.
		if !balance.IsPositive() || !locked.CreatedAt.Before(month) {
			return nil
		}

		if !ledger.SameMonth(occurredAt, month) {
			// The ledger already moved past the accrued month. An entry
			// dated outside it would escape the once-per-month check and
			// double-charge on the next run; leave it to a rebuild.
			s.logger.Warn("ledger advanced past accrual month, skipping interest",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("customer_id", customerID.String()),
				zap.String("month", month.Format("2006-01")),
			)
			return nil
		}

		applied, err := repos.Entries().ExistsMonthlyInterest(ctx, tenant.ID, customerID, month)
		if err != nil {
			return err
		}
		if applied {
			// Lost the race against a concurrent run; nothing to do.
			return nil
		}

		rate := locked.EffectiveInterestRate(tenant.DefaultInterestRate)
		amount := ledger.InterestAmount(balance, rate)
		if amount.IsZero() {
			summary.SkippedZeroInterest++
			return nil
		}

		description := fmt.Sprintf("Monthly interest %s%% for %s", rate.String(), month.Format("2006-01"))
		entry, err := ledger.NewMonthlyInterestEntry(tenant.ID, customerID, balance, amount, occurredAt, description)
		if err != nil {
			return err
		}
		if err := appendEntry(ctx, repos, entry); err != nil {
			return err
		}

		summary.Created++
		summary.CreatedEntryIDs = append(summary.CreatedEntryIDs, entry.ID)
		return nil
	})
}

// RunAll accrues interest for every active tenant. Per-tenant failures are
// logged and do not stop the remaining tenants.
func (s *InterestService) RunAll(ctx context.Context, asOf time.Time) (map[uuid.UUID]*ledger.InterestRunSummary, error) {
	tenants, err := s.tenants.FindActive(ctx, shared.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	results := make(map[uuid.UUID]*ledger.InterestRunSummary, len(tenants))
	for i := range tenants {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		summary, err := s.RunForTenant(ctx, tenants[i].ID, asOf)
		if err != nil {
			s.logger.Error("interest run failed for tenant",
				zap.String("tenant_id", tenants[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		results[tenants[i].ID] = summary
	}
	return results, nil
}
