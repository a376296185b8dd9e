package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntryFilter narrows ledger entry queries
type EntryFilter struct {
	Kind     *EntryKind
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// EntryRepository defines persistence for ledger entries. Create is the
// only mutation in normal operation; DeleteByCustomer exists solely for
// the rebuilder's truncate-and-regenerate pass.
type EntryRepository interface {
	// Create appends a new entry
	Create(ctx context.Context, entry *Entry) error

	// Latest returns the customer's most recent entry by
	// (occurred_at, kind priority, created_at), or shared.ErrNotFound for
	// an empty ledger.
	Latest(ctx context.Context, tenantID, customerID uuid.UUID) (*Entry, error)

	// FindByCustomer lists a customer's entries ordered newest first by
	// (occurred_at, kind priority, created_at).
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter EntryFilter) ([]Entry, int64, error)

	// FindStartingBalance returns the customer's STARTING_BALANCE entry if
	// one exists.
	FindStartingBalance(ctx context.Context, tenantID, customerID uuid.UUID) (*Entry, error)

	// ExistsMonthlyInterest reports whether a MONTHLY_INTEREST entry exists
	// for the calendar month containing asOfMonth.
	ExistsMonthlyInterest(ctx context.Context, tenantID, customerID uuid.UUID, asOfMonth time.Time) (bool, error)

	// DeleteByCustomer removes all entries for one customer (rebuild only)
	DeleteByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error

	// CustomerIDs returns the distinct customer ids with ledger entries
	CustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}

// InterestRunRepository persists one audit record per interest accrual run
type InterestRunRepository interface {
	// Create persists a run record
	Create(ctx context.Context, run *InterestRun) error

	// FindByTenantAndMonth returns runs for a tenant in a calendar month
	FindByTenantAndMonth(ctx context.Context, tenantID uuid.UUID, asOfMonth time.Time) ([]InterestRun, error)
}
