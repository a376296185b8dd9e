package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/shared"
)

// InterestRunSummary is the audit summary emitted by one interest accrual
// run for one tenant.
type InterestRunSummary struct {
	TotalCustomersConsidered int         `json:"total_customers_considered"`
	Created                  int         `json:"created"`
	SkippedAlreadyApplied    int         `json:"skipped_already_applied"`
	SkippedZeroInterest      int         `json:"skipped_zero_interest"`
	CreatedEntryIDs          []uuid.UUID `json:"created_entry_ids"`
}

// InterestRun is the persisted audit record of one accrual run
type InterestRun struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	Month     time.Time // first day of the accrued month
	Summary   InterestRunSummary
	StartedAt time.Time
	EndedAt   time.Time
}

// NewInterestRun creates an audit record for a completed run
func NewInterestRun(tenantID uuid.UUID, month, startedAt, endedAt time.Time, summary InterestRunSummary) *InterestRun {
	return &InterestRun{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Month:      MonthStart(month),
		Summary:    summary,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	}
}
