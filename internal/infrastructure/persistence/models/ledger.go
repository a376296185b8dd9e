package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/ledger"
)

// LedgerEntryModel is the persistence model for ledger entries. Rows are
// append-only; there is no update path.
type LedgerEntryModel struct {
	BaseModel
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_tenant_customer,priority:1"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_tenant_customer,priority:2"`
	Kind            string          `gorm:"type:varchar(20);not null"`
	ReferenceID     *uuid.UUID      `gorm:"type:uuid;index"`
	PreviousBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NewBalance      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description     string          `gorm:"type:text"`
	OccurredAt      time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		BaseEntity:      m.BaseModel.ToDomain(),
		TenantID:        m.TenantID,
		CustomerID:      m.CustomerID,
		Kind:            ledger.EntryKind(m.Kind),
		ReferenceID:     m.ReferenceID,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		Amount:          m.Amount,
		Description:     m.Description,
		OccurredAt:      m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain Entry
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.CustomerID = e.CustomerID
	m.Kind = string(e.Kind)
	m.ReferenceID = e.ReferenceID
	m.PreviousBalance = e.PreviousBalance
	m.NewBalance = e.NewBalance
	m.Amount = e.Amount
	m.Description = e.Description
	m.OccurredAt = e.OccurredAt
}

// LedgerEntryModelFromDomain creates a persistence model from a domain Entry
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}

// InterestRunModel is the persistence model for interest run audit records
type InterestRunModel struct {
	BaseModel
	TenantID              uuid.UUID `gorm:"type:uuid;not null;index:idx_interest_run_tenant_month,priority:1"`
	Month                 time.Time `gorm:"not null;index:idx_interest_run_tenant_month,priority:2"`
	CustomersConsidered   int       `gorm:"not null;default:0"`
	EntriesCreated        int       `gorm:"not null;default:0"`
	SkippedAlreadyApplied int       `gorm:"not null;default:0"`
	SkippedZeroInterest   int       `gorm:"not null;default:0"`
	CreatedEntryIDs       string    `gorm:"type:jsonb"`
	StartedAt             time.Time `gorm:"not null"`
	EndedAt               time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InterestRunModel) TableName() string {
	return "interest_runs"
}

// ToDomain converts the persistence model to a domain InterestRun
func (m *InterestRunModel) ToDomain() *ledger.InterestRun {
	var entryIDs []uuid.UUID
	if m.CreatedEntryIDs != "" {
		// Corrupt audit payloads should not break reads.
		_ = json.Unmarshal([]byte(m.CreatedEntryIDs), &entryIDs)
	}
	return &ledger.InterestRun{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Month:      m.Month,
		Summary: ledger.InterestRunSummary{
			TotalCustomersConsidered: m.CustomersConsidered,
			Created:                  m.EntriesCreated,
			SkippedAlreadyApplied:    m.SkippedAlreadyApplied,
			SkippedZeroInterest:      m.SkippedZeroInterest,
			CreatedEntryIDs:          entryIDs,
		},
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
}

// FromDomain populates the persistence model from a domain InterestRun
func (m *InterestRunModel) FromDomain(run *ledger.InterestRun) {
	m.FromDomainBaseEntity(run.BaseEntity)
	m.TenantID = run.TenantID
	m.Month = run.Month
	m.CustomersConsidered = run.Summary.TotalCustomersConsidered
	m.EntriesCreated = run.Summary.Created
	m.SkippedAlreadyApplied = run.Summary.SkippedAlreadyApplied
	m.SkippedZeroInterest = run.Summary.SkippedZeroInterest
	if ids, err := json.Marshal(run.Summary.CreatedEntryIDs); err == nil {
		m.CreatedEntryIDs = string(ids)
	}
	m.StartedAt = run.StartedAt
	m.EndedAt = run.EndedAt
}

// InterestRunModelFromDomain creates a persistence model from a domain InterestRun
func InterestRunModelFromDomain(run *ledger.InterestRun) *InterestRunModel {
	m := &InterestRunModel{}
	m.FromDomain(run)
	return m
}
