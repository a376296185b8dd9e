package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
)

// EntryKind represents the type of a ledger entry
type EntryKind string

const (
	// EntryKindStartingBalance seeds a customer's ledger with an opening
	// balance. Only rebuilds and data migrations mint these.
	EntryKindStartingBalance EntryKind = "STARTING_BALANCE"
	// EntryKindSale is the unpaid part of a completed sale (balance increase)
	EntryKindSale EntryKind = "SALE"
	// EntryKindPayment is an utang payment (balance decrease)
	EntryKindPayment EntryKind = "PAYMENT"
	// EntryKindMonthlyInterest is the monthly compounding interest accrual
	EntryKindMonthlyInterest EntryKind = "MONTHLY_INTEREST"
	// EntryKindBalanceUpdate is a manual correction that sets the balance
	// to an absolute value
	EntryKindBalanceUpdate EntryKind = "BALANCE_UPDATE"
)

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	return string(k)
}

// IsValid returns true if the entry kind is valid
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindStartingBalance,
		EntryKindSale,
		EntryKindPayment,
		EntryKindMonthlyInterest,
		EntryKindBalanceUpdate:
		return true
	}
	return false
}

// Priority orders entries of the same instant: starting balance first, then
// sale before payment before interest, manual corrections last.
func (k EntryKind) Priority() int {
	switch k {
	case EntryKindStartingBalance:
		return 0
	case EntryKindSale:
		return 1
	case EntryKindPayment:
		return 2
	case EntryKindMonthlyInterest:
		return 3
	case EntryKindBalanceUpdate:
		return 4
	}
	return 5
}

// Sign returns the balance direction of the kind: +1 increases the balance,
// -1 decreases it. BALANCE_UPDATE has no sign; its new balance is absolute.
func (k EntryKind) Sign() int {
	switch k {
	case EntryKindSale, EntryKindMonthlyInterest, EntryKindStartingBalance:
		return 1
	case EntryKindPayment:
		return -1
	}
	return 0
}

// Entry is one immutable, balance-affecting record in a customer's credit
// history. Once created an entry is never updated or deleted; corrections
// append offsetting entries, and only the rebuilder may truncate and
// regenerate a ledger.
type Entry struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Kind       EntryKind
	// ReferenceID points at the originating sale/payment record, not owned
	// by the ledger.
	ReferenceID     *uuid.UUID
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Amount          decimal.Decimal
	Description     string
	// OccurredAt is the business time used for chronological ordering.
	// CreatedAt (row time) is only a tie-break.
	OccurredAt time.Time
}

// newEntry creates an entry after validating the shared preconditions
func newEntry(
	tenantID, customerID uuid.UUID,
	kind EntryKind,
	previousBalance, newBalance, amount decimal.Decimal,
	occurredAt time.Time,
	description string,
) (*Entry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Invalid ledger entry kind")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &Entry{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		CustomerID:      customerID,
		Kind:            kind,
		PreviousBalance: previousBalance.Round(2),
		NewBalance:      newBalance.Round(2),
		Amount:          amount.Round(2),
		Description:     description,
		OccurredAt:      occurredAt,
	}, nil
}

// NewSaleEntry creates a sale entry. Amount is the unpaid part of the sale;
// a negative amount is the degenerate overpaid-at-till case and behaves
// like an implicit payment.
func NewSaleEntry(
	tenantID, customerID uuid.UUID,
	previousBalance, amount decimal.Decimal,
	occurredAt time.Time,
	description string,
) (*Entry, error) {
	if amount.IsZero() {
		return nil, shared.ErrInvalidAmount
	}
	return newEntry(
		tenantID, customerID,
		EntryKindSale,
		previousBalance, previousBalance.Add(amount), amount,
		occurredAt, description,
	)
}

// NewPaymentEntry creates a payment entry. Amount must be positive; the
// caller enforces the exceeds-balance rule against a locked read.
func NewPaymentEntry(
	tenantID, customerID uuid.UUID,
	previousBalance, amount decimal.Decimal,
	occurredAt time.Time,
	description string,
) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	return newEntry(
		tenantID, customerID,
		EntryKindPayment,
		previousBalance, previousBalance.Sub(amount), amount,
		occurredAt, description,
	)
}

// NewMonthlyInterestEntry creates a monthly interest accrual entry
func NewMonthlyInterestEntry(
	tenantID, customerID uuid.UUID,
	previousBalance, amount decimal.Decimal,
	occurredAt time.Time,
	description string,
) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	return newEntry(
		tenantID, customerID,
		EntryKindMonthlyInterest,
		previousBalance, previousBalance.Add(amount), amount,
		occurredAt, description,
	)
}

// NewStartingBalanceEntry creates an opening balance entry (first entry of
// a rebuilt or migrated ledger).
func NewStartingBalanceEntry(
	tenantID, customerID uuid.UUID,
	amount decimal.Decimal,
	occurredAt time.Time,
	description string,
) (*Entry, error) {
	if amount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	return newEntry(
		tenantID, customerID,
		EntryKindStartingBalance,
		decimal.Zero, amount, amount,
		occurredAt, description,
	)
}

// NewBalanceUpdateEntry creates a manual correction entry. Amount carries
// the absolute new balance, not a delta.
func NewBalanceUpdateEntry(
	tenantID, customerID uuid.UUID,
	previousBalance, newBalance decimal.Decimal,
	occurredAt time.Time,
	description string,
) (*Entry, error) {
	if newBalance.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	if newBalance.Equal(previousBalance) {
		return nil, shared.ErrNoChange
	}
	return newEntry(
		tenantID, customerID,
		EntryKindBalanceUpdate,
		previousBalance, newBalance, newBalance,
		occurredAt, description,
	)
}

// WithReference sets the originating sale/payment record id
func (e *Entry) WithReference(referenceID uuid.UUID) *Entry {
	e.ReferenceID = &referenceID
	return e
}

// LeavesUtang returns true if the entry leaves the customer owing money
func (e *Entry) LeavesUtang() bool {
	return e.NewBalance.IsPositive()
}

// CheckBalanceInvariant verifies new == previous + signed(amount) for all
// kinds except BALANCE_UPDATE, whose new balance is absolute.
func (e *Entry) CheckBalanceInvariant() error {
	if e.Kind == EntryKindBalanceUpdate {
		if !e.NewBalance.Equal(e.Amount) {
			return shared.ErrIntegrity
		}
		return nil
	}
	signed := e.Amount
	if e.Kind.Sign() < 0 {
		signed = e.Amount.Neg()
	}
	if !e.NewBalance.Equal(e.PreviousBalance.Add(signed)) {
		return shared.ErrIntegrity
	}
	return nil
}
