package identity

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// Tenant represents a store owner in the multi-tenant system. Every ledger
// operation is scoped to a tenant id; there is no ambient tenant context.
type Tenant struct {
	shared.BaseEntity
	Name   string
	Status TenantStatus
	// DefaultInterestRate is the monthly utang interest rate in percent,
	// used when a customer has no rate override.
	DefaultInterestRate decimal.Decimal
}

// NewTenant creates a new active tenant
func NewTenant(name string, defaultInterestRate decimal.Decimal) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if defaultInterestRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Interest rate cannot be negative")
	}
	return &Tenant{
		BaseEntity:          shared.NewBaseEntity(),
		Name:                name,
		Status:              TenantStatusActive,
		DefaultInterestRate: defaultInterestRate,
	}, nil
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Deactivate marks the tenant as inactive
func (t *Tenant) Deactivate() {
	t.Status = TenantStatusInactive
}
