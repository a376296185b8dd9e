package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/shared"
)

// Customer represents a store customer who may carry utang (store credit).
// The customer's running balance is owned by the ledger; HasUtang is a
// denormalized cache of "latest ledger balance > 0" maintained by the
// ledger append path.
type Customer struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Name     string
	Phone    string
	HasUtang bool
	// InterestRate overrides the tenant default monthly rate (percent)
	// when set.
	InterestRate *decimal.Decimal
}

// NewCustomer creates a new customer for a tenant
func NewCustomer(tenantID uuid.UUID, name, phone string) (*Customer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Name:       name,
		Phone:      phone,
	}, nil
}

// WithInterestRate sets a per-customer interest rate override
func (c *Customer) WithInterestRate(rate decimal.Decimal) *Customer {
	c.InterestRate = &rate
	return c
}

// EffectiveInterestRate returns the customer's rate override, or the given
// tenant default when no override is set.
func (c *Customer) EffectiveInterestRate(tenantDefault decimal.Decimal) decimal.Decimal {
	if c.InterestRate != nil {
		return *c.InterestRate
	}
	return tenantDefault
}
