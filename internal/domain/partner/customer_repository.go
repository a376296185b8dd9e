package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByIDForTenant finds a customer by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindByIDForTenantLocked finds a customer by ID within a tenant and
	// takes a row-level lock on it for the duration of the surrounding
	// transaction. Implementations must not block indefinitely: lock
	// contention surfaces shared.ErrLockTimeout.
	FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindByTenant lists customers for a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)

	// FindWithUtang lists customers flagged as carrying utang
	FindWithUtang(ctx context.Context, tenantID uuid.UUID) ([]Customer, error)

	// Save persists a customer (create or update)
	Save(ctx context.Context, customer *Customer) error

	// SetHasUtang updates the denormalized has_utang flag
	SetHasUtang(ctx context.Context, tenantID, id uuid.UUID, hasUtang bool) error
}
