package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/shared"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindActive finds all active tenants
	FindActive(ctx context.Context, filter shared.Filter) ([]Tenant, error)

	// Save persists a tenant (create or update)
	Save(ctx context.Context, tenant *Tenant) error
}
