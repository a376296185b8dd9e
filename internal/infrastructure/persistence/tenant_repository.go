package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/identity"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenantRepository implements identity.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds all active tenants
func (r *GormTenantRepository) FindActive(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", string(identity.TenantStatusActive)).
		Order("created_at ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var tenantModels []models.TenantModel
	if err := query.Find(&tenantModels).Error; err != nil {
		return nil, err
	}
	tenants := make([]identity.Tenant, len(tenantModels))
	for i := range tenantModels {
		tenants[i] = *tenantModels[i].ToDomain()
	}
	return tenants, nil
}

// Save persists a tenant (create or update)
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	model := models.TenantModelFromDomain(tenant)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)
