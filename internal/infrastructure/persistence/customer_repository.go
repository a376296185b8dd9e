package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByIDForTenant finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.missOrMismatch(ctx, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// missOrMismatch distinguishes a missing customer from one owned by another
// tenant. Handlers surface both as 404; logs and audits can tell them apart.
func (r *GormCustomerRepository) missOrMismatch(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrTenantMismatch
	}
	return shared.ErrNotFound
}

// FindByIDForTenantLocked takes a FOR UPDATE row lock on the customer for
// the duration of the surrounding transaction. The wait is bounded by the
// transaction's lock_timeout; hitting it maps to shared.ErrLockTimeout.
func (r *GormCustomerRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.missOrMismatch(ctx, id)
		}
		if isLockTimeout(err) {
			return nil, shared.ErrLockTimeout
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant lists customers for a tenant
func (r *GormCustomerRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Customer, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("tenant_id = ?", tenantID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).Order("name ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var customerModels []models.CustomerModel
	if err := query.Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, total, nil
}

// FindWithUtang lists customers flagged as carrying utang
func (r *GormCustomerRepository) FindWithUtang(ctx context.Context, tenantID uuid.UUID) ([]partner.Customer, error) {
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND has_utang = ?", tenantID, true).
		Order("created_at ASC").
		Find(&customerModels).Error; err != nil {
		return nil, err
	}
	customers := make([]partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, nil
}

// Save persists a customer (create or update)
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(model).Error
}

// SetHasUtang updates the denormalized has_utang flag
func (r *GormCustomerRepository) SetHasUtang(ctx context.Context, tenantID, id uuid.UUID, hasUtang bool) error {
	result := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"has_utang":  hasUtang,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// sqlStater is implemented by pgx's PgError
type sqlStater interface {
	SQLState() string
}

// isLockTimeout detects a Postgres lock_timeout expiry (SQLSTATE 55P03)
// from either the pgx-backed gorm driver or lib/pq.
func isLockTimeout(err error) bool {
	var stater sqlStater
	if errors.As(err, &stater) {
		return stater.SQLState() == "55P03"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "55P03"
	}
	return false
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
