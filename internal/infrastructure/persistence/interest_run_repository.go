package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInterestRunRepository implements ledger.InterestRunRepository using GORM
type GormInterestRunRepository struct {
	db *gorm.DB
}

// NewGormInterestRunRepository creates a new GormInterestRunRepository
func NewGormInterestRunRepository(db *gorm.DB) *GormInterestRunRepository {
	return &GormInterestRunRepository{db: db}
}

// Create persists a run audit record
func (r *GormInterestRunRepository) Create(ctx context.Context, run *ledger.InterestRun) error {
	model := models.InterestRunModelFromDomain(run)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByTenantAndMonth returns runs for a tenant in a calendar month
func (r *GormInterestRunRepository) FindByTenantAndMonth(ctx context.Context, tenantID uuid.UUID, asOfMonth time.Time) ([]ledger.InterestRun, error) {
	month := ledger.MonthStart(asOfMonth)

	var runModels []models.InterestRunModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND month = ?", tenantID, month).
		Order("started_at ASC").
		Find(&runModels).Error; err != nil {
		return nil, err
	}
	runs := make([]ledger.InterestRun, len(runModels))
	for i := range runModels {
		runs[i] = *runModels[i].ToDomain()
	}
	return runs, nil
}

// Ensure GormInterestRunRepository implements InterestRunRepository
var _ ledger.InterestRunRepository = (*GormInterestRunRepository)(nil)
