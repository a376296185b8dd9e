package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// kindPriorityExpr mirrors EntryKind.Priority for SQL ordering so that
// entries at the same business instant sort identically in Go and SQL.
const kindPriorityExpr = "CASE kind " +
	"WHEN 'STARTING_BALANCE' THEN 0 " +
	"WHEN 'SALE' THEN 1 " +
	"WHEN 'PAYMENT' THEN 2 " +
	"WHEN 'MONTHLY_INTEREST' THEN 3 " +
	"ELSE 4 END"

// GormEntryRepository implements ledger.EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// Create appends a new ledger entry
func (r *GormEntryRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// Latest returns the customer's most recent entry by chronological order
func (r *GormEntryRepository) Latest(ctx context.Context, tenantID, customerID uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("occurred_at DESC").
		Order(kindPriorityExpr + " DESC").
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists a customer's entries newest first
func (r *GormEntryRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter ledger.EntryFilter) ([]ledger.Entry, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)
	base = applyEntryFilter(base, filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).
		Order("occurred_at DESC").
		Order(kindPriorityExpr + " DESC").
		Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, total, nil
}

// FindStartingBalance returns the customer's opening balance entry if any
func (r *GormEntryRepository) FindStartingBalance(ctx context.Context, tenantID, customerID uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND kind = ?",
			tenantID, customerID, ledger.EntryKindStartingBalance.String()).
		Order("occurred_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsMonthlyInterest reports whether an interest entry exists for the
// calendar month containing asOfMonth
func (r *GormEntryRepository) ExistsMonthlyInterest(ctx context.Context, tenantID, customerID uuid.UUID, asOfMonth time.Time) (bool, error) {
	monthStart := ledger.MonthStart(asOfMonth)
	monthEnd := ledger.NextMonth(monthStart)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND customer_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at < ?",
			tenantID, customerID, ledger.EntryKindMonthlyInterest.String(), monthStart, monthEnd).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByCustomer removes all of a customer's entries (rebuild only)
func (r *GormEntryRepository) DeleteByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Delete(&models.LedgerEntryModel{}).Error
}

// CustomerIDs returns the distinct customer ids with ledger entries
func (r *GormEntryRepository) CustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ?", tenantID).
		Distinct().
		Pluck("customer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func applyEntryFilter(query *gorm.DB, filter ledger.EntryFilter) *gorm.DB {
	if filter.Kind != nil {
		query = query.Where("kind = ?", filter.Kind.String())
	}
	if filter.DateFrom != nil {
		query = query.Where("occurred_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("occurred_at <= ?", *filter.DateTo)
	}
	return query
}

// Ensure GormEntryRepository implements EntryRepository
var _ ledger.EntryRepository = (*GormEntryRepository)(nil)
