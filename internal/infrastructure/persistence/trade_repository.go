package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
	"github.com/tindahan/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCreditSaleRepository implements trade.CreditSaleRepository using GORM
type GormCreditSaleRepository struct {
	db *gorm.DB
}

// NewGormCreditSaleRepository creates a new GormCreditSaleRepository
func NewGormCreditSaleRepository(db *gorm.DB) *GormCreditSaleRepository {
	return &GormCreditSaleRepository{db: db}
}

// Create persists a new sale record
func (r *GormCreditSaleRepository) Create(ctx context.Context, sale *trade.CreditSale) error {
	model := models.CreditSaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a sale by ID within a tenant
func (r *GormCreditSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.CreditSale, error) {
	var model models.CreditSaleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindCreditSalesByCustomer returns all credit sales for a customer in
// replay order
func (r *GormCreditSaleRepository) FindCreditSalesByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]trade.CreditSale, error) {
	var saleModels []models.CreditSaleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("occurred_at ASC").
		Order("created_at ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	sales := make([]trade.CreditSale, len(saleModels))
	for i := range saleModels {
		sales[i] = *saleModels[i].ToDomain()
	}
	return sales, nil
}

// FindCreditCustomerIDs returns the distinct customer ids with at least one
// credit sale
func (r *GormCreditSaleRepository) FindCreditCustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.CreditSaleModel{}).
		Where("tenant_id = ? AND customer_id IS NOT NULL AND total_amount <> paid_amount", tenantID).
		Distinct().
		Pluck("customer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure GormCreditSaleRepository implements CreditSaleRepository
var _ trade.CreditSaleRepository = (*GormCreditSaleRepository)(nil)

// GormPaymentRecordRepository implements trade.PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// Create persists a new payment record
func (r *GormPaymentRecordRepository) Create(ctx context.Context, payment *trade.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(payment)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByCustomer returns all payment records for a customer in replay order
func (r *GormPaymentRecordRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]trade.PaymentRecord, error) {
	var paymentModels []models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("occurred_at ASC").
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]trade.PaymentRecord, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// FindCustomerIDs returns the distinct customer ids with at least one
// payment record
func (r *GormPaymentRecordRepository) FindCustomerIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ?", tenantID).
		Distinct().
		Pluck("customer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure GormPaymentRecordRepository implements PaymentRecordRepository
var _ trade.PaymentRecordRepository = (*GormPaymentRecordRepository)(nil)
