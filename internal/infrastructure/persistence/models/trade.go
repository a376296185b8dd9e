package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/trade"
)

// CreditSaleModel is the persistence model for sale source records
type CreditSaleModel struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_sale_tenant_customer,priority:1"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index:idx_credit_sale_tenant_customer,priority:2"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reference   string          `gorm:"type:varchar(100)"`
	OccurredAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CreditSaleModel) TableName() string {
	return "credit_sales"
}

// ToDomain converts the persistence model to a domain CreditSale
func (m *CreditSaleModel) ToDomain() *trade.CreditSale {
	return &trade.CreditSale{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		CustomerID:  m.CustomerID,
		TotalAmount: m.TotalAmount,
		PaidAmount:  m.PaidAmount,
		Reference:   m.Reference,
		OccurredAt:  m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain CreditSale
func (m *CreditSaleModel) FromDomain(s *trade.CreditSale) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.TenantID = s.TenantID
	m.CustomerID = s.CustomerID
	m.TotalAmount = s.TotalAmount
	m.PaidAmount = s.PaidAmount
	m.Reference = s.Reference
	m.OccurredAt = s.OccurredAt
}

// CreditSaleModelFromDomain creates a persistence model from a domain CreditSale
func CreditSaleModelFromDomain(s *trade.CreditSale) *CreditSaleModel {
	m := &CreditSaleModel{}
	m.FromDomain(s)
	return m
}

// PaymentRecordModel is the persistence model for payment source records
type PaymentRecordModel struct {
	BaseModel
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_payment_tenant_customer,priority:1"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index:idx_payment_tenant_customer,priority:2"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Note       string          `gorm:"type:text"`
	OccurredAt time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain PaymentRecord
func (m *PaymentRecordModel) ToDomain() *trade.PaymentRecord {
	return &trade.PaymentRecord{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		CustomerID: m.CustomerID,
		Amount:     m.Amount,
		Note:       m.Note,
		OccurredAt: m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain PaymentRecord
func (m *PaymentRecordModel) FromDomain(p *trade.PaymentRecord) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TenantID = p.TenantID
	m.CustomerID = p.CustomerID
	m.Amount = p.Amount
	m.Note = p.Note
	m.OccurredAt = p.OccurredAt
}

// PaymentRecordModelFromDomain creates a persistence model from a domain PaymentRecord
func PaymentRecordModelFromDomain(p *trade.PaymentRecord) *PaymentRecordModel {
	m := &PaymentRecordModel{}
	m.FromDomain(p)
	return m
}
