package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity
type CustomerModel struct {
	BaseModel
	TenantID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_customer_tenant,priority:1"`
	Name         string           `gorm:"type:varchar(200);not null"`
	Phone        string           `gorm:"type:varchar(50);index"`
	HasUtang     bool             `gorm:"not null;default:false;index"`
	InterestRate *decimal.Decimal `gorm:"type:decimal(8,4)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity:   m.BaseModel.ToDomain(),
		TenantID:     m.TenantID,
		Name:         m.Name,
		Phone:        m.Phone,
		HasUtang:     m.HasUtang,
		InterestRate: m.InterestRate,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.Name = c.Name
	m.Phone = c.Phone
	m.HasUtang = c.HasUtang
	m.InterestRate = c.InterestRate
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
