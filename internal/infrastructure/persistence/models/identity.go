package models

import (
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant domain entity
type TenantModel struct {
	BaseModel
	Name                string          `gorm:"type:varchar(200);not null"`
	Status              string          `gorm:"type:varchar(20);not null;default:'active';index"`
	DefaultInterestRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseEntity:          m.BaseModel.ToDomain(),
		Name:                m.Name,
		Status:              identity.TenantStatus(m.Status),
		DefaultInterestRate: m.DefaultInterestRate,
	}
}

// FromDomain populates the persistence model from a domain Tenant
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Name = t.Name
	m.Status = string(t.Status)
	m.DefaultInterestRate = t.DefaultInterestRate
}

// TenantModelFromDomain creates a persistence model from a domain Tenant
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}
