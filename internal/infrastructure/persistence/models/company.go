package models

import (
	"github.com/dividas/backend/internal/domain/debt"
	"github.com/google/uuid"
)

// CompanyModel is the persistence model for the Company entity.
type CompanyModel struct {
	BaseModel
	Name   string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	TaxID  *string `gorm:"type:varchar(18);uniqueIndex"`
	Phone  string  `gorm:"type:varchar(15)"`
	Email  string  `gorm:"type:varchar(254)"`
	Active bool    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *debt.Company {
	c := &debt.Company{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		Active:     m.Active,
	}
	if m.TaxID != nil {
		c.TaxID = *m.TaxID
	}
	return c
}

// CompanyModelFromDomain creates a persistence model from a domain Company.
func CompanyModelFromDomain(c *debt.Company) *CompanyModel {
	m := &CompanyModel{
		Name:   c.Name,
		Phone:  c.Phone,
		Email:  c.Email,
		Active: c.Active,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	if c.TaxID != "" {
		taxID := c.TaxID
		m.TaxID = &taxID
	}
	return m
}

// MembershipModel binds a user to one company.
type MembershipModel struct {
	BaseModel
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;index"`
	IsCompanyAdmin bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "company_memberships"
}

// ToDomain converts the persistence model to a domain Membership.
func (m *MembershipModel) ToDomain() *debt.Membership {
	return &debt.Membership{
		BaseEntity:     m.BaseModel.ToDomain(),
		UserID:         m.UserID,
		CompanyID:      m.CompanyID,
		IsCompanyAdmin: m.IsCompanyAdmin,
	}
}

// MembershipModelFromDomain creates a persistence model from a domain Membership.
func MembershipModelFromDomain(ms *debt.Membership) *MembershipModel {
	m := &MembershipModel{
		UserID:         ms.UserID,
		CompanyID:      ms.CompanyID,
		IsCompanyAdmin: ms.IsCompanyAdmin,
	}
	m.FromDomainBaseEntity(ms.BaseEntity)
	return m
}
