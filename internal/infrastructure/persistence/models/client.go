package models

import (
	"time"

	"github.com/dividas/backend/internal/domain/debt"
)

// ClientModel is the persistence model for the Client entity.
// DocumentID is stored as 11 digits.
type ClientModel struct {
	BaseModel
	FullName   string     `gorm:"type:varchar(200);not null;index"`
	DocumentID string     `gorm:"type:varchar(14);not null;uniqueIndex"`
	BirthDate  *time.Time `gorm:"type:date"`
	Email      string     `gorm:"type:varchar(254)"`
	Phone      string     `gorm:"type:varchar(15)"`
	Address    string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *debt.Client {
	return &debt.Client{
		BaseEntity: m.BaseModel.ToDomain(),
		FullName:   m.FullName,
		DocumentID: m.DocumentID,
		BirthDate:  utcDatePtr(m.BirthDate),
		Email:      m.Email,
		Phone:      m.Phone,
		Address:    m.Address,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client.
func ClientModelFromDomain(c *debt.Client) *ClientModel {
	m := &ClientModel{
		FullName:   c.FullName,
		DocumentID: c.DocumentID,
		BirthDate:  c.BirthDate,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
