package models

import (
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtModel is the persistence model for the Debt aggregate root.
type DebtModel struct {
	AggregateModel
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DueDate        time.Time       `gorm:"type:date;not null;index"`
	PaymentDate    *time.Time      `gorm:"type:date"`
	Status         debt.Status     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Note           string          `gorm:"type:text"`
	RegisteredBy   uuid.UUID       `gorm:"type:uuid;not null"`
	SettledBy      *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DebtModel) TableName() string {
	return "debts"
}

// ToDomain converts the persistence model to a domain Debt.
func (m *DebtModel) ToDomain() *debt.Debt {
	return &debt.Debt{
		BaseAggregateRoot: m.AggregateModel.ToAggregateRoot(),
		ClientID:          m.ClientID,
		CompanyID:         m.CompanyID,
		OriginalAmount:    m.OriginalAmount,
		CurrentBalance:    m.CurrentBalance,
		DueDate:           utcDate(m.DueDate),
		PaymentDate:       utcDatePtr(m.PaymentDate),
		Status:            m.Status,
		Note:              m.Note,
		RegisteredBy:      m.RegisteredBy,
		SettledBy:         m.SettledBy,
	}
}

// FromDomain populates the persistence model from a domain Debt.
func (m *DebtModel) FromDomain(d *debt.Debt) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.ClientID = d.ClientID
	m.CompanyID = d.CompanyID
	m.OriginalAmount = d.OriginalAmount
	m.CurrentBalance = d.CurrentBalance
	m.DueDate = d.DueDate
	m.PaymentDate = d.PaymentDate
	m.Status = d.Status
	m.Note = d.Note
	m.RegisteredBy = d.RegisteredBy
	m.SettledBy = d.SettledBy
}

// DebtModelFromDomain creates a new persistence model from a domain Debt.
func DebtModelFromDomain(d *debt.Debt) *DebtModel {
	m := &DebtModel{}
	m.FromDomain(d)
	return m
}

// MutableColumns returns the columns a debt mutation may change, keyed by
// column name. A map is used so nil pointers are written as NULL.
func (m *DebtModel) MutableColumns() map[string]any {
	return map[string]any{
		"current_balance": m.CurrentBalance,
		"due_date":        m.DueDate,
		"payment_date":    m.PaymentDate,
		"status":          m.Status,
		"note":            m.Note,
		"settled_by":      m.SettledBy,
		"version":         m.Version,
		"updated_at":      m.UpdatedAt,
	}
}

// DebtHistoryModel is an append-only history row.
type DebtHistoryModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key"`
	DebtID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	Action       debt.HistoryAction  `gorm:"type:varchar(20);not null"`
	PriorBalance decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	NewBalance   decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	Description  string              `gorm:"type:text"`
	ActorID      uuid.UUID           `gorm:"type:uuid;not null"`
	CreatedAt    time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DebtHistoryModel) TableName() string {
	return "debt_history"
}

// ToDomain converts the persistence model to a domain HistoryEntry.
func (m *DebtHistoryModel) ToDomain() debt.HistoryEntry {
	return debt.HistoryEntry{
		ID:           m.ID,
		DebtID:       m.DebtID,
		Action:       m.Action,
		PriorBalance: m.PriorBalance,
		NewBalance:   m.NewBalance,
		Description:  m.Description,
		ActorID:      m.ActorID,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

// DebtHistoryModelFromDomain creates a persistence model from a domain HistoryEntry.
func DebtHistoryModelFromDomain(e *debt.HistoryEntry) *DebtHistoryModel {
	return &DebtHistoryModel{
		ID:           e.ID,
		DebtID:       e.DebtID,
		Action:       e.Action,
		PriorBalance: e.PriorBalance,
		NewBalance:   e.NewBalance,
		Description:  e.Description,
		ActorID:      e.ActorID,
		CreatedAt:    e.CreatedAt,
	}
}
