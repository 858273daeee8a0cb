package access

import (
	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListQuery filters the client listing
type ListQuery struct {
	// Query is a document id, complete or partial. Empty lists the
	// company's clients with open debts.
	Query string
	// CompanyID narrows an external actor's listing to clients owing that
	// company. Ignored for company actors.
	CompanyID *uuid.UUID
	Page      shared.Page
}

// ClientDetail is a client with the debts the actor may see, grouped by company
type ClientDetail struct {
	Client    debt.Client
	Companies []CompanyDebts
	Stats     DetailStats
}

// CompanyDebts is one company's group within a client detail
type CompanyDebts struct {
	Company debt.Company
	debt.CompanyGroup
}

// DetailStats counts the visible debts of a client detail
type DetailStats struct {
	TotalDebts  int
	OpenDebts   int
	PaidDebts   int
	OpenBalance decimal.Decimal
}

// DebtView is a debt annotated for the acting user
type DebtView struct {
	debt.Debt
	CanSettle bool
	Overdue   bool
}
