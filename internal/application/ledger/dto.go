package ledger

import (
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterDebtCommand registers a debt for an existing client. A nil
// CompanyID uses the actor's company.
type RegisterDebtCommand struct {
	ClientID  uuid.UUID
	CompanyID *uuid.UUID
	Amount    decimal.Decimal
	DueDate   time.Time
	Note      string
}

// RegisterClientDebtCommand registers a debt, creating the client when no
// client holds the document id yet.
type RegisterClientDebtCommand struct {
	Client    debt.ClientData
	CompanyID *uuid.UUID
	Amount    decimal.Decimal
	DueDate   time.Time
	Note      string
}

// RegisterPaymentCommand registers a payment. IdempotencyKey is optional.
type RegisterPaymentCommand struct {
	DebtID         uuid.UUID
	Amount         decimal.Decimal
	PaymentDate    time.Time
	Note           string
	IdempotencyKey string
}

// EditDebtCommand is an administrative edit; nil fields stay unchanged.
type EditDebtCommand struct {
	DebtID  uuid.UUID
	Balance *decimal.Decimal
	DueDate *time.Time
	Status  *debt.Status
	Note    *string
	Comment string
}

// ClientDebtResult is the outcome of RegisterClientDebt
type ClientDebtResult struct {
	Client        *debt.Client
	Debt          *debt.Debt
	ClientCreated bool
}
