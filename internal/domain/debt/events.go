package debt

import (
	"time"

	"github.com/dividas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const aggregateTypeDebt = "Debt"

// Event type names
const (
	EventTypeDebtRegistered    = "DebtRegistered"
	EventTypePaymentRegistered = "PaymentRegistered"
	EventTypeDebtSettled       = "DebtSettled"
	EventTypeDebtStatusChanged = "DebtStatusChanged"
)

// DebtRegisteredEvent is raised when a debt is registered
type DebtRegisteredEvent struct {
	shared.BaseDomainEvent
	ClientID       uuid.UUID       `json:"client_id"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DueDate        time.Time       `json:"due_date"`
}

func newDebtRegisteredEvent(d *Debt) *DebtRegisteredEvent {
	return &DebtRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtRegistered, aggregateTypeDebt, d.ID, d.CompanyID),
		ClientID:        d.ClientID,
		OriginalAmount:  d.OriginalAmount,
		DueDate:         d.DueDate,
	}
}

// PaymentRegisteredEvent is raised for every payment, partial or full
type PaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	Amount       decimal.Decimal `json:"amount"`
	PriorBalance decimal.Decimal `json:"prior_balance"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	PaymentDate  time.Time       `json:"payment_date"`
}

func newPaymentRegisteredEvent(d *Debt, amount, prior decimal.Decimal, date time.Time) *PaymentRegisteredEvent {
	return &PaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRegistered, aggregateTypeDebt, d.ID, d.CompanyID),
		Amount:          amount,
		PriorBalance:    prior,
		NewBalance:      d.CurrentBalance,
		PaymentDate:     date,
	}
}

// DebtSettledEvent is raised when a debt's balance reaches zero
type DebtSettledEvent struct {
	shared.BaseDomainEvent
	OriginalAmount decimal.Decimal `json:"original_amount"`
	PaymentDate    time.Time       `json:"payment_date"`
}

func newDebtSettledEvent(d *Debt) *DebtSettledEvent {
	e := &DebtSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtSettled, aggregateTypeDebt, d.ID, d.CompanyID),
		OriginalAmount:  d.OriginalAmount,
	}
	if d.PaymentDate != nil {
		e.PaymentDate = *d.PaymentDate
	}
	return e
}

// DebtStatusChangedEvent is raised when an edit moves the debt to another status
type DebtStatusChangedEvent struct {
	shared.BaseDomainEvent
	From Status `json:"from"`
	To   Status `json:"to"`
}

func newDebtStatusChangedEvent(d *Debt, from Status) *DebtStatusChangedEvent {
	return &DebtStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtStatusChanged, aggregateTypeDebt, d.ID, d.CompanyID),
		From:            from,
		To:              d.Status,
	}
}
