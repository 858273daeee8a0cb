package debt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryAction is the kind of action a history entry records
type HistoryAction string

const (
	ActionRegistration   HistoryAction = "REGISTRATION"
	ActionUpdate         HistoryAction = "UPDATE"
	ActionPartialPayment HistoryAction = "PARTIAL_PAYMENT"
	ActionFullPayment    HistoryAction = "FULL_PAYMENT"
	ActionNegotiation    HistoryAction = "NEGOTIATION"
	ActionCancellation   HistoryAction = "CANCELLATION"
	ActionReactivation   HistoryAction = "REACTIVATION"
	ActionStatusChanged  HistoryAction = "STATUS_CHANGED"
)

// IsValid checks if the action is known
func (a HistoryAction) IsValid() bool {
	switch a {
	case ActionRegistration, ActionUpdate, ActionPartialPayment, ActionFullPayment,
		ActionNegotiation, ActionCancellation, ActionReactivation, ActionStatusChanged:
		return true
	}
	return false
}

// HistoryEntry is an immutable audit record of one action on a debt.
// Entries are only ever appended.
type HistoryEntry struct {
	ID           uuid.UUID
	DebtID       uuid.UUID
	Action       HistoryAction
	PriorBalance decimal.NullDecimal
	NewBalance   decimal.NullDecimal
	Description  string
	ActorID      uuid.UUID
	CreatedAt    time.Time
}

func newHistoryEntry(debtID uuid.UUID, action HistoryAction, prior, next *decimal.Decimal, description string, actorID uuid.UUID) *HistoryEntry {
	e := &HistoryEntry{
		ID:          uuid.New(),
		DebtID:      debtID,
		Action:      action,
		Description: description,
		ActorID:     actorID,
		CreatedAt:   time.Now().UTC(),
	}
	if prior != nil {
		e.PriorBalance = decimal.NewNullDecimal(*prior)
	}
	if next != nil {
		e.NewBalance = decimal.NewNullDecimal(*next)
	}
	return e
}
