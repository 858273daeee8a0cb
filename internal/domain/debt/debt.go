package debt

import (
	"fmt"
	"strings"
	"time"

	"github.com/dividas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a debt
type Status string

const (
	StatusActive        Status = "ACTIVE"
	StatusInNegotiation Status = "IN_NEGOTIATION"
	StatusPaid          Status = "PAID"
	StatusCancelled     Status = "CANCELLED"
)

// AllStatuses lists statuses in display order
var AllStatuses = []Status{StatusActive, StatusInNegotiation, StatusPaid, StatusCancelled}

// OpenStatuses are the statuses of a debt that is still owed
var OpenStatuses = []Status{StatusActive, StatusInNegotiation}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInNegotiation, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// IsOpen returns true for ACTIVE and IN_NEGOTIATION
func (s Status) IsOpen() bool {
	return s == StatusActive || s == StatusInNegotiation
}

// Label returns the display name shown to users
func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "Dívida Ativa"
	case StatusInNegotiation:
		return "Em Negociação"
	case StatusPaid:
		return "Dívida Paga"
	case StatusCancelled:
		return "Cancelada"
	}
	return string(s)
}

// canMoveTo lists the explicit transitions an edit may request. PAID is never
// requested explicitly; it follows from the balance.
func (s Status) canMoveTo(target Status) bool {
	switch s {
	case StatusActive:
		return target == StatusInNegotiation || target == StatusCancelled
	case StatusInNegotiation:
		return target == StatusActive || target == StatusCancelled
	case StatusCancelled:
		return target == StatusActive
	}
	return false
}

// maxAmount is the largest value a decimal(10,2) column holds
var maxAmount = decimal.RequireFromString("99999999.99")

// ValidateAmount checks that amount is positive, has at most two decimal
// places and fits the storage precision.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// Debt is one obligation of a client toward a company.
//
// Invariants, checked after every mutation:
//   - 0 <= CurrentBalance <= OriginalAmount
//   - CurrentBalance == 0 iff Status == PAID iff PaymentDate != nil
type Debt struct {
	shared.BaseAggregateRoot
	ClientID       uuid.UUID
	CompanyID      uuid.UUID
	OriginalAmount decimal.Decimal
	CurrentBalance decimal.Decimal
	DueDate        time.Time
	PaymentDate    *time.Time
	Status         Status
	Note           string
	RegisteredBy   uuid.UUID
	SettledBy      *uuid.UUID
}

// Registration holds the input of RegisterDebt
type Registration struct {
	Client  *Client
	Company *Company
	Amount  decimal.Decimal
	DueDate time.Time
	Note    string
}

// RegisterDebt creates an ACTIVE debt whose balance equals the original
// amount, together with its REGISTRATION history entry.
func RegisterDebt(r Registration, actor Actor) (*Debt, *HistoryEntry, error) {
	if r.Company == nil {
		return nil, nil, ErrCompanyNotFound
	}
	if r.Client == nil {
		return nil, nil, ErrClientNotFound
	}
	if err := RequireMembership(actor, r.Company.ID); err != nil {
		return nil, nil, err
	}
	if !r.Company.Active {
		return nil, nil, ErrCompanyInactive
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return nil, nil, err
	}
	if r.DueDate.IsZero() {
		return nil, nil, ErrInvalidDueDate
	}

	d := &Debt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          r.Client.ID,
		CompanyID:         r.Company.ID,
		OriginalAmount:    r.Amount,
		CurrentBalance:    r.Amount,
		DueDate:           DateOf(r.DueDate),
		Status:            StatusActive,
		Note:              strings.TrimSpace(r.Note),
		RegisteredBy:      actor.UserID(),
	}
	if err := d.checkInvariants(); err != nil {
		return nil, nil, err
	}

	entry := newHistoryEntry(d.ID, ActionRegistration, nil, &d.CurrentBalance,
		fmt.Sprintf("Debt registered with company %s", r.Company.Name), actor.UserID())
	d.AddDomainEvent(newDebtRegisteredEvent(d))
	return d, entry, nil
}

// PaymentInput holds the input of RegisterPayment. A zero PaymentDate means today.
type PaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Note        string
}

// RegisterPayment deducts a payment from the balance. Membership and amount
// are validated before anything changes; on error the debt is untouched.
func (d *Debt) RegisterPayment(in PaymentInput, today time.Time, actor Actor) (*HistoryEntry, error) {
	if err := RequireMembership(actor, d.CompanyID); err != nil {
		return nil, err
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return nil, err
	}
	if d.Status == StatusCancelled {
		return nil, ErrDebtCancelled
	}
	if in.Amount.GreaterThan(d.CurrentBalance) {
		return nil, shared.NewValidationError(ErrExceedsBalance.Code,
			fmt.Sprintf("Payment amount %s exceeds current balance %s", in.Amount.StringFixed(2), d.CurrentBalance.StringFixed(2)))
	}
	date := today
	if !in.PaymentDate.IsZero() {
		date = DateOf(in.PaymentDate)
	}
	if date.After(today) {
		return nil, ErrFuturePayment
	}

	snapshot := *d
	prior := d.CurrentBalance
	d.applyBalance(prior.Sub(in.Amount), date, actor.UserID())
	d.Touch()
	d.IncrementVersion()
	if err := d.checkInvariants(); err != nil {
		*d = snapshot
		return nil, err
	}

	action := ActionPartialPayment
	if d.Status == StatusPaid {
		action = ActionFullPayment
	}
	description := fmt.Sprintf("Payment of %s registered.", in.Amount.StringFixed(2))
	if note := strings.TrimSpace(in.Note); note != "" {
		description += " " + note
	}
	entry := newHistoryEntry(d.ID, action, &prior, &d.CurrentBalance, description, actor.UserID())

	d.AddDomainEvent(newPaymentRegisteredEvent(d, in.Amount, prior, date))
	if action == ActionFullPayment {
		d.AddDomainEvent(newDebtSettledEvent(d))
	}
	return entry, nil
}

// EditInput holds an administrative edit. Nil fields are left unchanged.
type EditInput struct {
	Balance *decimal.Decimal
	DueDate *time.Time
	Status  *Status
	Note    *string
	Comment string
}

// Edit applies an administrative change. Balance and status cannot be changed
// once the debt is PAID. The resulting status always follows the balance.
func (d *Debt) Edit(in EditInput, today time.Time, actor Actor) (*HistoryEntry, error) {
	if err := RequireMembership(actor, d.CompanyID); err != nil {
		return nil, err
	}

	balanceChanged := in.Balance != nil && !in.Balance.Equal(d.CurrentBalance)
	statusChanged := in.Status != nil && *in.Status != d.Status
	if d.Status == StatusPaid && (balanceChanged || statusChanged) {
		return nil, ErrDebtPaid
	}
	if statusChanged {
		if !in.Status.IsValid() || !d.Status.canMoveTo(*in.Status) {
			return nil, shared.NewValidationError(ErrInvalidTransition.Code,
				fmt.Sprintf("Cannot move debt from %s to %s", d.Status, *in.Status))
		}
	}
	if balanceChanged {
		if in.Balance.IsNegative() || in.Balance.GreaterThan(d.OriginalAmount) || !in.Balance.Equal(in.Balance.Truncate(2)) {
			return nil, ErrInvalidBalance
		}
	}
	var dueDate time.Time
	dueChanged := false
	if in.DueDate != nil {
		if in.DueDate.IsZero() {
			return nil, ErrInvalidDueDate
		}
		dueDate = DateOf(*in.DueDate)
		dueChanged = !dueDate.Equal(d.DueDate)
	}
	noteChanged := in.Note != nil && strings.TrimSpace(*in.Note) != d.Note
	if !balanceChanged && !statusChanged && !dueChanged && !noteChanged {
		return nil, ErrNoChanges
	}

	snapshot := *d
	prior := d.CurrentBalance
	priorStatus := d.Status
	if statusChanged {
		d.Status = *in.Status
	}
	if dueChanged {
		d.DueDate = dueDate
	}
	if noteChanged {
		d.Note = strings.TrimSpace(*in.Note)
	}
	if balanceChanged {
		d.applyBalance(*in.Balance, today, actor.UserID())
	}
	d.Touch()
	d.IncrementVersion()
	if err := d.checkInvariants(); err != nil {
		*d = snapshot
		return nil, err
	}

	action := editAction(priorStatus, d.Status)
	description := describeEdit(action, priorStatus, d.Status)
	if comment := strings.TrimSpace(in.Comment); comment != "" {
		description += " " + comment
	}
	entry := newHistoryEntry(d.ID, action, &prior, &d.CurrentBalance, description, actor.UserID())

	if d.Status != priorStatus {
		d.AddDomainEvent(newDebtStatusChangedEvent(d, priorStatus))
		if d.Status == StatusPaid {
			d.AddDomainEvent(newDebtSettledEvent(d))
		}
	}
	return entry, nil
}

// StartNegotiation moves an ACTIVE debt to IN_NEGOTIATION
func (d *Debt) StartNegotiation(comment string, today time.Time, actor Actor) (*HistoryEntry, error) {
	s := StatusInNegotiation
	return d.Edit(EditInput{Status: &s, Comment: comment}, today, actor)
}

// Cancel moves an open debt to CANCELLED
func (d *Debt) Cancel(comment string, today time.Time, actor Actor) (*HistoryEntry, error) {
	s := StatusCancelled
	return d.Edit(EditInput{Status: &s, Comment: comment}, today, actor)
}

// Reactivate moves a CANCELLED or IN_NEGOTIATION debt back to ACTIVE
func (d *Debt) Reactivate(comment string, today time.Time, actor Actor) (*HistoryEntry, error) {
	s := StatusActive
	return d.Edit(EditInput{Status: &s, Comment: comment}, today, actor)
}

// applyBalance assigns a new balance and derives status, payment date and
// closing actor from it: zero settles the debt on stamp, a positive balance
// on a PAID debt reopens it as ACTIVE.
func (d *Debt) applyBalance(balance decimal.Decimal, stamp time.Time, closer uuid.UUID) {
	d.CurrentBalance = balance
	switch {
	case balance.IsZero():
		date := DateOf(stamp)
		d.Status = StatusPaid
		d.PaymentDate = &date
		d.SettledBy = &closer
	case d.Status == StatusPaid:
		d.Status = StatusActive
		d.PaymentDate = nil
		d.SettledBy = nil
	}
}

func (d *Debt) checkInvariants() error {
	if d.CurrentBalance.IsNegative() || d.CurrentBalance.GreaterThan(d.OriginalAmount) {
		return ErrInvalidBalance
	}
	zero := d.CurrentBalance.IsZero()
	paid := d.Status == StatusPaid
	dated := d.PaymentDate != nil
	if zero != paid || paid != dated {
		return shared.NewValidationError("INVARIANT_VIOLATION",
			fmt.Sprintf("Debt %s would have balance %s with status %s", d.ID, d.CurrentBalance.StringFixed(2), d.Status))
	}
	return nil
}

// IsOverdue reports whether an open debt is past its due date
func (d *Debt) IsOverdue(today time.Time) bool {
	return d.Status.IsOpen() && d.DueDate.Before(today)
}

// CanBeSettledBy reports whether actor may register payments on the debt
func (d *Debt) CanBeSettledBy(actor Actor) bool {
	return d.Status.IsOpen() && RequireMembership(actor, d.CompanyID) == nil
}

func editAction(from, to Status) HistoryAction {
	switch {
	case from == to:
		return ActionUpdate
	case to == StatusInNegotiation:
		return ActionNegotiation
	case to == StatusCancelled:
		return ActionCancellation
	case from == StatusCancelled:
		return ActionReactivation
	}
	return ActionStatusChanged
}

func describeEdit(action HistoryAction, from, to Status) string {
	switch action {
	case ActionUpdate:
		return "Debt updated."
	case ActionNegotiation:
		return "Negotiation started."
	case ActionCancellation:
		return "Debt cancelled."
	case ActionReactivation:
		return "Debt reactivated."
	}
	return fmt.Sprintf("Status changed from %s to %s.", from.Label(), to.Label())
}
