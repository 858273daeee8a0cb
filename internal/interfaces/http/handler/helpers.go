package handler

import (
	"strings"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

var errInvalidDate = shared.NewValidationError("INVALID_DATE", "Dates must be formatted as YYYY-MM-DD")

// parseAmount reads a decimal amount such as "150.00". Both "." and ","
// are accepted as the decimal separator.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, debt.ErrInvalidAmount
	}
	return amount, nil
}

func parseAmountPtr(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	amount, err := parseAmount(*raw)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// parseDate reads a calendar date. An empty string yields the zero time.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_ID", "Invalid ID format")
	}
	return &id, nil
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}
