package event

import (
	"context"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingHandler writes an audit line for every ledger event
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.Named("ledger.audit")}
}

// EventTypes implements shared.EventHandler; empty means all events.
func (h *LoggingHandler) EventTypes() []string { return nil }

// Handle implements shared.EventHandler
func (h *LoggingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.String("company_id", ev.CompanyID().String()),
	}
	switch e := ev.(type) {
	case *debt.PaymentRegisteredEvent:
		fields = append(fields,
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("new_balance", e.NewBalance.StringFixed(2)),
		)
	case *debt.DebtStatusChangedEvent:
		fields = append(fields,
			zap.String("from", string(e.From)),
			zap.String("to", string(e.To)),
		)
	}
	h.logger.Info("ledger event", fields...)
	return nil
}
