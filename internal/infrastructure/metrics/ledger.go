// Package metrics exposes ledger and HTTP metrics through Prometheus.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dividas"

// Ledger holds the ledger counters. It is an event handler fed by the bus.
type Ledger struct {
	debtsRegistered  prometheus.Counter
	amountRegistered prometheus.Counter
	payments         *prometheus.CounterVec
	amountPaid       prometheus.Counter
	settled          prometheus.Counter
	statusChanges    *prometheus.CounterVec
}

// NewLedger creates the ledger metrics and registers them with reg
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		debtsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "debts_registered_total",
			Help: "Debts registered.",
		}),
		amountRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "debt_amount_registered_total",
			Help: "Sum of original amounts of registered debts.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_total",
			Help: "Payments registered, by kind (partial or full).",
		}, []string{"kind"}),
		amountPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_amount_total",
			Help: "Sum of registered payment amounts.",
		}),
		settled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "debts_settled_total",
			Help: "Debts whose balance reached zero.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "debt_status_changes_total",
			Help: "Administrative status transitions.",
		}, []string{"from", "to"}),
	}
	reg.MustRegister(m.debtsRegistered, m.amountRegistered, m.payments, m.amountPaid, m.settled, m.statusChanges)
	return m
}

// EventTypes implements shared.EventHandler
func (m *Ledger) EventTypes() []string {
	return []string{
		debt.EventTypeDebtRegistered,
		debt.EventTypePaymentRegistered,
		debt.EventTypeDebtSettled,
		debt.EventTypeDebtStatusChanged,
	}
}

// Handle implements shared.EventHandler
func (m *Ledger) Handle(_ context.Context, ev shared.DomainEvent) error {
	switch e := ev.(type) {
	case *debt.DebtRegisteredEvent:
		m.debtsRegistered.Inc()
		m.amountRegistered.Add(e.OriginalAmount.InexactFloat64())
	case *debt.PaymentRegisteredEvent:
		kind := "partial"
		if e.NewBalance.IsZero() {
			kind = "full"
		}
		m.payments.WithLabelValues(kind).Inc()
		m.amountPaid.Add(e.Amount.InexactFloat64())
	case *debt.DebtSettledEvent:
		m.settled.Inc()
	case *debt.DebtStatusChangedEvent:
		m.statusChanges.WithLabelValues(string(e.From), string(e.To)).Inc()
	}
	return nil
}

// HTTP holds request metrics
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP creates the HTTP metrics and registers them with reg
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware records each request under its route template, so ids in the
// path do not create new series. Unmatched routes are recorded as "unmatched".
func (m *HTTP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
