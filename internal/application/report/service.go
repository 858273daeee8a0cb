package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const serviceName = "ReportService"

// Dashboard is the landing summary of a company
type Dashboard struct {
	DistinctClients int
	ActiveDebts     int
	PaidDebts       int
	OpenBalance     decimal.Decimal
	OverdueDebts    int
	DueSoonDebts    int
	RecentClients   []debt.Client
}

// TopClient is a client ranked by open balance
type TopClient struct {
	Client debt.Client
	debt.ClientBalance
}

// Statistics is the company statistics page
type Statistics struct {
	debt.CompanyStats
	Top []TopClient
}

// OverdueDebt is an overdue debt with its client
type OverdueDebt struct {
	debt.Debt
	Client   debt.Client
	DaysLate int
}

// OverdueReport lists ACTIVE debts past their due date, earliest first
type OverdueReport struct {
	Debts []OverdueDebt
	Count int
	Total decimal.Decimal
}

// Service builds company reports. Every report requires a company actor.
type Service struct {
	clients debt.ClientRepository
	debts   debt.DebtRepository
	loc     *time.Location
	now     func() time.Time
}

// NewService creates a report service. now may be nil.
func NewService(clients debt.ClientRepository, debts debt.DebtRepository, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{clients: clients, debts: debts, loc: loc, now: now}
}

func (s *Service) today() time.Time {
	return debt.DateOf(s.now().In(s.loc))
}

// Dashboard summarizes the actor's company
func (s *Service) Dashboard(ctx context.Context, actor debt.Actor) (*Dashboard, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Dashboard")
	defer span.End()

	stats, err := s.companyStats(ctx, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	recent, err := s.clientsInOrder(ctx, stats.RecentClientIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &Dashboard{
		DistinctClients: stats.DistinctClients,
		ActiveDebts:     stats.Count(debt.StatusActive),
		PaidDebts:       stats.Count(debt.StatusPaid),
		OpenBalance:     stats.OpenBalance,
		OverdueDebts:    stats.OverdueCount,
		DueSoonDebts:    stats.DueSoonCount,
		RecentClients:   recent,
	}, nil
}

// Statistics computes the statistics page of the actor's company
func (s *Service) Statistics(ctx context.Context, actor debt.Actor) (*Statistics, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Statistics")
	defer span.End()

	stats, err := s.companyStats(ctx, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ids := make([]uuid.UUID, len(stats.TopClients))
	for i, cb := range stats.TopClients {
		ids[i] = cb.ClientID
	}
	clients, err := s.clientIndex(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := &Statistics{CompanyStats: *stats, Top: make([]TopClient, 0, len(ids))}
	for _, cb := range stats.TopClients {
		out.Top = append(out.Top, TopClient{Client: clients[cb.ClientID], ClientBalance: cb})
	}
	return out, nil
}

// Overdue lists the actor's company ACTIVE debts due before today
func (s *Service) Overdue(ctx context.Context, actor debt.Actor) (*OverdueReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Overdue")
	defer span.End()

	debts, err := s.companyDebts(ctx, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	today := s.today()
	overdue := debt.OverdueActive(debts, today)

	ids := make([]uuid.UUID, 0, len(overdue))
	seen := make(map[uuid.UUID]struct{}, len(overdue))
	for _, d := range overdue {
		if _, ok := seen[d.ClientID]; !ok {
			seen[d.ClientID] = struct{}{}
			ids = append(ids, d.ClientID)
		}
	}
	clients, err := s.clientIndex(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &OverdueReport{
		Debts: make([]OverdueDebt, 0, len(overdue)),
		Count: len(overdue),
		Total: debt.SumBalances(overdue),
	}
	for _, d := range overdue {
		report.Debts = append(report.Debts, OverdueDebt{
			Debt:     d,
			Client:   clients[d.ClientID],
			DaysLate: int(today.Sub(d.DueDate).Hours() / 24),
		})
	}
	telemetry.SetAttributes(span, "overdue.count", report.Count)
	return report, nil
}

func (s *Service) companyStats(ctx context.Context, actor debt.Actor) (*debt.CompanyStats, error) {
	debts, err := s.companyDebts(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats := debt.ComputeCompanyStats(debts, s.today())
	return &stats, nil
}

func (s *Service) companyDebts(ctx context.Context, actor debt.Actor) ([]debt.Debt, error) {
	ca, err := debt.RequireCompanyActor(actor)
	if err != nil {
		return nil, err
	}
	debts, err := s.debts.FindByCompany(ctx, ca.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company debts: %w", err)
	}
	return debts, nil
}

func (s *Service) clientIndex(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]debt.Client, error) {
	out := make(map[uuid.UUID]debt.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	clients, err := s.clients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	for _, c := range clients {
		out[c.ID] = c
	}
	return out, nil
}

// clientsInOrder loads clients keeping the order of ids. Unknown ids are skipped.
func (s *Service) clientsInOrder(ctx context.Context, ids []uuid.UUID) ([]debt.Client, error) {
	index, err := s.clientIndex(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]debt.Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := index[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
