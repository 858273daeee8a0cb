package access

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/dividas/backend/internal/infrastructure/logger"
	"github.com/dividas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	serviceName = "AccessService"

	DefaultPageSize    = 25
	DefaultSearchLimit = 10
	maxPageSize        = 100
)

// Options tunes listing sizes and the calendar used for overdue flags
type Options struct {
	PageSize    int
	SearchLimit int
	Location    *time.Location
	Now         func() time.Time
}

// Service resolves actors and decides which clients and debts they may see
type Service struct {
	members     debt.MembershipRepository
	companies   debt.CompanyRepository
	clients     debt.ClientRepository
	debts       debt.DebtRepository
	pageSize    int
	searchLimit int
	loc         *time.Location
	now         func() time.Time
}

// NewService creates an access service
func NewService(
	members debt.MembershipRepository,
	companies debt.CompanyRepository,
	clients debt.ClientRepository,
	debts debt.DebtRepository,
	opts Options,
) *Service {
	s := &Service{
		members:     members,
		companies:   companies,
		clients:     clients,
		debts:       debts,
		pageSize:    opts.PageSize,
		searchLimit: opts.SearchLimit,
		loc:         opts.Location,
		now:         opts.Now,
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.searchLimit <= 0 {
		s.searchLimit = DefaultSearchLimit
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ResolveActor classifies a user by its membership
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (debt.Actor, error) {
	m, err := s.members.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	return debt.NewActor(userID, m), nil
}

// ResolveByDocumentID returns the clients whose document id matches raw.
// No tenant filtering is applied.
func (s *Service) ResolveByDocumentID(ctx context.Context, raw string) ([]debt.Client, error) {
	q := debt.ParseDocumentQuery(raw)
	if q.Match == debt.DocumentMatchNone {
		return []debt.Client{}, nil
	}
	clients, err := s.clients.SearchByDocument(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return clients, nil
}

// ListVisibleClients returns one page of the clients visible to actor,
// annotated with their debt aggregates.
func (s *Service) ListVisibleClients(ctx context.Context, actor debt.Actor, q ListQuery) (shared.Paginated[debt.ClientSummary], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "ListVisibleClients")
	defer span.End()

	page := q.Page.Normalize(s.pageSize, maxPageSize)
	summaries, err := s.visibleSummaries(ctx, actor, strings.TrimSpace(q.Query), q.CompanyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[debt.ClientSummary]{}, err
	}
	telemetry.SetAttributes(span, "clients.count", len(summaries))
	return shared.PaginateSlice(summaries, page), nil
}

// SearchClients backs the autocomplete endpoint. It applies the same
// visibility rules as the listing and returns at most the search limit.
func (s *Service) SearchClients(ctx context.Context, actor debt.Actor, query string) ([]debt.ClientSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "SearchClients")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, debt.ErrEmptyQuery
	}
	summaries, err := s.visibleSummaries(ctx, actor, query, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(summaries) > s.searchLimit {
		summaries = summaries[:s.searchLimit]
	}
	return summaries, nil
}

func (s *Service) visibleSummaries(ctx context.Context, actor debt.Actor, query string, companyFilter *uuid.UUID) ([]debt.ClientSummary, error) {
	var candidates []debt.Client
	searched := query != ""
	switch {
	case searched:
		found, err := s.ResolveByDocumentID(ctx, query)
		if err != nil {
			return nil, err
		}
		candidates = found
	default:
		companyID, ok := debt.CompanyOf(actor)
		if !ok {
			return []debt.ClientSummary{}, nil
		}
		found, err := s.clients.FindWithOpenDebtsIn(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list clients: %w", err)
		}
		candidates = found
	}
	if len(candidates) == 0 {
		return []debt.ClientSummary{}, nil
	}

	ids := make([]uuid.UUID, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	all, err := s.debts.FindByClientIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load client debts: %w", err)
	}
	byClient := debt.GroupByClient(all)

	_, isCompany := debt.CompanyOf(actor)
	summaries := make([]debt.ClientSummary, 0, len(candidates))
	for _, c := range candidates {
		debts := byClient[c.ID]
		if searched && !debt.VisibleAfterSearch(actor, debts) {
			continue
		}
		if companyFilter != nil && !isCompany && !debt.HasDebtWith(debts, *companyFilter) {
			continue
		}
		summaries = append(summaries, debt.Summarize(c, debts))
	}
	debt.SortSummaries(summaries)

	logger.L(ctx).Debug("clients resolved",
		zap.Bool("searched", searched),
		zap.Int("candidates", len(candidates)),
		zap.Int("visible", len(summaries)),
	)
	return summaries, nil
}

// GetClientDetail returns the client with the debts actor may see grouped by
// company. An external actor is refused unless the client has an ACTIVE debt.
func (s *Service) GetClientDetail(ctx context.Context, actor debt.Actor, clientID uuid.UUID) (*ClientDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "GetClientDetail")
	defer span.End()
	telemetry.SetAttributes(span, "client.id", clientID)

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	all, err := s.debts.FindByClientIDs(ctx, []uuid.UUID{clientID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load client debts: %w", err)
	}
	visible, err := debt.DetailDebts(actor, all)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	groups := debt.GroupByCompany(visible)
	companyIDs := make([]uuid.UUID, len(groups))
	for i := range groups {
		companyIDs[i] = groups[i].CompanyID
	}
	names, err := s.companyIndex(ctx, companyIDs)
	if err != nil {
		return nil, err
	}

	detail := &ClientDetail{
		Client:    *client,
		Companies: make([]CompanyDebts, 0, len(groups)),
		Stats:     DetailStats{OpenBalance: decimal.Zero},
	}
	for _, g := range groups {
		detail.Companies = append(detail.Companies, CompanyDebts{Company: names[g.CompanyID], CompanyGroup: g})
	}
	for i := range visible {
		d := &visible[i]
		detail.Stats.TotalDebts++
		switch {
		case d.Status.IsOpen():
			detail.Stats.OpenDebts++
			detail.Stats.OpenBalance = detail.Stats.OpenBalance.Add(d.CurrentBalance)
		case d.Status == debt.StatusPaid:
			detail.Stats.PaidDebts++
		}
	}
	return detail, nil
}

// ListClientDebts returns the client's debts with the actor's company,
// flagged with whether the actor may register payments on them.
func (s *Service) ListClientDebts(ctx context.Context, actor debt.Actor, clientID uuid.UUID) ([]DebtView, error) {
	ca, err := debt.RequireCompanyActor(actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	all, err := s.debts.FindByClientIDs(ctx, []uuid.UUID{clientID})
	if err != nil {
		return nil, fmt.Errorf("failed to load client debts: %w", err)
	}

	today := debt.DateOf(s.now().In(s.loc))
	views := make([]DebtView, 0, len(all))
	for _, d := range all {
		if d.CompanyID != ca.CompanyID {
			continue
		}
		views = append(views, DebtView{
			Debt:      d,
			CanSettle: d.CanBeSettledBy(actor),
			Overdue:   d.IsOverdue(today),
		})
	}
	return views, nil
}

func (s *Service) companyIndex(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]debt.Company, error) {
	out := make(map[uuid.UUID]debt.Company, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	companies, err := s.companies.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load companies: %w", err)
	}
	for _, c := range companies {
		out[c.ID] = c
	}
	return out, nil
}
