package handler

import (
	"time"

	"github.com/dividas/backend/internal/application/access"
	"github.com/dividas/backend/internal/application/company"
	"github.com/dividas/backend/internal/application/report"
	"github.com/dividas/backend/internal/domain/debt"
)

// Amounts are rendered as fixed two-decimal strings and calendar dates as
// YYYY-MM-DD.

// DebtResponse represents a debt in API responses
type DebtResponse struct {
	ID             string  `json:"id"`
	ClientID       string  `json:"client_id"`
	CompanyID      string  `json:"company_id"`
	OriginalAmount string  `json:"original_amount"`
	CurrentBalance string  `json:"current_balance"`
	DueDate        string  `json:"due_date"`
	PaymentDate    *string `json:"payment_date,omitempty"`
	Status         string  `json:"status"`
	StatusLabel    string  `json:"status_label"`
	Note           string  `json:"note,omitempty"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toDebtResponse(d *debt.Debt) DebtResponse {
	return DebtResponse{
		ID:             d.ID.String(),
		ClientID:       d.ClientID.String(),
		CompanyID:      d.CompanyID.String(),
		OriginalAmount: money(d.OriginalAmount),
		CurrentBalance: money(d.CurrentBalance),
		DueDate:        formatDate(d.DueDate),
		PaymentDate:    formatDatePtr(d.PaymentDate),
		Status:         string(d.Status),
		StatusLabel:    d.Status.Label(),
		Note:           d.Note,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
	}
}

func toDebtResponses(debts []debt.Debt) []DebtResponse {
	out := make([]DebtResponse, len(debts))
	for i := range debts {
		out[i] = toDebtResponse(&debts[i])
	}
	return out
}

// DebtViewResponse is a debt annotated for the caller
type DebtViewResponse struct {
	DebtResponse
	CanSettle bool `json:"can_settle"`
	Overdue   bool `json:"overdue"`
}

// HistoryEntryResponse represents one audit entry
type HistoryEntryResponse struct {
	ID           string  `json:"id"`
	Action       string  `json:"action"`
	PriorBalance *string `json:"prior_balance"`
	NewBalance   *string `json:"new_balance"`
	Description  string  `json:"description"`
	ActorID      string  `json:"actor_id"`
	CreatedAt    string  `json:"created_at"`
}

// ClientResponse represents a client
type ClientResponse struct {
	ID                  string  `json:"id"`
	FullName            string  `json:"full_name"`
	DocumentID          string  `json:"document_id"`
	FormattedDocumentID string  `json:"formatted_document_id"`
	BirthDate           *string `json:"birth_date,omitempty"`
	Email               string  `json:"email,omitempty"`
	Phone               string  `json:"phone,omitempty"`
	Address             string  `json:"address,omitempty"`
}

func toClientResponse(c *debt.Client) ClientResponse {
	return ClientResponse{
		ID:                  c.ID.String(),
		FullName:            c.FullName,
		DocumentID:          c.DocumentID,
		FormattedDocumentID: c.FormattedDocumentID(),
		BirthDate:           formatDatePtr(c.BirthDate),
		Email:               c.Email,
		Phone:               c.Phone,
		Address:             c.Address,
	}
}

// ClientSummaryResponse is a listing or autocomplete row
type ClientSummaryResponse struct {
	ClientResponse
	TotalDebts    int     `json:"total_debts"`
	OpenDebts     int     `json:"open_debts"`
	OpenBalance   string  `json:"open_balance"`
	LatestDueDate *string `json:"latest_due_date"`
	CompanyCount  int     `json:"company_count"`
}

func toClientSummaryResponses(items []debt.ClientSummary) []ClientSummaryResponse {
	out := make([]ClientSummaryResponse, len(items))
	for i := range items {
		s := &items[i]
		out[i] = ClientSummaryResponse{
			ClientResponse: toClientResponse(&s.Client),
			TotalDebts:     s.TotalDebts,
			OpenDebts:      s.OpenDebts,
			OpenBalance:    money(s.OpenBalance),
			LatestDueDate:  formatDatePtr(s.LatestDueDate),
			CompanyCount:   s.CompanyCount,
		}
	}
	return out
}

// ClientDetailResponse is a client with its visible debts grouped by company
type ClientDetailResponse struct {
	Client    ClientResponse            `json:"client"`
	Companies []CompanyDebtsResponse    `json:"companies"`
	Stats     ClientDetailStatsResponse `json:"stats"`
}

// CompanyDebtsResponse is one company group of a client detail
type CompanyDebtsResponse struct {
	CompanyID     string         `json:"company_id"`
	CompanyName   string         `json:"company_name"`
	Debts         []DebtResponse `json:"debts"`
	OriginalTotal string         `json:"original_total"`
	BalanceTotal  string         `json:"balance_total"`
}

// ClientDetailStatsResponse counts the debts of a client detail
type ClientDetailStatsResponse struct {
	TotalDebts  int    `json:"total_debts"`
	OpenDebts   int    `json:"open_debts"`
	PaidDebts   int    `json:"paid_debts"`
	OpenBalance string `json:"open_balance"`
}

func toClientDetailResponse(d *access.ClientDetail) ClientDetailResponse {
	out := ClientDetailResponse{
		Client:    toClientResponse(&d.Client),
		Companies: make([]CompanyDebtsResponse, len(d.Companies)),
		Stats: ClientDetailStatsResponse{
			TotalDebts:  d.Stats.TotalDebts,
			OpenDebts:   d.Stats.OpenDebts,
			PaidDebts:   d.Stats.PaidDebts,
			OpenBalance: money(d.Stats.OpenBalance),
		},
	}
	for i, g := range d.Companies {
		out.Companies[i] = CompanyDebtsResponse{
			CompanyID:     g.CompanyID.String(),
			CompanyName:   g.Company.Name,
			Debts:         toDebtResponses(g.Debts),
			OriginalTotal: money(g.OriginalTotal),
			BalanceTotal:  money(g.BalanceTotal),
		}
	}
	return out
}

// CompanyResponse represents a company
type CompanyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaxID     string `json:"tax_id,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func toCompanyResponse(c *debt.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		TaxID:     c.TaxID,
		Phone:     c.Phone,
		Email:     c.Email,
		Active:    c.Active,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// MembershipResponse represents a user's membership
type MembershipResponse struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at"`
}

func toMembershipResponse(m *debt.Membership) MembershipResponse {
	return MembershipResponse{
		UserID:    m.UserID.String(),
		CompanyID: m.CompanyID.String(),
		IsAdmin:   m.IsCompanyAdmin,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

// ProfileResponse describes the caller
type ProfileResponse struct {
	UserID  string           `json:"user_id"`
	Kind    string           `json:"kind" enums:"company,external"`
	IsAdmin bool             `json:"is_admin"`
	Company *CompanyResponse `json:"company,omitempty"`
}

func toProfileResponse(p *company.Profile) ProfileResponse {
	out := ProfileResponse{UserID: p.Actor.UserID().String(), Kind: "external"}
	if ca, ok := p.Actor.(debt.CompanyActor); ok {
		out.Kind = "company"
		out.IsAdmin = ca.IsAdmin
	}
	if p.Company != nil {
		cr := toCompanyResponse(p.Company)
		out.Company = &cr
	}
	return out
}

// DashboardResponse is the company landing summary
type DashboardResponse struct {
	DistinctClients int              `json:"distinct_clients"`
	ActiveDebts     int              `json:"active_debts"`
	PaidDebts       int              `json:"paid_debts"`
	OpenBalance     string           `json:"open_balance"`
	OverdueDebts    int              `json:"overdue_debts"`
	DueSoonDebts    int              `json:"due_soon_debts"`
	RecentClients   []ClientResponse `json:"recent_clients"`
}

// StatisticsResponse is the company statistics page
type StatisticsResponse struct {
	TotalDebts    int                    `json:"total_debts"`
	ByStatus      []StatusCountResponse  `json:"by_status"`
	OpenBalance   string                 `json:"open_balance"`
	RecoveryRate  float64                `json:"recovery_rate"`
	TopClients    []TopClientResponse    `json:"top_clients"`
	Monthly       []MonthlyTotalResponse `json:"monthly"`
	OverdueDebts  int                    `json:"overdue_debts"`
	ActiveBalance string                 `json:"active_balance"`
}

// StatusCountResponse is the number of debts in one status
type StatusCountResponse struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// TopClientResponse ranks a client by open balance
type TopClientResponse struct {
	ClientID    string `json:"client_id"`
	FullName    string `json:"full_name"`
	DocumentID  string `json:"document_id"`
	OpenDebts   int    `json:"open_debts"`
	OpenBalance string `json:"open_balance"`
}

// MonthlyTotalResponse is one month of the evolution chart
type MonthlyTotalResponse struct {
	Month  string `json:"month"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// OverdueReportResponse lists overdue debts
type OverdueReportResponse struct {
	Debts []OverdueDebtResponse `json:"debts"`
	Count int                   `json:"count"`
	Total string                `json:"total"`
}

// OverdueDebtResponse is an overdue debt with its client
type OverdueDebtResponse struct {
	DebtResponse
	ClientName string `json:"client_name"`
	DocumentID string `json:"document_id"`
	DaysLate   int    `json:"days_late"`
}

func toDashboardResponse(d *report.Dashboard) DashboardResponse {
	out := DashboardResponse{
		DistinctClients: d.DistinctClients,
		ActiveDebts:     d.ActiveDebts,
		PaidDebts:       d.PaidDebts,
		OpenBalance:     money(d.OpenBalance),
		OverdueDebts:    d.OverdueDebts,
		DueSoonDebts:    d.DueSoonDebts,
		RecentClients:   make([]ClientResponse, len(d.RecentClients)),
	}
	for i := range d.RecentClients {
		out.RecentClients[i] = toClientResponse(&d.RecentClients[i])
	}
	return out
}

func toStatisticsResponse(s *report.Statistics) StatisticsResponse {
	out := StatisticsResponse{
		TotalDebts:    s.TotalDebts,
		ByStatus:      make([]StatusCountResponse, len(s.ByStatus)),
		OpenBalance:   money(s.OpenBalance),
		ActiveBalance: money(s.ActiveBalance),
		OverdueDebts:  s.OverdueCount,
		RecoveryRate:  s.RecoveryRate,
		TopClients:    make([]TopClientResponse, len(s.Top)),
		Monthly:       make([]MonthlyTotalResponse, len(s.Monthly)),
	}
	for i, sc := range s.ByStatus {
		out.ByStatus[i] = StatusCountResponse{Status: string(sc.Status), Label: sc.Label, Count: sc.Count}
	}
	for i, t := range s.Top {
		out.TopClients[i] = TopClientResponse{
			ClientID:    t.ClientID.String(),
			FullName:    t.Client.FullName,
			DocumentID:  t.Client.FormattedDocumentID(),
			OpenDebts:   t.OpenDebts,
			OpenBalance: money(t.OpenBalance),
		}
	}
	for i, m := range s.Monthly {
		out.Monthly[i] = MonthlyTotalResponse{Month: m.Month, Count: m.Count, Amount: money(m.Amount)}
	}
	return out
}

func toOverdueReportResponse(r *report.OverdueReport) OverdueReportResponse {
	out := OverdueReportResponse{
		Debts: make([]OverdueDebtResponse, len(r.Debts)),
		Count: r.Count,
		Total: money(r.Total),
	}
	for i := range r.Debts {
		od := &r.Debts[i]
		out.Debts[i] = OverdueDebtResponse{
			DebtResponse: toDebtResponse(&od.Debt),
			ClientName:   od.Client.FullName,
			DocumentID:   od.Client.FormattedDocumentID(),
			DaysLate:     od.DaysLate,
		}
	}
	return out
}
