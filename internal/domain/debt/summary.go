package debt

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientSummary is a client annotated with aggregates over its debts
type ClientSummary struct {
	Client        Client
	TotalDebts    int
	OpenDebts     int
	OpenBalance   decimal.Decimal
	LatestDueDate *time.Time
	CompanyCount  int
}

// Summarize aggregates debts, which must all belong to client.
func Summarize(client Client, debts []Debt) ClientSummary {
	s := ClientSummary{Client: client, OpenBalance: decimal.Zero}
	companies := make(map[uuid.UUID]struct{})
	for i := range debts {
		d := &debts[i]
		s.TotalDebts++
		companies[d.CompanyID] = struct{}{}
		if d.Status.IsOpen() {
			s.OpenDebts++
			s.OpenBalance = s.OpenBalance.Add(d.CurrentBalance)
		}
		if s.LatestDueDate == nil || d.DueDate.After(*s.LatestDueDate) {
			due := d.DueDate
			s.LatestDueDate = &due
		}
	}
	s.CompanyCount = len(companies)
	return s
}

// SortSummaries orders by latest due date descending with clients without
// debts last, then by name.
func SortSummaries(items []ClientSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].LatestDueDate, items[j].LatestDueDate
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		}
		na, nb := strings.ToLower(items[i].Client.FullName), strings.ToLower(items[j].Client.FullName)
		if na != nb {
			return na < nb
		}
		return items[i].Client.ID.String() < items[j].Client.ID.String()
	})
}

// GroupByClient indexes debts by client id
func GroupByClient(debts []Debt) map[uuid.UUID][]Debt {
	out := make(map[uuid.UUID][]Debt)
	for _, d := range debts {
		out[d.ClientID] = append(out[d.ClientID], d)
	}
	return out
}

// CompanyGroup is a client's debts with one company and their totals
type CompanyGroup struct {
	CompanyID     uuid.UUID
	Debts         []Debt
	OriginalTotal decimal.Decimal
	BalanceTotal  decimal.Decimal
}

// GroupByCompany groups debts by company in order of first appearance
func GroupByCompany(debts []Debt) []CompanyGroup {
	index := make(map[uuid.UUID]int)
	var groups []CompanyGroup
	for _, d := range debts {
		i, ok := index[d.CompanyID]
		if !ok {
			i = len(groups)
			index[d.CompanyID] = i
			groups = append(groups, CompanyGroup{
				CompanyID:     d.CompanyID,
				OriginalTotal: decimal.Zero,
				BalanceTotal:  decimal.Zero,
			})
		}
		g := &groups[i]
		g.Debts = append(g.Debts, d)
		g.OriginalTotal = g.OriginalTotal.Add(d.OriginalAmount)
		g.BalanceTotal = g.BalanceTotal.Add(d.CurrentBalance)
	}
	return groups
}
