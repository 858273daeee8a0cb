package debt

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	topClientsLimit    = 10
	recentClientsLimit = 10
	dueSoonWindow      = 7
	evolutionMonths    = 12
)

// StatusCount is the number of debts in one status
type StatusCount struct {
	Status Status
	Label  string
	Count  int
}

// ClientBalance is a client's open balance within one company
type ClientBalance struct {
	ClientID    uuid.UUID
	OpenDebts   int
	OpenBalance decimal.Decimal
}

// MonthlyTotal is the number and original amount of debts registered in a month
type MonthlyTotal struct {
	Month  string
	Count  int
	Amount decimal.Decimal
}

// CompanyStats aggregates one company's debts
type CompanyStats struct {
	TotalDebts      int
	ByStatus        []StatusCount
	DistinctClients int
	OpenBalance     decimal.Decimal
	ActiveBalance   decimal.Decimal
	OverdueCount    int
	DueSoonCount    int
	RecoveryRate    float64
	TopClients      []ClientBalance
	Monthly         []MonthlyTotal
	RecentClientIDs []uuid.UUID
}

// Count returns the number of debts in status
func (s CompanyStats) Count(status Status) int {
	for _, c := range s.ByStatus {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

// ComputeCompanyStats aggregates debts of a single company as of today.
func ComputeCompanyStats(debts []Debt, today time.Time) CompanyStats {
	stats := CompanyStats{
		TotalDebts:    len(debts),
		OpenBalance:   decimal.Zero,
		ActiveBalance: decimal.Zero,
	}
	counts := make(map[Status]int)
	balances := make(map[uuid.UUID]*ClientBalance)
	latestByClient := make(map[uuid.UUID]time.Time)
	soonLimit := today.AddDate(0, 0, dueSoonWindow)

	firstMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(evolutionMonths - 1), 0)
	monthly := make([]MonthlyTotal, evolutionMonths)
	for i := range monthly {
		monthly[i] = MonthlyTotal{Month: firstMonth.AddDate(0, i, 0).Format("2006-01"), Amount: decimal.Zero}
	}

	for i := range debts {
		d := &debts[i]
		counts[d.Status]++
		if created, ok := latestByClient[d.ClientID]; !ok || d.CreatedAt.After(created) {
			latestByClient[d.ClientID] = d.CreatedAt
		}
		if d.Status.IsOpen() {
			stats.OpenBalance = stats.OpenBalance.Add(d.CurrentBalance)
			cb, ok := balances[d.ClientID]
			if !ok {
				cb = &ClientBalance{ClientID: d.ClientID, OpenBalance: decimal.Zero}
				balances[d.ClientID] = cb
			}
			cb.OpenDebts++
			cb.OpenBalance = cb.OpenBalance.Add(d.CurrentBalance)
			if d.DueDate.Before(today) {
				stats.OverdueCount++
			} else if !d.DueDate.After(soonLimit) {
				stats.DueSoonCount++
			}
		}
		if d.Status == StatusActive {
			stats.ActiveBalance = stats.ActiveBalance.Add(d.CurrentBalance)
		}
		created := DateOf(d.CreatedAt)
		if !created.Before(firstMonth) {
			idx := (created.Year()-firstMonth.Year())*12 + int(created.Month()-firstMonth.Month())
			if idx >= 0 && idx < evolutionMonths {
				monthly[idx].Count++
				monthly[idx].Amount = monthly[idx].Amount.Add(d.OriginalAmount)
			}
		}
	}

	for _, s := range AllStatuses {
		stats.ByStatus = append(stats.ByStatus, StatusCount{Status: s, Label: s.Label(), Count: counts[s]})
	}
	stats.DistinctClients = len(latestByClient)
	stats.Monthly = monthly
	if stats.TotalDebts > 0 {
		rate := decimal.NewFromInt(int64(counts[StatusPaid])).
			Div(decimal.NewFromInt(int64(stats.TotalDebts))).
			Mul(decimal.NewFromInt(100)).
			Round(1)
		stats.RecoveryRate = rate.InexactFloat64()
	}

	top := make([]ClientBalance, 0, len(balances))
	for _, cb := range balances {
		if cb.OpenBalance.IsPositive() {
			top = append(top, *cb)
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if !top[i].OpenBalance.Equal(top[j].OpenBalance) {
			return top[i].OpenBalance.GreaterThan(top[j].OpenBalance)
		}
		return top[i].ClientID.String() < top[j].ClientID.String()
	})
	if len(top) > topClientsLimit {
		top = top[:topClientsLimit]
	}
	stats.TopClients = top

	recent := make([]uuid.UUID, 0, len(latestByClient))
	for id := range latestByClient {
		recent = append(recent, id)
	}
	sort.Slice(recent, func(i, j int) bool {
		a, b := latestByClient[recent[i]], latestByClient[recent[j]]
		if !a.Equal(b) {
			return a.After(b)
		}
		return recent[i].String() < recent[j].String()
	})
	if len(recent) > recentClientsLimit {
		recent = recent[:recentClientsLimit]
	}
	stats.RecentClientIDs = recent
	return stats
}

// OverdueActive returns ACTIVE debts due before today, earliest first.
func OverdueActive(debts []Debt, today time.Time) []Debt {
	out := make([]Debt, 0)
	for _, d := range debts {
		if d.Status == StatusActive && d.DueDate.Before(today) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// SumBalances totals the current balance of debts
func SumBalances(debts []Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.CurrentBalance)
	}
	return total
}
