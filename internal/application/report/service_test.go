package report

import (
	"context"
	"testing"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/config"
	"github.com/dividas/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	service   *Service
	companies *persistence.GormCompanyRepository
	clients   *persistence.GormClientRepository
	debts     *persistence.GormDebtRepository
	today     time.Time
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	f := &reportFixture{
		companies: persistence.NewGormCompanyRepository(database.DB),
		clients:   persistence.NewGormClientRepository(database.DB),
		debts:     persistence.NewGormDebtRepository(database.DB),
		today:     debt.DateOf(time.Now().UTC()),
	}
	f.service = NewService(f.clients, f.debts, time.UTC, nil)
	return f
}

func (f *reportFixture) company(t *testing.T, name string) (*debt.Company, debt.CompanyActor) {
	t.Helper()
	company, err := debt.NewCompany(debt.CompanyData{Name: name})
	require.NoError(t, err)
	require.NoError(t, f.companies.CreateWithAdmin(context.Background(), company, nil))
	return company, debt.CompanyActor{User: uuid.New(), CompanyID: company.ID}
}

func (f *reportFixture) register(t *testing.T, company *debt.Company, actor debt.Actor, name, doc, amount string, dueIn int) (*debt.Client, *debt.Debt) {
	t.Helper()
	ctx := context.Background()
	client, err := f.clients.FindByDocumentID(ctx, debt.NormalizeDocumentID(doc))
	require.NoError(t, err)
	created := client == nil
	if created {
		client, err = debt.NewClient(debt.ClientData{FullName: name, DocumentID: doc})
		require.NoError(t, err)
	}
	d, entry, err := debt.RegisterDebt(debt.Registration{
		Client:  client,
		Company: company,
		Amount:  decimal.RequireFromString(amount),
		DueDate: f.today.AddDate(0, 0, dueIn),
	}, actor)
	require.NoError(t, err)
	if created {
		require.NoError(t, f.debts.CreateWithClient(ctx, client, d, entry))
	} else {
		require.NoError(t, f.debts.Create(ctx, d, entry))
	}
	return client, d
}

func (f *reportFixture) pay(t *testing.T, d *debt.Debt, actor debt.Actor, amount string) {
	t.Helper()
	entry, err := d.RegisterPayment(debt.PaymentInput{Amount: decimal.RequireFromString(amount)}, f.today, actor)
	require.NoError(t, err)
	require.NoError(t, f.debts.SaveWithLock(context.Background(), d, entry))
}

func TestService_Reports(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	company, actor := f.company(t, "Loja A")
	other, otherActor := f.company(t, "Loja B")

	ana, late := f.register(t, company, actor, "Ana", "111.111.111-11", "100.00", -10)
	_, soon := f.register(t, company, actor, "Bruno", "222.222.222-22", "50.00", 3)
	carla, paid := f.register(t, company, actor, "Carla", "333.333.333-33", "80.00", 30)
	f.pay(t, paid, actor, "80.00")
	_, older := f.register(t, company, actor, "Ana", "111.111.111-11", "20.00", -40)
	f.register(t, other, otherActor, "Davi", "444.444.444-44", "999.00", -5)

	t.Run("dashboard", func(t *testing.T) {
		dash, err := f.service.Dashboard(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, 3, dash.DistinctClients)
		assert.Equal(t, 3, dash.ActiveDebts)
		assert.Equal(t, 1, dash.PaidDebts)
		assert.Equal(t, 2, dash.OverdueDebts)
		assert.Equal(t, 1, dash.DueSoonDebts)
		assert.True(t, dash.OpenBalance.Equal(decimal.RequireFromString("170.00")), dash.OpenBalance.String())
		assert.Len(t, dash.RecentClients, 3)
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := f.service.Statistics(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalDebts)
		assert.Equal(t, 25.0, stats.RecoveryRate)
		require.Len(t, stats.Top, 2)
		assert.Equal(t, ana.ID, stats.Top[0].Client.ID)
		assert.True(t, stats.Top[0].OpenBalance.Equal(decimal.RequireFromString("120.00")))
		assert.Equal(t, 2, stats.Top[0].OpenDebts)
		require.Len(t, stats.Monthly, 12)
		last := stats.Monthly[11]
		assert.Equal(t, f.today.Format("2006-01"), last.Month)
		assert.Equal(t, 4, last.Count)
		assert.True(t, last.Amount.Equal(decimal.RequireFromString("250.00")))
		for _, c := range stats.Top {
			assert.NotEqual(t, carla.ID, c.Client.ID)
		}
	})

	t.Run("overdue", func(t *testing.T) {
		report, err := f.service.Overdue(ctx, actor)
		require.NoError(t, err)
		require.Equal(t, 2, report.Count)
		assert.Equal(t, older.ID, report.Debts[0].ID)
		assert.Equal(t, late.ID, report.Debts[1].ID)
		assert.Equal(t, 40, report.Debts[0].DaysLate)
		assert.Equal(t, "Ana", report.Debts[1].Client.FullName)
		assert.True(t, report.Total.Equal(decimal.RequireFromString("120.00")))
		assert.NotContains(t, []uuid.UUID{report.Debts[0].ID, report.Debts[1].ID}, soon.ID)
	})

	t.Run("external actors have no reports", func(t *testing.T) {
		_, err := f.service.Dashboard(ctx, debt.ExternalActor{User: uuid.New()})
		assert.ErrorIs(t, err, debt.ErrMembershipNeeded)
		_, err = f.service.Overdue(ctx, debt.ExternalActor{User: uuid.New()})
		assert.ErrorIs(t, err, debt.ErrMembershipNeeded)
	})
}
