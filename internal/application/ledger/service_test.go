package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/dividas/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]debt.Company, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]debt.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context, activeOnly bool) ([]debt.Company, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]debt.Company), args.Error(1)
}

func (m *MockCompanyRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) CreateWithAdmin(ctx context.Context, company *debt.Company, admin *debt.Membership) error {
	args := m.Called(ctx, company, admin)
	return args.Error(0)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]debt.Client, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]debt.Client), args.Error(1)
}

func (m *MockClientRepository) FindByDocumentID(ctx context.Context, documentID string) (*debt.Client, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Client), args.Error(1)
}

func (m *MockClientRepository) SearchByDocument(ctx context.Context, q debt.DocumentQuery) ([]debt.Client, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]debt.Client), args.Error(1)
}

func (m *MockClientRepository) FindWithOpenDebtsIn(ctx context.Context, companyID uuid.UUID) ([]debt.Client, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]debt.Client), args.Error(1)
}

type MockDebtRepository struct {
	mock.Mock
}

func (m *MockDebtRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Debt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Debt), args.Error(1)
}

func (m *MockDebtRepository) FindByClientIDs(ctx context.Context, clientIDs []uuid.UUID) ([]debt.Debt, error) {
	args := m.Called(ctx, clientIDs)
	return args.Get(0).([]debt.Debt), args.Error(1)
}

func (m *MockDebtRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]debt.Debt, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]debt.Debt), args.Error(1)
}

func (m *MockDebtRepository) FindHistory(ctx context.Context, debtID uuid.UUID) ([]debt.HistoryEntry, error) {
	args := m.Called(ctx, debtID)
	return args.Get(0).([]debt.HistoryEntry), args.Error(1)
}

func (m *MockDebtRepository) Create(ctx context.Context, d *debt.Debt, entry *debt.HistoryEntry) error {
	args := m.Called(ctx, d, entry)
	return args.Error(0)
}

func (m *MockDebtRepository) CreateWithClient(ctx context.Context, c *debt.Client, d *debt.Debt, entry *debt.HistoryEntry) error {
	args := m.Called(ctx, c, d, entry)
	return args.Error(0)
}

func (m *MockDebtRepository) SaveWithLock(ctx context.Context, d *debt.Debt, entry *debt.HistoryEntry) error {
	args := m.Called(ctx, d, entry)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// =============================================================================
// Helpers
// =============================================================================

var (
	testNow   = time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	testToday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
)

type serviceFixture struct {
	service   *Service
	companies *MockCompanyRepository
	clients   *MockClientRepository
	debts     *MockDebtRepository
	events    *MockEventPublisher
	company   *debt.Company
	actor     debt.CompanyActor
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	company, err := debt.NewCompany(debt.CompanyData{Name: "Loja Central"})
	require.NoError(t, err)

	f := &serviceFixture{
		companies: new(MockCompanyRepository),
		clients:   new(MockClientRepository),
		debts:     new(MockDebtRepository),
		events:    new(MockEventPublisher),
		company:   company,
		actor:     debt.CompanyActor{User: uuid.New(), CompanyID: company.ID},
	}
	f.service = NewService(f.companies, f.clients, f.debts, f.events, store, Options{
		Location:       time.UTC,
		IdempotencyTTL: time.Hour,
		Now:            func() time.Time { return testNow },
	})
	return f
}

func (f *serviceFixture) newClient(t *testing.T) *debt.Client {
	t.Helper()
	client, err := debt.NewClient(debt.ClientData{FullName: "Maria Souza", DocumentID: "123.456.789-01"})
	require.NoError(t, err)
	return client
}

func (f *serviceFixture) newDebt(t *testing.T, amount string) *debt.Debt {
	t.Helper()
	d, _, err := debt.RegisterDebt(debt.Registration{
		Client:  f.newClient(t),
		Company: f.company,
		Amount:  decimal.RequireFromString(amount),
		DueDate: testToday.AddDate(0, 1, 0),
	}, f.actor)
	require.NoError(t, err)
	d.ClearDomainEvents()
	return d
}

// =============================================================================
// Tests
// =============================================================================

func TestService_Today(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	s := NewService(nil, nil, nil, nil, nil, Options{
		Location: loc,
		Now:      func() time.Time { return time.Date(2026, 3, 16, 1, 30, 0, 0, time.UTC) },
	})
	// 01:30 UTC is still the previous evening in São Paulo
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), s.Today())
}

func TestService_RegisterDebt(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and publishes", func(t *testing.T) {
		f := newServiceFixture(t)
		client := f.newClient(t)
		f.companies.On("FindByID", mock.Anything, f.company.ID).Return(f.company, nil)
		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		f.debts.On("Create", mock.Anything, mock.AnythingOfType("*debt.Debt"), mock.AnythingOfType("*debt.HistoryEntry")).Return(nil)
		f.events.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == debt.EventTypeDebtRegistered
		})).Return(nil)

		d, err := f.service.RegisterDebt(ctx, f.actor, RegisterDebtCommand{
			ClientID: client.ID,
			Amount:   decimal.RequireFromString("150.00"),
			DueDate:  testToday.AddDate(0, 0, 30),
		})

		require.NoError(t, err)
		assert.Equal(t, debt.StatusActive, d.Status)
		assert.True(t, d.CurrentBalance.Equal(decimal.RequireFromString("150.00")))
		assert.Empty(t, d.GetDomainEvents())
		f.debts.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("external actor is refused", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.RegisterDebt(ctx, debt.ExternalActor{User: uuid.New()}, RegisterDebtCommand{
			ClientID: uuid.New(),
			Amount:   decimal.RequireFromString("10.00"),
			DueDate:  testToday,
		})
		assert.ErrorIs(t, err, debt.ErrMembershipNeeded)
		assert.True(t, shared.IsAuthorization(err))
		f.debts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("other company is refused", func(t *testing.T) {
		f := newServiceFixture(t)
		other, err := debt.NewCompany(debt.CompanyData{Name: "Outra"})
		require.NoError(t, err)
		client := f.newClient(t)
		f.companies.On("FindByID", mock.Anything, other.ID).Return(other, nil)
		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)

		_, err = f.service.RegisterDebt(ctx, f.actor, RegisterDebtCommand{
			ClientID:  client.ID,
			CompanyID: &other.ID,
			Amount:    decimal.RequireFromString("10.00"),
			DueDate:   testToday,
		})
		assert.ErrorIs(t, err, debt.ErrNotCompanyMember)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		f := newServiceFixture(t)
		client := f.newClient(t)
		f.companies.On("FindByID", mock.Anything, f.company.ID).Return(f.company, nil)
		f.clients.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		f.debts.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := f.service.RegisterDebt(ctx, f.actor, RegisterDebtCommand{
			ClientID: client.ID,
			Amount:   decimal.RequireFromString("10.00"),
			DueDate:  testToday,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save debt")
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestService_RegisterClientDebt(t *testing.T) {
	ctx := context.Background()
	data := debt.ClientData{FullName: "João Lima", DocumentID: "987.654.321-00"}

	t.Run("creates a new client", func(t *testing.T) {
		f := newServiceFixture(t)
		f.companies.On("FindByID", mock.Anything, f.company.ID).Return(f.company, nil)
		f.clients.On("FindByDocumentID", mock.Anything, "98765432100").Return(nil, nil)
		f.debts.On("CreateWithClient", mock.Anything, mock.AnythingOfType("*debt.Client"), mock.Anything, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.RegisterClientDebt(ctx, f.actor, RegisterClientDebtCommand{
			Client:  data,
			Amount:  decimal.RequireFromString("80.00"),
			DueDate: testToday,
		})

		require.NoError(t, err)
		assert.True(t, result.ClientCreated)
		assert.Equal(t, "98765432100", result.Client.DocumentID)
		assert.Equal(t, result.Client.ID, result.Debt.ClientID)
	})

	t.Run("reuses an existing client", func(t *testing.T) {
		f := newServiceFixture(t)
		existing, err := debt.NewClient(data)
		require.NoError(t, err)
		f.companies.On("FindByID", mock.Anything, f.company.ID).Return(f.company, nil)
		f.clients.On("FindByDocumentID", mock.Anything, "98765432100").Return(existing, nil)
		f.debts.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.RegisterClientDebt(ctx, f.actor, RegisterClientDebtCommand{
			Client:  data,
			Amount:  decimal.RequireFromString("80.00"),
			DueDate: testToday,
		})

		require.NoError(t, err)
		assert.False(t, result.ClientCreated)
		assert.Equal(t, existing.ID, result.Debt.ClientID)
		f.debts.AssertNotCalled(t, "CreateWithClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries when the client was created concurrently", func(t *testing.T) {
		f := newServiceFixture(t)
		existing, err := debt.NewClient(data)
		require.NoError(t, err)
		f.companies.On("FindByID", mock.Anything, f.company.ID).Return(f.company, nil)
		f.clients.On("FindByDocumentID", mock.Anything, "98765432100").Return(nil, nil).Once()
		f.clients.On("FindByDocumentID", mock.Anything, "98765432100").Return(existing, nil).Once()
		f.debts.On("CreateWithClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(debt.ErrDuplicateClient)
		f.debts.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.service.RegisterClientDebt(ctx, f.actor, RegisterClientDebtCommand{
			Client:  data,
			Amount:  decimal.RequireFromString("80.00"),
			DueDate: testToday,
		})

		require.NoError(t, err)
		assert.False(t, result.ClientCreated)
		assert.Equal(t, existing.ID, result.Client.ID)
	})

	t.Run("invalid document id", func(t *testing.T) {
		f := newServiceFixture(t)
		f.companies.On("FindByID", mock.Anything, f.company.ID).Return(f.company, nil)
		_, err := f.service.RegisterClientDebt(ctx, f.actor, RegisterClientDebtCommand{
			Client:  debt.ClientData{FullName: "X", DocumentID: "123"},
			Amount:  decimal.RequireFromString("80.00"),
			DueDate: testToday,
		})
		assert.ErrorIs(t, err, debt.ErrInvalidDocumentID)
	})
}

func TestService_RegisterPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("partial payment", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.MatchedBy(func(e *debt.HistoryEntry) bool {
			return e.Action == debt.ActionPartialPayment
		})).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		updated, err := f.service.RegisterPayment(ctx, f.actor, RegisterPaymentCommand{
			DebtID: d.ID,
			Amount: decimal.RequireFromString("40.00"),
		})

		require.NoError(t, err)
		assert.True(t, updated.CurrentBalance.Equal(decimal.RequireFromString("60.00")))
		assert.Equal(t, debt.StatusActive, updated.Status)
		f.debts.AssertExpectations(t)
	})

	t.Run("full payment settles with today's date", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 2 && events[1].EventType() == debt.EventTypeDebtSettled
		})).Return(nil)

		updated, err := f.service.RegisterPayment(ctx, f.actor, RegisterPaymentCommand{
			DebtID: d.ID,
			Amount: decimal.RequireFromString("100.00"),
		})

		require.NoError(t, err)
		assert.Equal(t, debt.StatusPaid, updated.Status)
		require.NotNil(t, updated.PaymentDate)
		assert.Equal(t, testToday, *updated.PaymentDate)
		f.events.AssertExpectations(t)
	})

	t.Run("amount above balance leaves the debt untouched", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := f.service.RegisterPayment(ctx, f.actor, RegisterPaymentCommand{
			DebtID: d.ID,
			Amount: decimal.RequireFromString("100.01"),
		})

		assert.True(t, shared.IsValidation(err))
		assert.True(t, d.CurrentBalance.Equal(decimal.RequireFromString("100.00")))
		f.debts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent update surfaces as conflict", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.Anything).Return(debt.ErrConcurrentUpdate)

		_, err := f.service.RegisterPayment(ctx, f.actor, RegisterPaymentCommand{
			DebtID: d.ID,
			Amount: decimal.RequireFromString("10.00"),
		})

		assert.ErrorIs(t, err, debt.ErrConcurrentUpdate)
		assert.True(t, shared.IsConflict(err))
	})

	t.Run("repeated idempotency key is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil).Once()
		f.debts.On("SaveWithLock", mock.Anything, d, mock.Anything).Return(nil).Once()
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
		cmd := RegisterPaymentCommand{
			DebtID:         d.ID,
			Amount:         decimal.RequireFromString("10.00"),
			IdempotencyKey: "form-1",
		}

		_, err := f.service.RegisterPayment(ctx, f.actor, cmd)
		require.NoError(t, err)
		_, err = f.service.RegisterPayment(ctx, f.actor, cmd)

		assert.ErrorIs(t, err, debt.ErrDuplicateRequest)
		assert.True(t, d.CurrentBalance.Equal(decimal.RequireFromString("90.00")))
		f.debts.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("failed payment releases its key", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service.RegisterPayment(ctx, f.actor, RegisterPaymentCommand{
			DebtID:         d.ID,
			Amount:         decimal.RequireFromString("150.00"),
			IdempotencyKey: "form-2",
		})
		require.ErrorIs(t, err, debt.ErrExceedsBalance)

		_, err = f.service.RegisterPayment(ctx, f.actor, RegisterPaymentCommand{
			DebtID:         d.ID,
			Amount:         decimal.RequireFromString("50.00"),
			IdempotencyKey: "form-2",
		})
		assert.NoError(t, err)
		assert.True(t, d.CurrentBalance.Equal(decimal.RequireFromString("50.00")))
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
		cmd := RegisterPaymentCommand{DebtID: d.ID, Amount: decimal.RequireFromString("10.00"), IdempotencyKey: "same"}
		colleague := debt.CompanyActor{User: uuid.New(), CompanyID: f.company.ID}

		_, err := f.service.RegisterPayment(ctx, f.actor, cmd)
		require.NoError(t, err)
		_, err = f.service.RegisterPayment(ctx, colleague, cmd)
		assert.NoError(t, err)
	})
}

func TestService_StatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("negotiation then reactivation", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.Anything).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		updated, err := f.service.StartNegotiation(ctx, f.actor, d.ID, "customer called")
		require.NoError(t, err)
		assert.Equal(t, debt.StatusInNegotiation, updated.Status)

		updated, err = f.service.ReactivateDebt(ctx, f.actor, d.ID, "")
		require.NoError(t, err)
		assert.Equal(t, debt.StatusActive, updated.Status)
	})

	t.Run("cancel", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.debts.On("SaveWithLock", mock.Anything, d, mock.MatchedBy(func(e *debt.HistoryEntry) bool {
			return e.Action == debt.ActionCancellation
		})).Return(nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		updated, err := f.service.CancelDebt(ctx, f.actor, d.ID, "duplicate entry")
		require.NoError(t, err)
		assert.Equal(t, debt.StatusCancelled, updated.Status)
	})

	t.Run("edit of a paid balance is refused", func(t *testing.T) {
		f := newServiceFixture(t)
		d := f.newDebt(t, "100.00")
		_, err := d.RegisterPayment(debt.PaymentInput{Amount: d.CurrentBalance}, testToday, f.actor)
		require.NoError(t, err)
		f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		balance := decimal.RequireFromString("10.00")

		_, err = f.service.EditDebt(ctx, f.actor, EditDebtCommand{DebtID: d.ID, Balance: &balance})
		assert.ErrorIs(t, err, debt.ErrDebtPaid)
	})

	t.Run("unknown debt", func(t *testing.T) {
		f := newServiceFixture(t)
		id := uuid.New()
		f.debts.On("FindByID", mock.Anything, id).Return(nil, debt.ErrDebtNotFound)

		_, err := f.service.CancelDebt(ctx, f.actor, id, "")
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	d := f.newDebt(t, "100.00")
	f.debts.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.debts.On("FindHistory", mock.Anything, d.ID).Return([]debt.HistoryEntry{{ID: uuid.New(), DebtID: d.ID, Action: debt.ActionRegistration}}, nil)

	entries, err := f.service.History(ctx, f.actor, d.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = f.service.History(ctx, debt.ExternalActor{User: uuid.New()}, d.ID)
	assert.ErrorIs(t, err, debt.ErrMembershipNeeded)
}
