package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dividas/backend/internal/application/access"
	"github.com/dividas/backend/internal/application/company"
	"github.com/dividas/backend/internal/application/ledger"
	"github.com/dividas/backend/internal/application/report"
	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/auth"
	"github.com/dividas/backend/internal/infrastructure/cache"
	"github.com/dividas/backend/internal/infrastructure/config"
	"github.com/dividas/backend/internal/infrastructure/persistence"
	"github.com/dividas/backend/internal/interfaces/http/dto"
	"github.com/dividas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// apiNow is 2026-03-15 12:00 UTC; today is 2026-03-15.
var apiNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type apiFixture struct {
	engine    *gin.Engine
	jwt       *auth.JWTService
	companies *persistence.GormCompanyRepository
	members   *persistence.GormMembershipRepository
}

// envelope mirrors dto.Response with the payload left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	companies := persistence.NewGormCompanyRepository(database.DB)
	members := persistence.NewGormMembershipRepository(database.DB)
	clients := persistence.NewGormClientRepository(database.DB)
	debts := persistence.NewGormDebtRepository(database.DB)
	now := func() time.Time { return apiNow }

	idempotency := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = idempotency.Close() })

	accessService := access.NewService(members, companies, clients, debts, access.Options{Now: now})
	ledgerService := ledger.NewService(companies, clients, debts, nil, idempotency, ledger.Options{Now: now})
	companyService := company.NewService(companies, members)
	reportService := report.NewService(clients, debts, time.UTC, now)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "handler-test-secret-of-32-characters",
		AccessTokenExpiration: time.Hour,
		Issuer:                "dividas-test",
	})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1", middleware.JWTAuthMiddleware(jwtService), middleware.ResolveActor(accessService))

	debtHandler := NewDebtHandler(ledgerService)
	api.POST("/debts", debtHandler.Register)
	api.POST("/debts/with-client", debtHandler.RegisterForClient)
	api.GET("/debts/:id", debtHandler.Get)
	api.PATCH("/debts/:id", debtHandler.Edit)
	api.POST("/debts/:id/payments", debtHandler.RegisterPayment)
	api.POST("/debts/:id/negotiation", debtHandler.StartNegotiation)
	api.POST("/debts/:id/cancel", debtHandler.Cancel)
	api.POST("/debts/:id/reactivate", debtHandler.Reactivate)
	api.GET("/debts/:id/history", debtHandler.History)

	clientHandler := NewClientHandler(accessService)
	api.GET("/clients", clientHandler.List)
	api.GET("/clients/search", clientHandler.Search)
	api.GET("/clients/:id", clientHandler.Detail)
	api.GET("/clients/:id/debts", clientHandler.Debts)

	companyHandler := NewCompanyHandler(companyService)
	api.POST("/companies", middleware.RequirePermission(auth.PermissionManageCompanies, nil), companyHandler.Create)
	api.GET("/companies", companyHandler.List)
	api.GET("/companies/:id", companyHandler.Get)
	api.GET("/companies/:id/members", companyHandler.ListMembers)
	api.POST("/companies/:id/members", companyHandler.AddMember)
	api.GET("/me", companyHandler.Me)

	reportHandler := NewReportHandler(reportService)
	api.GET("/reports/dashboard", reportHandler.Dashboard)
	api.GET("/reports/statistics", reportHandler.Statistics)
	api.GET("/reports/overdue", reportHandler.Overdue)

	return &apiFixture{engine: engine, jwt: jwtService, companies: companies, members: members}
}

// member creates a company with an admin member and returns the admin's token
func (f *apiFixture) member(t *testing.T, name string) (string, debt.CompanyActor) {
	t.Helper()
	c, err := debt.NewCompany(debt.CompanyData{Name: name})
	require.NoError(t, err)
	m, err := debt.NewMembership(uuid.New(), c.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.companies.CreateWithAdmin(context.Background(), c, m))
	return f.token(t, m.UserID), debt.CompanyActor{User: m.UserID, CompanyID: c.ID, IsAdmin: true}
}

func (f *apiFixture) token(t *testing.T, userID uuid.UUID, perms ...string) string {
	t.Helper()
	token, _, err := f.jwt.GenerateToken(auth.TokenInput{UserID: userID, Username: "user", Permissions: perms})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) external(t *testing.T, perms ...string) string {
	return f.token(t, uuid.New(), perms...)
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// registerClientDebt registers a debt for a new or existing client and
// returns it.
func (f *apiFixture) registerClientDebt(t *testing.T, token, name, doc, amount, due string) ClientDebtResponse {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/v1/debts/with-client", token, gin.H{
		"client":   gin.H{"full_name": name, "document_id": doc},
		"amount":   amount,
		"due_date": due,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[ClientDebtResponse](t, env)
}
