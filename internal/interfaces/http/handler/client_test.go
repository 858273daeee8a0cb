package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHandler_List(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.member(t, "Loja Central")
	f.registerClientDebt(t, token, "Maria Souza", "12345678909", "100.00", "2026-04-01")
	f.registerClientDebt(t, token, "Maria Souza", "12345678909", "50.00", "2026-05-01")
	f.registerClientDebt(t, token, "João Lima", "98765432100", "20.00", "2026-04-10")

	w, env := f.do(t, http.MethodGet, "/api/v1/clients?page=1&page_size=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decodeData[[]ClientSummaryResponse](t, env)
	require.Len(t, items, 1)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients?q=123.456", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = decodeData[[]ClientSummaryResponse](t, env)
	require.Len(t, items, 1)
	assert.Equal(t, "Maria Souza", items[0].FullName)
	assert.Equal(t, 2, items[0].OpenDebts)
	assert.Equal(t, "150.00", items[0].OpenBalance)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients?company_id=not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotNil(t, env.Error)
}

func TestClientHandler_ExternalVisibility(t *testing.T) {
	f := newAPIFixture(t)
	token, actor := f.member(t, "Loja Central")
	created := f.registerClientDebt(t, token, "Maria Souza", "12345678909", "100.00", "2026-04-01")
	external := f.external(t)

	w, env := f.do(t, http.MethodGet, "/api/v1/clients", external, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[[]ClientSummaryResponse](t, env), "no query lists nothing for an external actor")

	w, env = f.do(t, http.MethodGet, "/api/v1/clients?q=12345678909&company_id="+actor.CompanyID.String(), external, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]ClientSummaryResponse](t, env), 1)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients/search?q=123.456.789-09", external, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decodeData[[]ClientSummaryResponse](t, env)
	require.Len(t, found, 1)
	assert.Equal(t, created.Client.ID, found[0].ID)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients/"+created.Client.ID, external, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decodeData[ClientDetailResponse](t, env)
	require.Len(t, detail.Companies, 1)
	assert.Equal(t, "Loja Central", detail.Companies[0].CompanyName)
	assert.Equal(t, "100.00", detail.Stats.OpenBalance)

	w, _ = f.do(t, http.MethodPost, "/api/v1/debts/"+created.Debt.ID+"/negotiation", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients/"+created.Client.ID, external, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "CLIENT_NOT_VISIBLE", env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients/search?q=12345678909", external, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]ClientSummaryResponse](t, env), 1, "a debt in negotiation is still open")
}

func TestClientHandler_SearchRejectsEmptyQuery(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.member(t, "Loja Central")

	w, env := f.do(t, http.MethodGet, "/api/v1/clients/search?q=%20%20", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_QUERY", env.Error.Code)
}

func TestClientHandler_Debts(t *testing.T) {
	f := newAPIFixture(t)
	owner, _ := f.member(t, "Loja Central")
	other, _ := f.member(t, "Mercado Sul")
	created := f.registerClientDebt(t, owner, "Maria Souza", "12345678909", "100.00", "2026-03-01")
	f.registerClientDebt(t, other, "Maria Souza", "12345678909", "40.00", "2026-04-01")

	w, env := f.do(t, http.MethodGet, "/api/v1/clients/"+created.Client.ID+"/debts", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	views := decodeData[[]DebtViewResponse](t, env)
	require.Len(t, views, 1, "only the caller's company debts are listed")
	assert.Equal(t, created.Debt.ID, views[0].ID)
	assert.True(t, views[0].CanSettle)
	assert.True(t, views[0].Overdue)

	w, _ = f.do(t, http.MethodPost, "/api/v1/debts/"+created.Debt.ID+"/payments", owner, gin.H{"amount": "100"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients/"+created.Client.ID+"/debts", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	views = decodeData[[]DebtViewResponse](t, env)
	require.Len(t, views, 1)
	assert.False(t, views[0].CanSettle, "paid debts cannot be settled")
	assert.False(t, views[0].Overdue)

	w, env = f.do(t, http.MethodGet, "/api/v1/clients/"+created.Client.ID+"/debts", f.external(t), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "COMPANY_MEMBERSHIP_REQUIRED", env.Error.Code)
}

func TestClientHandler_DetailNotFound(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.member(t, "Loja Central")

	w, env := f.do(t, http.MethodGet, "/api/v1/clients/6f1c2d7e-0000-4000-8000-000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CLIENT_NOT_FOUND", env.Error.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/clients/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
