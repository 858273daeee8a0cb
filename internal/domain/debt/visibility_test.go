package debt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debtWith(companyID uuid.UUID, status Status) Debt {
	return Debt{CompanyID: companyID, Status: status}
}

func TestVisibleAfterSearch(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	company := CompanyActor{User: uuid.New(), CompanyID: own}
	external := ExternalActor{User: uuid.New()}

	tests := []struct {
		name     string
		debts    []Debt
		company  bool
		external bool
	}{
		{"open elsewhere", []Debt{debtWith(other, StatusActive)}, true, true},
		{"negotiating elsewhere", []Debt{debtWith(other, StatusInNegotiation)}, true, true},
		{"own closed history", []Debt{debtWith(own, StatusPaid)}, true, false},
		{"own cancelled", []Debt{debtWith(own, StatusCancelled)}, true, false},
		{"other closed history", []Debt{debtWith(other, StatusPaid), debtWith(other, StatusCancelled)}, false, false},
		{"no debts", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.company, VisibleAfterSearch(company, tt.debts))
			assert.Equal(t, tt.external, VisibleAfterSearch(external, tt.debts))
		})
	}
}

func TestDetailDebts_CompanyActorSeesOwnCompany(t *testing.T) {
	own := uuid.New()
	debts := []Debt{debtWith(own, StatusPaid), debtWith(uuid.New(), StatusActive), debtWith(own, StatusActive)}

	got, err := DetailDebts(CompanyActor{User: uuid.New(), CompanyID: own}, debts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, d := range got {
		assert.Equal(t, own, d.CompanyID)
	}
}

func TestDetailDebts_ExternalActorSeesOnlyActive(t *testing.T) {
	debts := []Debt{
		debtWith(uuid.New(), StatusActive),
		debtWith(uuid.New(), StatusInNegotiation),
		debtWith(uuid.New(), StatusActive),
		debtWith(uuid.New(), StatusPaid),
	}
	got, err := DetailDebts(ExternalActor{User: uuid.New()}, debts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, d := range got {
		assert.Equal(t, StatusActive, d.Status)
	}
}

func TestDetailDebts_ExternalActorRefusedWithoutActiveDebt(t *testing.T) {
	debts := []Debt{debtWith(uuid.New(), StatusInNegotiation), debtWith(uuid.New(), StatusPaid)}
	_, err := DetailDebts(ExternalActor{User: uuid.New()}, debts)
	assert.ErrorIs(t, err, ErrClientNotVisible)
}

func TestNewActor(t *testing.T) {
	user := uuid.New()
	assert.Equal(t, ExternalActor{User: user}, NewActor(user, nil))

	m, err := NewMembership(user, uuid.New(), true)
	require.NoError(t, err)
	a := NewActor(user, m)
	ca, ok := a.(CompanyActor)
	require.True(t, ok)
	assert.Equal(t, m.CompanyID, ca.CompanyID)
	assert.True(t, ca.IsAdmin)
	assert.NoError(t, RequireCompanyAdmin(a, m.CompanyID))
	assert.ErrorIs(t, RequireCompanyAdmin(CompanyActor{User: user, CompanyID: m.CompanyID}, m.CompanyID), ErrNotCompanyAdmin)
}
