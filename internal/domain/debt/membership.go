package debt

import (
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Membership binds a user to its single company.
type Membership struct {
	shared.BaseEntity
	UserID         uuid.UUID
	CompanyID      uuid.UUID
	IsCompanyAdmin bool
}

// NewMembership creates a membership
func NewMembership(userID, companyID uuid.UUID, isAdmin bool) (*Membership, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "User id is required")
	}
	if companyID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_COMPANY", "Company id is required")
	}
	return &Membership{
		BaseEntity:     shared.NewBaseEntity(),
		UserID:         userID,
		CompanyID:      companyID,
		IsCompanyAdmin: isAdmin,
	}, nil
}
