package debt

import "github.com/google/uuid"

// Actor is the authenticated identity a request acts as. It is either a
// CompanyActor bound to one company or an ExternalActor with read-only,
// cross-company access. Resolve it once per request with NewActor.
type Actor interface {
	UserID() uuid.UUID
	actor()
}

// CompanyActor is a user with a company membership.
type CompanyActor struct {
	User      uuid.UUID
	CompanyID uuid.UUID
	IsAdmin   bool
}

func (a CompanyActor) UserID() uuid.UUID { return a.User }
func (CompanyActor) actor()              {}

// IsMemberOf reports whether the actor belongs to companyID.
func (a CompanyActor) IsMemberOf(companyID uuid.UUID) bool {
	return a.CompanyID == companyID
}

// ExternalActor is a user without membership.
type ExternalActor struct {
	User uuid.UUID
}

func (a ExternalActor) UserID() uuid.UUID { return a.User }
func (ExternalActor) actor()              {}

// NewActor classifies a user by its membership, which may be nil.
func NewActor(userID uuid.UUID, m *Membership) Actor {
	if m == nil {
		return ExternalActor{User: userID}
	}
	return CompanyActor{User: userID, CompanyID: m.CompanyID, IsAdmin: m.IsCompanyAdmin}
}

// CompanyOf returns the company of a company actor.
func CompanyOf(a Actor) (uuid.UUID, bool) {
	ca, ok := a.(CompanyActor)
	if !ok {
		return uuid.Nil, false
	}
	return ca.CompanyID, true
}

// RequireMembership fails with an authorization error unless the actor
// belongs to companyID.
func RequireMembership(a Actor, companyID uuid.UUID) error {
	ca, ok := a.(CompanyActor)
	if !ok {
		return ErrMembershipNeeded
	}
	if !ca.IsMemberOf(companyID) {
		return ErrNotCompanyMember
	}
	return nil
}

// RequireCompanyActor returns the company actor or an authorization error.
func RequireCompanyActor(a Actor) (CompanyActor, error) {
	ca, ok := a.(CompanyActor)
	if !ok {
		return CompanyActor{}, ErrMembershipNeeded
	}
	return ca, nil
}

// RequireCompanyAdmin fails unless the actor administers companyID.
func RequireCompanyAdmin(a Actor, companyID uuid.UUID) error {
	if err := RequireMembership(a, companyID); err != nil {
		return err
	}
	if !a.(CompanyActor).IsAdmin {
		return ErrNotCompanyAdmin
	}
	return nil
}
