package debt

import (
	"context"

	"github.com/google/uuid"
)

// CompanyRepository persists companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Company, error)
	FindAll(ctx context.Context, activeOnly bool) ([]Company, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	// CreateWithAdmin stores the company and, when admin is not nil, its
	// first membership in one transaction.
	CreateWithAdmin(ctx context.Context, company *Company, admin *Membership) error
}

// MembershipRepository persists the user to company binding
type MembershipRepository interface {
	// FindByUser returns the user's membership, or nil without error when the
	// user has none.
	FindByUser(ctx context.Context, userID uuid.UUID) (*Membership, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Membership, error)
	Create(ctx context.Context, m *Membership) error
}

// ClientRepository persists clients
type ClientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Client, error)
	// FindByDocumentID looks up a stored (normalized) document id, returning
	// nil without error when there is none.
	FindByDocumentID(ctx context.Context, documentID string) (*Client, error)
	// SearchByDocument resolves a document query without any tenant filtering.
	SearchByDocument(ctx context.Context, q DocumentQuery) ([]Client, error)
	// FindWithOpenDebtsIn returns clients having an ACTIVE or IN_NEGOTIATION
	// debt with companyID.
	FindWithOpenDebtsIn(ctx context.Context, companyID uuid.UUID) ([]Client, error)
}

// DebtRepository persists debts together with their history. Every write
// stores the debt change and its history entry atomically.
type DebtRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Debt, error)
	FindByClientIDs(ctx context.Context, clientIDs []uuid.UUID) ([]Debt, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Debt, error)
	FindHistory(ctx context.Context, debtID uuid.UUID) ([]HistoryEntry, error)

	// Create stores a new debt and its registration entry.
	Create(ctx context.Context, d *Debt, entry *HistoryEntry) error
	// CreateWithClient stores a new client, its first debt and the
	// registration entry in one transaction.
	CreateWithClient(ctx context.Context, c *Client, d *Debt, entry *HistoryEntry) error
	// SaveWithLock writes a mutated debt only when the stored version is
	// d.Version-1, appending entry in the same transaction. A lost race
	// returns ErrConcurrentUpdate.
	SaveWithLock(ctx context.Context, d *Debt, entry *HistoryEntry) error
}
