package company

import (
	"context"
	"fmt"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/logger"
	"github.com/dividas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "CompanyService"

// CreateCommand creates a company. Active defaults to true.
type CreateCommand struct {
	debt.CompanyData
	Active *bool
}

// Profile describes the acting user
type Profile struct {
	Actor   debt.Actor
	Company *debt.Company
}

// Service administers companies and memberships
type Service struct {
	companies debt.CompanyRepository
	members   debt.MembershipRepository
}

// NewService creates a company service
func NewService(companies debt.CompanyRepository, members debt.MembershipRepository) *Service {
	return &Service{companies: companies, members: members}
}

// Create stores a new company. A caller without membership becomes its admin.
func (s *Service) Create(ctx context.Context, actor debt.Actor, cmd CreateCommand) (*debt.Company, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Create")
	defer span.End()

	company, err := debt.NewCompany(cmd.CompanyData)
	if err != nil {
		return nil, err
	}
	if cmd.Active != nil {
		company.Active = *cmd.Active
	}
	exists, err := s.companies.ExistsByName(ctx, company.Name)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check company name: %w", err)
	}
	if exists {
		return nil, debt.ErrDuplicateCompany
	}

	var admin *debt.Membership
	if _, ok := actor.(debt.ExternalActor); ok {
		if admin, err = debt.NewMembership(actor.UserID(), company.ID, true); err != nil {
			return nil, err
		}
	}
	if err := s.companies.CreateWithAdmin(ctx, company, admin); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("name", company.Name),
		zap.Bool("creator_is_admin", admin != nil),
	)
	return company, nil
}

// List returns companies ordered by name
func (s *Service) List(ctx context.Context, activeOnly bool) ([]debt.Company, error) {
	companies, err := s.companies.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// Get returns one company
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*debt.Company, error) {
	return s.companies.FindByID(ctx, id)
}

// AddMember binds userID to the company. Only an admin of that company may
// add members, and a user belongs to at most one company.
func (s *Service) AddMember(ctx context.Context, actor debt.Actor, companyID, userID uuid.UUID, isAdmin bool) (*debt.Membership, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "AddMember")
	defer span.End()

	if err := debt.RequireCompanyAdmin(actor, companyID); err != nil {
		return nil, err
	}
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	existing, err := s.members.FindByUser(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}
	if existing != nil {
		return nil, debt.ErrAlreadyMember
	}

	m, err := debt.NewMembership(userID, companyID, isAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.members.Create(ctx, m); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.L(ctx).Info("member added",
		zap.String("company_id", companyID.String()),
		zap.String("member_id", userID.String()),
		zap.Bool("is_admin", isAdmin),
	)
	return m, nil
}

// ListMembers returns the memberships of the actor's own company
func (s *Service) ListMembers(ctx context.Context, actor debt.Actor, companyID uuid.UUID) ([]debt.Membership, error) {
	if err := debt.RequireMembership(actor, companyID); err != nil {
		return nil, err
	}
	members, err := s.members.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// Me returns the actor with its company, if any
func (s *Service) Me(ctx context.Context, actor debt.Actor) (*Profile, error) {
	p := &Profile{Actor: actor}
	companyID, ok := debt.CompanyOf(actor)
	if !ok {
		return p, nil
	}
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	p.Company = company
	return p, nil
}
