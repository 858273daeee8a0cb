package persistence

import (
	"context"
	"strings"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements debt.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by its ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, debt.ErrCompanyNotFound, nil)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads every company in ids; unknown ids are skipped
func (r *GormCompanyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]debt.Company, error) {
	if len(ids) == 0 {
		return []debt.Company{}, nil
	}
	var rows []models.CompanyModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCompanies(rows), nil
}

// FindAll lists companies ordered by name
func (r *GormCompanyRepository) FindAll(ctx context.Context, activeOnly bool) ([]debt.Company, error) {
	query := r.db.WithContext(ctx).Model(&models.CompanyModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.CompanyModel
	if err := query.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCompanies(rows), nil
}

// ExistsByName reports whether a company with the given name exists, ignoring case
func (r *GormCompanyRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CompanyModel{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count > 0, err
}

// CreateWithAdmin stores a company and optionally its first admin membership
func (r *GormCompanyRepository) CreateWithAdmin(ctx context.Context, company *debt.Company, admin *debt.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.CompanyModelFromDomain(company)).Error; err != nil {
			return translate(err, nil, debt.ErrDuplicateCompany)
		}
		if admin == nil {
			return nil
		}
		if err := tx.Create(models.MembershipModelFromDomain(admin)).Error; err != nil {
			return translate(err, nil, debt.ErrAlreadyMember)
		}
		return nil
	})
}

func toCompanies(rows []models.CompanyModel) []debt.Company {
	out := make([]debt.Company, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormMembershipRepository implements debt.MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// FindByUser returns the membership of userID, or nil when the user is external
func (r *GormMembershipRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*debt.Membership, error) {
	var rows []models.MembershipModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// FindByCompany lists the members of a company, admins first
func (r *GormMembershipRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]debt.Membership, error) {
	var rows []models.MembershipModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("is_company_admin DESC, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]debt.Membership, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create stores a membership. A user already bound to a company yields ErrAlreadyMember.
func (r *GormMembershipRepository) Create(ctx context.Context, m *debt.Membership) error {
	return translate(r.db.WithContext(ctx).Create(models.MembershipModelFromDomain(m)).Error, nil, debt.ErrAlreadyMember)
}
