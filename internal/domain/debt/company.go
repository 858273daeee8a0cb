package debt

import (
	"strings"
	"unicode/utf8"

	"github.com/dividas/backend/internal/domain/shared"
)

const (
	maxCompanyNameLength = 100
	maxTaxIDLength       = 18
	maxPhoneLength       = 15
)

// Company is a tenant that owns debts against clients.
type Company struct {
	shared.BaseEntity
	Name   string
	TaxID  string
	Phone  string
	Email  string
	Active bool
}

// CompanyData carries the editable fields of a company.
type CompanyData struct {
	Name  string
	TaxID string
	Phone string
	Email string
}

// NewCompany creates an active company.
func NewCompany(data CompanyData) (*Company, error) {
	c := &Company{
		BaseEntity: shared.NewBaseEntity(),
		Active:     true,
	}
	if err := c.apply(data); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Company) apply(data CompanyData) error {
	name := strings.TrimSpace(data.Name)
	if name == "" {
		return shared.NewValidationError("INVALID_COMPANY_NAME", "Company name is required")
	}
	if utf8.RuneCountInString(name) > maxCompanyNameLength {
		return shared.NewValidationError("INVALID_COMPANY_NAME", "Company name cannot exceed 100 characters")
	}
	taxID := strings.TrimSpace(data.TaxID)
	if len(taxID) > maxTaxIDLength {
		return shared.NewValidationError("INVALID_TAX_ID", "Tax id cannot exceed 18 characters")
	}
	phone := strings.TrimSpace(data.Phone)
	if len(phone) > maxPhoneLength {
		return shared.NewValidationError("INVALID_PHONE", "Phone cannot exceed 15 characters")
	}
	c.Name = name
	c.TaxID = taxID
	c.Phone = phone
	c.Email = strings.TrimSpace(data.Email)
	return nil
}
