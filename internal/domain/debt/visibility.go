package debt

import "github.com/google/uuid"

// VisibleAfterSearch applies the post-search filter to a candidate client's
// debts. A company actor keeps the client when any debt anywhere is open, or
// when one of its own company's debts is PAID or CANCELLED. An external actor
// keeps it only when any debt anywhere is open.
func VisibleAfterSearch(actor Actor, debts []Debt) bool {
	companyID, isCompany := CompanyOf(actor)
	for i := range debts {
		if debts[i].Status.IsOpen() {
			return true
		}
		if isCompany && debts[i].CompanyID == companyID {
			return true
		}
	}
	return false
}

// HasDebtWith reports whether any debt belongs to companyID
func HasDebtWith(debts []Debt, companyID uuid.UUID) bool {
	for i := range debts {
		if debts[i].CompanyID == companyID {
			return true
		}
	}
	return false
}

// DetailDebts projects a client's debts for its detail view. A company actor
// sees its own company's debts. An external actor is refused unless the client
// has an ACTIVE debt, and then sees only ACTIVE debts from every company.
func DetailDebts(actor Actor, debts []Debt) ([]Debt, error) {
	out := make([]Debt, 0, len(debts))
	if companyID, ok := CompanyOf(actor); ok {
		for i := range debts {
			if debts[i].CompanyID == companyID {
				out = append(out, debts[i])
			}
		}
		return out, nil
	}
	for i := range debts {
		if debts[i].Status == StatusActive {
			out = append(out, debts[i])
		}
	}
	if len(out) == 0 {
		return nil, ErrClientNotVisible
	}
	return out, nil
}
