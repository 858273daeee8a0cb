package debt

import "github.com/dividas/backend/internal/domain/shared"

var (
	ErrNotCompanyMember  = shared.NewAuthorizationError("NOT_COMPANY_MEMBER", "Actor is not a member of the debt's company")
	ErrMembershipNeeded  = shared.NewAuthorizationError("COMPANY_MEMBERSHIP_REQUIRED", "Operation requires a company membership")
	ErrClientNotVisible  = shared.NewAuthorizationError("CLIENT_NOT_VISIBLE", "Client has no active debts visible to this actor")
	ErrNotCompanyAdmin   = shared.NewAuthorizationError("NOT_COMPANY_ADMIN", "Operation requires company administrator rights")
	ErrInvalidAmount     = shared.NewValidationError("INVALID_AMOUNT", "Amount must be a positive value with at most two decimal places")
	ErrExceedsBalance    = shared.NewValidationError("PAYMENT_EXCEEDS_BALANCE", "Payment amount exceeds the current balance")
	ErrFuturePayment     = shared.NewValidationError("FUTURE_PAYMENT_DATE", "Payment date cannot be in the future")
	ErrInvalidDueDate    = shared.NewValidationError("INVALID_DUE_DATE", "Due date is required")
	ErrInvalidBalance    = shared.NewValidationError("INVALID_BALANCE", "Balance must be between zero and the original amount")
	ErrInvalidDocumentID = shared.NewValidationError("INVALID_DOCUMENT_ID", "Document id must have 11 digits")
	ErrInvalidTransition = shared.NewValidationError("INVALID_TRANSITION", "Status transition is not allowed")
	ErrDebtPaid          = shared.NewValidationError("INVALID_STATE", "Balance and status of a paid debt cannot be edited")
	ErrDebtCancelled     = shared.NewValidationError("DEBT_CANCELLED", "Payments cannot be registered on a cancelled debt")
	ErrNoChanges         = shared.NewValidationError("NO_CHANGES", "Edit does not change the debt")
	ErrCompanyInactive   = shared.NewValidationError("COMPANY_INACTIVE", "Company is not active")
	ErrEmptyQuery        = shared.NewValidationError("EMPTY_QUERY", "Search query is required")

	ErrDebtNotFound    = shared.NewNotFoundError("DEBT_NOT_FOUND", "Debt not found")
	ErrClientNotFound  = shared.NewNotFoundError("CLIENT_NOT_FOUND", "Client not found")
	ErrCompanyNotFound = shared.NewNotFoundError("COMPANY_NOT_FOUND", "Company not found")

	ErrConcurrentUpdate = shared.NewConflictError("CONCURRENCY_CONFLICT", "Debt was modified by another request, retry the operation")
	ErrDuplicateRequest = shared.NewConflictError("DUPLICATE_REQUEST", "Request with this idempotency key was already processed")
	ErrAlreadyMember    = shared.NewConflictError("ALREADY_MEMBER", "User already belongs to a company")
	ErrDuplicateCompany = shared.NewConflictError("COMPANY_ALREADY_EXISTS", "A company with this name or tax id already exists")
	ErrDuplicateClient  = shared.NewConflictError("CLIENT_ALREADY_EXISTS", "A client with this document id already exists")
)
