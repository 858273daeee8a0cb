package shared

import "errors"

// ErrorKind classifies a DomainError so callers can decide how to react
// (re-prompt, deny or retry) without inspecting codes.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindConflict      ErrorKind = "CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"-"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors.Is(err, ErrNotFound) holds for
// any error carrying the NOT_FOUND code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a validation-kind domain error with the given code.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

func NewAuthorizationError(code, message string) *DomainError {
	return &DomainError{Kind: KindAuthorization, Code: code, Message: message}
}

func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

// NewConflictError creates an error for a lost race or duplicate request.
// Conflicts are retryable.
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewConflictError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewAuthorizationError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewValidationError("INVALID_STATE", "Operation not allowed in current state")
)

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func IsValidation(err error) bool    { return hasKind(err, KindValidation) }
func IsAuthorization(err error) bool { return hasKind(err, KindAuthorization) }
func IsNotFound(err error) bool      { return hasKind(err, KindNotFound) }
func IsConflict(err error) bool      { return hasKind(err, KindConflict) }

func hasKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
