package dto

import (
	"errors"
	"net/http"

	"github.com/dividas/backend/internal/domain/shared"
)

// Transport level error codes
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Domain codes
// not listed here fall back to the status of their error kind.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:  http.StatusTooManyRequests,

	// Business rules the input was well formed for -> 422
	"PAYMENT_EXCEEDS_BALANCE": http.StatusUnprocessableEntity,
	"FUTURE_PAYMENT_DATE":     http.StatusUnprocessableEntity,
	"INVALID_TRANSITION":      http.StatusUnprocessableEntity,
	"INVALID_STATE":           http.StatusUnprocessableEntity,
	"DEBT_CANCELLED":          http.StatusUnprocessableEntity,
	"COMPANY_INACTIVE":        http.StatusUnprocessableEntity,
	"NO_CHANGES":              http.StatusUnprocessableEntity,
}

var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:    http.StatusBadRequest,
	shared.KindAuthorization: http.StatusForbidden,
	shared.KindNotFound:      http.StatusNotFound,
	shared.KindConflict:      http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForError resolves the HTTP status, code and message for err. Errors
// that are not domain errors become a 500 with a generic message.
func StatusForError(err error) (int, string, string) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
	}
	if status, ok := ErrorCodeHTTPStatus[de.Code]; ok {
		return status, de.Code, de.Message
	}
	if status, ok := kindHTTPStatus[de.Kind]; ok {
		return status, de.Code, de.Message
	}
	return http.StatusInternalServerError, de.Code, de.Message
}
