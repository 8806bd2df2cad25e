package dto

import (
	"net/http"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Transport-level error codes. Domain failures keep the codes of
// shared.DomainError unchanged.
const (
	// ErrCodeInternal is used for unexpected failures
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests (bad JSON, bad path ids)
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when no actor identifies the caller
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input -> 400
	shared.CodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,

	// Caller
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	shared.CodeForbidden: http.StatusForbidden,

	// Addressing -> 404
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeReferenceNotFound: http.StatusNotFound,

	// Conflicts -> 409
	shared.CodeContended:           http.StatusConflict,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	// Business rules -> 422
	shared.CodeInvalidStateTransition: http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:      http.StatusUnprocessableEntity,
	shared.CodeOverPayment:            http.StatusUnprocessableEntity,
	shared.CodeInsufficientBalance:    http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Operator intervention -> 500
	shared.CodeInvariantViolation: http.StatusInternalServerError,
	ErrCodeInternal:               http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether code is caused by the request rather than the server
func IsClientError(code string) bool {
	return GetHTTPStatus(code) < http.StatusInternalServerError
}
