package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error codes shared by every bounded context
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeContended              = "CONTENDED"
	CodeReferenceNotFound      = "REFERENCE_NOT_FOUND"
	CodeOverPayment            = "OVER_PAYMENT"
	CodeInvariantViolation     = "INVARIANT_VIOLATION"
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeForbidden              = "FORBIDDEN"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) works on wrapped errors.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error carrying details
func (e *DomainError) WithDetails(details any) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrContended           = NewDomainError(CodeContended, "Resource is locked by another operation, retry later")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInsufficientBalance = NewDomainError(CodeInsufficientBalance, "Insufficient balance available")
	ErrOverPayment         = NewDomainError(CodeOverPayment, "Payment exceeds balance due")
	ErrInvariantViolation  = NewDomainError(CodeInvariantViolation, "Ledger invariant violated")
	ErrReferenceNotFound   = NewDomainError(CodeReferenceNotFound, "Referenced entity not found")
)

// ErrorCode extracts the domain error code from err, or "" if err is not a DomainError
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsContended reports whether err means the caller may retry
func IsContended(err error) bool {
	code := ErrorCode(err)
	return code == CodeContended || code == CodeConcurrencyConflict
}

// NewValidationError creates a VALIDATION_ERROR
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewInvalidTransitionError creates an INVALID_STATE_TRANSITION error for an entity
func NewInvalidTransitionError(entity string, from, to any) *DomainError {
	return &DomainError{
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("Cannot move %s from %v to %v", entity, from, to),
		Details: map[string]any{"entity": entity, "from": fmt.Sprint(from), "to": fmt.Sprint(to)},
	}
}

// NewNotFoundError creates a NOT_FOUND error for the addressed entity
func NewNotFoundError(entity string, id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewReferenceNotFoundError creates a REFERENCE_NOT_FOUND error for a linked entity
func NewReferenceNotFoundError(entity string, id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    CodeReferenceNotFound,
		Message: fmt.Sprintf("Referenced %s %s does not exist", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewInvariantViolationError creates an INVARIANT_VIOLATION error
func NewInvariantViolationError(message string, details any) *DomainError {
	return &DomainError{Code: CodeInvariantViolation, Message: message, Details: details}
}

// NewOverPaymentError creates an OVER_PAYMENT error
func NewOverPaymentError(amount, balanceDue decimal.Decimal) *DomainError {
	return &DomainError{
		Code:    CodeOverPayment,
		Message: fmt.Sprintf("Payment %s exceeds balance due %s", amount.String(), balanceDue.String()),
		Details: map[string]any{"amount": amount, "balance_due": balanceDue},
	}
}

// StockShortfall describes one product that could not be covered
type StockShortfall struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// NewStockShortfall builds a shortfall entry
func NewStockShortfall(productID, warehouseID uuid.UUID, requested, available decimal.Decimal) StockShortfall {
	return StockShortfall{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Requested:   requested,
		Available:   available,
		Shortfall:   requested.Sub(available),
	}
}

// NewInsufficientStockError creates an INSUFFICIENT_STOCK error listing every shortfall
func NewInsufficientStockError(shortfalls ...StockShortfall) *DomainError {
	msg := "Insufficient stock available"
	if len(shortfalls) == 1 {
		s := shortfalls[0]
		msg = fmt.Sprintf("Insufficient stock for product %s: requested %s, available %s",
			s.ProductID, s.Requested.String(), s.Available.String())
	} else if len(shortfalls) > 1 {
		msg = fmt.Sprintf("Insufficient stock for %d products", len(shortfalls))
	}
	return &DomainError{Code: CodeInsufficientStock, Message: msg, Details: shortfalls}
}

// Shortfalls returns the shortfall list carried by an INSUFFICIENT_STOCK error
func Shortfalls(err error) []StockShortfall {
	var de *DomainError
	if !errors.As(err, &de) || de.Code != CodeInsufficientStock {
		return nil
	}
	s, _ := de.Details.([]StockShortfall)
	return s
}
