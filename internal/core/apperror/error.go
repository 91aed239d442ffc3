// Package apperror provides structured error handling for the platform.
// All business errors must use AppError so the HTTP layer can render
// consistent machine-readable responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Each code is stable and machine-readable; clients branch on
// the code, never on the message text.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeInvalidDiscount = "INVALID_DISCOUNT"
	CodeNegativeTotal   = "NEGATIVE_TOTAL"

	// Business rule violations (422)
	CodeItemLocked        = "ITEM_LOCKED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodePolicyViolation   = "POLICY_VIOLATION"

	// Concurrency (409 / 503)
	CodeStaleVersion    = "STALE_VERSION"
	CodeLockTimeout     = "LOCK_TIMEOUT"
	CodeDuplicateNumber = "DUPLICATE_NUMBER"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details for API
// responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, ids, limits)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Transient marks errors that are safe for the caller to retry as-is
	// (lock timeouts). Permanent errors require a changed request.
	Transient bool `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Retryable reports whether the caller may retry the same request.
func (e *AppError) Retryable() bool {
	return e.Transient
}

// --- Factory functions ---

// NewValidation creates a generic validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity is returned when a line quantity is zero or negative.
func NewInvalidQuantity(quantity string) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    "Quantity must be positive",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"quantity": quantity},
	}
}

// NewQuantityExceeded is returned when recorded production or dispatch would
// go past what the line allows.
func NewQuantityExceeded(quantity, remaining string) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    "Quantity exceeds the remaining line quantity",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"quantity": quantity, "remaining": remaining},
	}
}

// NewInvalidDiscount is returned when a discount exceeds the discountable base.
func NewInvalidDiscount(discount, base string) *AppError {
	return &AppError{
		Code:       CodeInvalidDiscount,
		Message:    "Discount exceeds the discountable amount",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"discount": discount, "base": base},
	}
}

// NewNegativeTotal is returned when aggregation would produce a negative
// grand total and the tenant policy does not allow clamping to zero.
func NewNegativeTotal(rawTotal string) *AppError {
	return &AppError{
		Code:       CodeNegativeTotal,
		Message:    "Document total would be negative",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"raw_total": rawTotal},
	}
}

// NewItemLocked is returned on price-field edits to a non-open line item.
func NewItemLocked(lineID any, status string) *AppError {
	return &AppError{
		Code:       CodeItemLocked,
		Message:    "Line item is locked for pricing changes",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"line_id": lineID, "status": status},
	}
}

// NewInvalidTransition is returned on a status move outside the allowed graph.
func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Transition from %s to %s is not allowed", from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"from": from, "to": to},
	}
}

// NewPolicyViolation is returned when a tenant pricing policy rejects a document.
func NewPolicyViolation(rule string) *AppError {
	return &AppError{
		Code:       CodePolicyViolation,
		Message:    "Document violates tenant pricing policy",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"rule": rule},
	}
}

// NewStaleVersion creates an optimistic locking error (409).
// The caller must re-read the document and retry with the fresh version.
func NewStaleVersion(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeStaleVersion,
		Message:    "Record was modified by another user. Refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewLockTimeout is returned when the tenant sequence row lock cannot be
// acquired within the configured wait. Safe to retry.
func NewLockTimeout(resource string) *AppError {
	return &AppError{
		Code:       CodeLockTimeout,
		Message:    "Could not acquire lock in time. Retry the request.",
		HTTPStatus: http.StatusServiceUnavailable,
		Transient:  true,
		Details:    map[string]any{"resource": resource},
	}
}

// NewDuplicateNumber surfaces a (tenant, type, number) uniqueness violation.
// This is a defense-in-depth signal: the numbering service should make it
// unreachable.
func NewDuplicateNumber(docType string, number any) *AppError {
	return &AppError{
		Code:       CodeDuplicateNumber,
		Message:    "Document number already exists",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"doc_type": docType, "number": number},
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err carries the given error code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsStaleVersion checks if error is CodeStaleVersion.
func IsStaleVersion(err error) bool {
	return IsCode(err, CodeStaleVersion)
}

// IsRetryable reports whether the caller may safely retry the request.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable()
	}
	return false
}
