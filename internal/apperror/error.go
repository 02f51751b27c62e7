// Package apperror provides the typed errors every layer returns and the
// fiber error handler that renders them.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInternal          = "INTERNAL_ERROR"
	CodeStoreFailure      = "STORE_FAILURE"
	CodeAggregationFailed = "AGGREGATION_FAILED"

	CodeValidation = "VALIDATION_ERROR"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	CodeNotFound = "NOT_FOUND"

	CodeConflict          = "CONFLICT"
	CodeDuplicate         = "DUPLICATE_ENTRY"
	CodeSheetFinalized    = "SHEET_FINALIZED"
	CodeInvalidTransition = "INVALID_TRANSITION"
)

// AppError is the error type returned by services and repositories.
type AppError struct {
	// Code is a machine-readable identifier
	Code string `json:"code"`

	Message string `json:"message"`

	// Details carries field errors or the entity/id of a missing record
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int `json:"-"`

	// Err is the cause; never rendered to clients
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewFieldValidation creates a validation error for a single field (400)
func NewFieldValidation(field, rule, message string) *AppError {
	return NewValidation(message).WithDetail(field, rule)
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewSheetFinalized is returned for any child-record write on a finalized sheet.
func NewSheetFinalized(sheetID string) *AppError {
	return &AppError{
		Code:       CodeSheetFinalized,
		Message:    "Stock sheet is finalized; reopen it before editing records",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"stock_sheet_id": sheetID},
	}
}

// NewInvalidTransition is returned when a status change does not apply to the current state.
func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Cannot move stock sheet from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"from": from, "to": to},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStoreFailure wraps a failed read or write against the database.
func NewStoreFailure(op string, err error) *AppError {
	return &AppError{
		Code:       CodeStoreFailure,
		Message:    "The data store could not complete the request",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"operation": op},
		Err:        err,
	}
}

// NewAggregationFailed is returned when any input of a derived report could not be loaded.
func NewAggregationFailed(report string, err error) *AppError {
	return &AppError{
		Code:       CodeAggregationFailed,
		Message:    fmt.Sprintf("Could not build %s", report),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"report": report},
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helpers ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
