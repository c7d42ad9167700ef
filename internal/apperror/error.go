// Package apperror defines the error taxonomy shared by the view engine.
// Every rejection surfaced to a caller is an *AppError so the presentation layer
// can switch on Code without string matching.
package apperror

import (
	"errors"
	"fmt"
)

const (
	// CodeValidation marks a rejected mutation; state is left unchanged.
	CodeValidation = "VALIDATION_ERROR"

	// CodePermission marks a non-owner mutation of a saved view.
	CodePermission = "PERMISSION_DENIED"

	// CodeNotFound marks a dangling reference (deleted view, unknown id).
	CodeNotFound = "NOT_FOUND"

	// CodeStaleData marks a discarded async result or an outdated cached value.
	CodeStaleData = "STALE_DATA"

	// CodeTransport marks an unreachable persistence gateway.
	CodeTransport = "TRANSPORT_ERROR"
)

// AppError is the standard error type of the engine.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable description of the violated rule
	Message string `json:"message"`

	// Details carries structured context (rule name, ids, limits)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
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

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error naming the violated rule.
func NewValidation(rule, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Details: map[string]any{"rule": rule},
	}
}

// NewPermission creates a permission error. The message always offers cloning,
// which is permitted regardless of visibility.
func NewPermission(action, viewID string) *AppError {
	return &AppError{
		Code:    CodePermission,
		Message: fmt.Sprintf("only the owner can %s this view; clone it instead to keep your changes", action),
		Details: map[string]any{"action": action, "view_id": viewID},
	}
}

// NewNotFound creates a not found error.
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewStaleData creates an error for a superseded or expired result.
func NewStaleData(message string) *AppError {
	return &AppError{
		Code:    CodeStaleData,
		Message: message,
	}
}

// NewTransport wraps a persistence failure. Callers keep local state and may retry.
func NewTransport(op string, err error) *AppError {
	return &AppError{
		Code:    CodeTransport,
		Message: fmt.Sprintf("%s failed: view store unreachable", op),
		Details: map[string]any{"op": op},
		Err:     err,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsValidation(err error) bool { return hasCode(err, CodeValidation) }
func IsPermission(err error) bool { return hasCode(err, CodePermission) }
func IsNotFound(err error) bool   { return hasCode(err, CodeNotFound) }
func IsStaleData(err error) bool  { return hasCode(err, CodeStaleData) }
func IsTransport(err error) bool  { return hasCode(err, CodeTransport) }

// Rule returns the rule detail of a validation error, or "".
func Rule(err error) string {
	if appErr, ok := AsAppError(err); ok {
		if rule, ok := appErr.Details["rule"].(string); ok {
			return rule
		}
	}
	return ""
}
