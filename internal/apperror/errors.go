// Package apperror provides domain-specific error types for the roadmap app.
// These errors carry an HTTP status code and a user-facing message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// Anything that is not an AppError is treated as unexpected and reported as a
// 500 with the raw error text, which is acceptable for this internal tool.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusLocked is returned when the workbook is held by another program.
const StatusLocked = http.StatusLocked

// LockedMessage is the remediation text shown when the workbook file is
// locked.
func LockedMessage(file string) string {
	return file + " is locked by another application. Close it and try again."
}

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 400, 423, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "write_locked").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for common error types ---

// NewBadRequest creates a 400 error for validation failures: missing
// required fields, self-references, unknown ids, deleting a linked goal.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewLocked creates a 423 error for the workbook file held exclusively by
// another process. The message tells the user how to recover.
func NewLocked(file string, err error) *AppError {
	return &AppError{
		Code:     StatusLocked,
		Type:     "write_locked",
		Message:  LockedMessage(file),
		Internal: err,
	}
}

// NewUnexpected creates a 500 error whose message includes the raw error
// text so the person at the browser can report what went wrong.
func NewUnexpected(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  fmt.Sprintf("Unexpected: %v", err),
		Internal: err,
	}
}

// As converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; everything else becomes NewUnexpected.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewUnexpected(err)
}

// IsLocked reports whether err is (or wraps) a write-locked error.
func IsLocked(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == StatusLocked
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}
