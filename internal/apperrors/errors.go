// Package apperrors defines the domain error taxonomy shared by handlers and
// services. Every error carries the HTTP status it maps to, so the response
// layer can translate any domain failure into the standard envelope without
// inspecting its origin.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error with an associated HTTP status.
type Error struct {
	Status  int
	Message string
	Details []string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches an underlying cause while keeping status and message.
func (e *Error) Wrap(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, Details: e.Details, Err: err}
}

// Validation reports malformed or missing input.
func Validation(message string, details ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Details: details}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// Unauthorized reports a missing, invalid, expired, or reused credential.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Internal reports an unexpected persistence or infrastructure failure. The
// message is what callers see; the wrapped cause stays in the logs.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// From converts any error into a domain error, downgrading unknown failures
// to a generic 500 so internals never leak to clients.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
