package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain error so transport layers can map it
// to a status code without inspecting message text.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeSoldOut      ErrorCode = "SOLD_OUT"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
)

// Error is the typed error returned by domain and application code.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewNotFoundError indicates the referenced entity does not exist.
func NewNotFoundError(resource, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewValidationError indicates an input failed a guard condition.
func NewValidationError(message string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message}
}

// NewInvalidStateError indicates a lifecycle transition was attempted
// from an incompatible state.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("invalid transition from %s to %s", from, to),
	}
}

// NewForbiddenError indicates the acting principal does not own the
// entity being mutated.
func NewForbiddenError(message string) *Error {
	return &Error{Code: ErrCodeForbidden, Message: message}
}

// NewConflictError indicates a concurrent modification lost the race.
func NewConflictError(message string) *Error {
	return &Error{Code: ErrCodeConflict, Message: message}
}

// NewSoldOutError indicates a hold was attempted against a spot with
// no remaining availability.
func NewSoldOutError(resource, id string) *Error {
	return &Error{
		Code:    ErrCodeSoldOut,
		Message: fmt.Sprintf("%s has no availability: %s", resource, id),
	}
}

// NewUnavailableError wraps a backend failure as retryable.
func NewUnavailableError(cause error) *Error {
	return &Error{
		Code:    ErrCodeUnavailable,
		Message: "backing store unavailable",
		cause:   cause,
	}
}

// CodeOf extracts the error code from err, or empty if err is not a
// domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsConflict reports whether err is a conflict domain error.
func IsConflict(err error) bool { return CodeOf(err) == ErrCodeConflict }

// IsSoldOut reports whether err is a sold-out domain error.
func IsSoldOut(err error) bool { return CodeOf(err) == ErrCodeSoldOut }
