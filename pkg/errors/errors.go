package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound                  = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden                 = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized              = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict                  = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation                = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal                  = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrNumberAllocationExhausted = New("NUMBER_ALLOCATION_EXHAUSTED", http.StatusConflict, "no free invoice number")
	ErrInvalidStatusTransition   = New("INVALID_STATUS_TRANSITION", http.StatusConflict, "invoice status transition not allowed")
	ErrGenerationInProgress      = New("GENERATION_IN_PROGRESS", http.StatusConflict, "invoice generation already running for this period")
	ErrAlreadyCheckedIn          = New("ALREADY_CHECKED_IN", http.StatusConflict, "staff member already checked in for this date")
)

// Is matches on Code so clones and wrapped copies of a predefined error compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
