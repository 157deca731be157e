package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors by how a caller can recover from them
type ErrorKind string

const (
	// KindValidation means malformed input; the caller must correct it
	KindValidation ErrorKind = "VALIDATION"
	// KindConflict means the current state forbids the operation; re-read and retry or report
	KindConflict ErrorKind = "CONFLICT"
	// KindNotFound means a referenced entity does not exist
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindFailure means an unexpected or system-level failure
	KindFailure ErrorKind = "FAILURE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewDomainError creates a new domain error of kind Conflict
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindConflict,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a domain error for malformed input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewConflictError creates a domain error for a state or version conflict
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewNotFoundError creates a domain error for a missing entity
func NewNotFoundError(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

// NewFailureError creates a domain error for a system-level failure
func NewFailureError(code, message string) *DomainError {
	return &DomainError{Kind: KindFailure, Code: code, Message: message}
}

// KindOf classifies err. Errors that are not domain errors are failures.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindFailure
}

// IsRetryable reports whether err is an optimistic concurrency conflict
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// Common domain errors
var (
	ErrNotFound            = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewConflictError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidQuantity     = NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	ErrConcurrencyConflict = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewConflictError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewConflictError("INSUFFICIENT_STOCK", "Insufficient stock available")
)
