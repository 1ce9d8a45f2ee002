package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, client-visible classification of a failure.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeInvalidState    ErrorCode = "INVALID_STATE"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeInfrastructure  ErrorCode = "INFRASTRUCTURE_ERROR"
)

// Error carries a code, a human message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BusinessError reports whether the failure is an expected outcome of the
// request rather than a fault of the system.
func (e *Error) BusinessError() bool {
	return e.Code != CodeInfrastructure
}

// Is matches sentinels by code, so errors.Is(err, ErrNotFound) holds for any
// NOT_FOUND error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == e.Code
}

var (
	ErrValidation      = &Error{Code: CodeValidation}
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrConflict        = &Error{Code: CodeConflict}
	ErrInvalidState    = &Error{Code: CodeInvalidState}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrForbidden       = &Error{Code: CodeForbidden}
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated}
	ErrInfrastructure  = &Error{Code: CodeInfrastructure}
)

func NewValidationError(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateError(format string, args ...any) error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidArgumentError(format string, args ...any) error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NewForbiddenError(format string, args ...any) error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// NewInfrastructureError wraps a store or gateway failure. Callers may retry these.
func NewInfrastructureError(op string, err error) error {
	return &Error{Code: CodeInfrastructure, Message: op, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInfrastructure for anything unclassified.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInfrastructure
}

// MessageOf returns the human message of the first *Error in err's chain.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "internal server error"
}

// IsRetryable reports whether a caller may retry the operation with backoff.
func IsRetryable(err error) bool {
	return err != nil && CodeOf(err) == CodeInfrastructure
}
