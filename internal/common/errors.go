package common

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind classifies an AppError for boundary mapping (HTTP status, logging).
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindTransport  Kind = "TRANSPORT" // network-level failure reaching a dependency
	KindUpstream   Kind = "UPSTREAM"  // dependency answered with an error
	KindInternal   Kind = "INTERNAL"
)

// AppError represents application-specific errors
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflicting state")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// Error constructors
func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func ValidationError(message string) error {
	return NewAppError(KindValidation, message, ErrInvalidInput)
}

func ValidationErrorf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

func NotFoundError(message string) error {
	return NewAppError(KindNotFound, message, ErrNotFound)
}

func ConflictError(message string) error {
	return NewAppError(KindConflict, message, ErrConflict)
}

func InternalError(message string) error {
	return NewAppError(KindInternal, message, ErrInternal)
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

func TransportError(message string, cause error) error {
	return NewAppError(KindTransport, message, cause)
}

func UpstreamError(message string, cause error) error {
	return NewAppError(KindUpstream, message, cause)
}

// KindOf returns the Kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Truncate bounds a string to max runes, appending an ellipsis when cut.
// Persisted error messages go through this so a huge upstream body cannot
// bloat a status record.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
