// Package apperror defines the application error taxonomy and its HTTP mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is an unexpected store or crypto failure.
	KindInternal Kind = iota
	// KindValidation is malformed or missing input.
	KindValidation
	// KindConflict is a uniqueness violation.
	KindConflict
	// KindUnauthenticated is a missing, invalid or expired token, or bad credentials.
	KindUnauthenticated
	// KindForbidden means authenticated but not allowed to touch the resource.
	KindForbidden
	// KindNotFound means the resource or identity does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an application error carrying a kind, a machine-readable code and
// a client-safe message. Err holds the underlying cause and is never sent to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error kind.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates an Error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation creates a validation error with per-field details.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: message, Fields: fields}
}

// Conflict creates a conflict error.
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Unauthenticated creates an authentication error.
func Unauthenticated(code, message string) *Error {
	return New(KindUnauthenticated, code, message)
}

// Forbidden creates an authorization error.
func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

// NotFound creates a not-found error.
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Internal wraps an unexpected failure. The message is what the client sees.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternalError, Message: message, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
