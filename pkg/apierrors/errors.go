// Package apierrors defines the error taxonomy shared by the repositories, the
// authentication gate and the HTTP layer.
//
// Repositories and the auth package return *Error values; the api package
// translates them into an HTTP status and either a plain or a JSON:API body.
//
//	if errors.Is(err, apierrors.ErrNotFound) {
//		...
//	}
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for translation at the HTTP boundary
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindValidation
	KindAuthenticationFailed
	KindServiceUnavailable
	KindRateLimited
	KindMethodNotAllowed
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindRateLimited:
		return "rate_limited"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthenticationFailed:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Title returns the human-readable title used in JSON:API error objects
func (k Kind) Title() string {
	switch k {
	case KindNotFound:
		return "Not Found"
	case KindConflict:
		return "Conflict"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindValidation:
		return "Validation Error"
	case KindAuthenticationFailed:
		return "Authentication Error"
	case KindServiceUnavailable:
		return "Service Unavailable"
	case KindRateLimited:
		return "Too Many Requests"
	case KindMethodNotAllowed:
		return "Method Not Allowed"
	default:
		return "Internal Server Error"
	}
}

// FieldError describes a single invalid input field
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Error is a classified error with a user-facing detail message
type Error struct {
	Kind   Kind
	Detail string
	Fields []FieldError
	Err    error
}

// Sentinel values for errors.Is comparisons. Only the Kind is compared.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrConflict             = &Error{Kind: KindConflict}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed}
	ErrServiceUnavailable   = &Error{Kind: KindServiceUnavailable}
	ErrRateLimited          = &Error{Kind: KindRateLimited}
)

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Kind.Title()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound creates a not-found error
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Detail: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error
func Unauthorized(detail string) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

// Forbidden creates a forbidden error
func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

// AuthenticationFailed creates a login failure error
func AuthenticationFailed(detail string) *Error {
	return &Error{Kind: KindAuthenticationFailed, Detail: detail}
}

// Unavailable creates a service-unavailable error wrapping the cause
func Unavailable(detail string, err error) *Error {
	return &Error{Kind: KindServiceUnavailable, Detail: detail, Err: err}
}

// RateLimited creates a too-many-requests error
func RateLimited(detail string) *Error {
	return &Error{Kind: KindRateLimited, Detail: detail}
}

// Internal wraps an unexpected failure
func Internal(detail string, err error) *Error {
	return &Error{Kind: KindInternal, Detail: detail, Err: err}
}

// Validation creates a validation error from one or more field errors
func Validation(fields ...FieldError) *Error {
	detail := "Validation error"
	if len(fields) == 1 {
		detail = fields[0].Msg
	}
	return &Error{Kind: KindValidation, Detail: detail, Fields: fields}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err, wrapping unclassified errors as internal
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("Internal server error", err)
}
