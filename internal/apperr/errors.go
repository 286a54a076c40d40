// Package apperr defines the error kinds returned by the service layer and
// their HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is an error with a kind and a message that is safe to show to clients.
// Err holds the underlying cause and is never sent over the wire.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed, missing or duplicate input.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Auth reports missing or invalid credentials or session.
func Auth(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

// Forbidden reports a guest attempting an owner-only action.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound reports an absent or not-owned resource.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Internal wraps an unexpected failure. msg is the generic client message.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Public returns the status code and client-safe message for err.
// Errors that are not *Error become a generic 500.
func Public(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Status(), e.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
