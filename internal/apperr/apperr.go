// Package apperr is the error taxonomy shared by every domain package and the
// HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthenticationRequired
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
)

func (k Kind) Code() string {
	switch k {
	case KindAuthenticationRequired:
		return "AUTHENTICATION_REQUIRED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}

func (k Kind) String() string {
	return k.Code()
}

// HTTPStatus maps a kind to its response status. Conflicts surface as 400,
// the same as validation failures.
func HTTPStatus(k Kind) int {
	switch k {
	case KindAuthenticationRequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind and a short user-facing message.
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

func (e *Error) ErrorKind() Kind {
	return e.Kind
}

// Kinded is implemented by domain errors that are not *Error but still belong
// to a kind, like state transition failures.
type Kinded interface {
	error
	ErrorKind() Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Unauthenticated(message string) *Error { return New(KindAuthenticationRequired, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Validation(message string) *Error      { return New(KindValidation, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// Internal wraps an unexpected failure. The message never reaches clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of the first classified error in the chain.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return "Internal server error"
		}
		return e.Message
	}
	var k Kinded
	if errors.As(err, &k) && k.ErrorKind() != KindInternal {
		return k.Error()
	}
	return "Internal server error"
}
