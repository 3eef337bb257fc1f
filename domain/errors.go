package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes service errors for transport mapping.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindValidation   ErrorKind = "validation"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is a user-visible service error. Message is safe to return to
// callers; Err carries internal detail for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError creates an error of kind with a caller-safe message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches err as internal detail.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

var (
	// ErrRecordNotFound is returned by storage lookups that match nothing.
	ErrRecordNotFound = errors.New("record not found")

	ErrNotFound     = NewError(KindNotFound, "not found")
	ErrConflict     = NewError(KindConflict, "conflict")
	ErrValidation   = NewError(KindValidation, "validation failed")
	ErrForbidden    = NewError(KindForbidden, "forbidden")
	ErrUnauthorized = NewError(KindUnauthorized, "unauthorized")
)

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
