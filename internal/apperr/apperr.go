// Package apperr defines the error taxonomy shared by every layer of the
// service. Lower layers wrap causes with fmt.Errorf; the point that makes a
// business decision returns an *Error carrying the outcome Kind and the
// message shown to the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an outcome for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the optional underlying cause and is never shown.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports missing or malformed fields.
func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// Unauthenticated reports a missing, malformed, or expired credential.
func Unauthenticated(msg string, cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg, Err: cause}
}

// Forbidden reports an authenticated caller without sufficient rights.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound reports a missing entity or collaborator entry.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict reports a duplicate registration or invitation.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Dependency reports a failed side effect, such as an email send, that
// blocked the operation.
func Dependency(msg string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the client-facing message of err, or fallback when err
// is not classified.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
