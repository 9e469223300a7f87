// Package apperr defines the error kinds shared by the store, the services
// and the HTTP handlers. Handlers switch on the kind to pick the notice
// severity and the redirect target.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindAuthorization
	KindNotFound
	KindUnsupportedMedia
	KindStorageUnavailable
	KindIO
)

// String returns the kind name used in logs and metrics labels
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindUnsupportedMedia:
		return "unsupported_media"
	case KindStorageUnavailable:
		return "storage_unavailable"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is an error carrying a Kind and a message that is safe to show to users
type Error struct {
	Kind    Kind
	Message string // user-facing text
	Err     error  // underlying cause, never shown to users
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

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

func Auth(message string) *Error { return New(KindAuth, message) }

func Authorization(message string) *Error { return New(KindAuthorization, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func UnsupportedMedia(message string) *Error { return New(KindUnsupportedMedia, message) }

// Storage marks err as a store failure (unreachable, closed, timed out)
func Storage(err error) *Error {
	return Wrap(KindStorageUnavailable, "Database connection error", err)
}

// IO marks err as a file write/delete failure
func IO(message string, err error) *Error {
	return Wrap(KindIO, message, err)
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of err, or fallback when err
// carries none
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
