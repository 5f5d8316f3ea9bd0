// Package apperror defines the error taxonomy shared by the service,
// websocket and HTTP layers. Handlers map kinds to HTTP status codes;
// everything else matches on kind with errors.As.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	Unknown Kind = iota
	// NotFound means a referenced user/conversation/message is absent.
	NotFound
	// DuplicateUsername means the userName is already taken.
	DuplicateUsername
	// Validation means a required field is missing or malformed.
	Validation
	// Unauthorized means credentials are bad or missing.
	Unauthorized
	// Forbidden means the caller is authenticated but not permitted,
	// e.g. not a member of the target conversation.
	Forbidden
	// Conflict means the operation would duplicate existing state.
	Conflict
	// Persistence means the underlying storage failed.
	Persistence
	// Decryption means stored ciphertext failed authentication-tag
	// verification; tampered data is never returned as plaintext.
	Decryption
)

// Error is the application error type. It wraps an optional cause so
// errors.Is/errors.As keep working through it.
type Error struct {
	Kind    Kind
	Message string
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

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind with an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusCode maps the error kind to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case NotFound:
		return http.StatusNotFound
	case DuplicateUsername, Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
