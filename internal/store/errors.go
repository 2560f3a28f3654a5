package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a store error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is reports whether target matches this error by code and message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code && e.Message == t.Message
	}
	return false
}

// Sentinel errors.
var (
	ErrPictureNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "picture not found",
	}

	ErrTagNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "tag not found",
	}

	ErrCommentNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "comment not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}

	// ErrUnavailable marks a transient backend failure. The store does
	// not retry; callers may retry the whole operation.
	ErrUnavailable = &Error{
		Code:    http.StatusServiceUnavailable,
		Message: "datastore unavailable",
	}
)

// wrapBackendErr passes through store sentinels and wraps anything else
// as a transient backend failure.
func wrapBackendErr(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return ErrUnavailable.WithCause(err)
}
