// Package errs defines the error kinds shared by every layer of the engine.
//
// Domain packages declare their own sentinels with New so that callers can match
// either the precise sentinel or the broader kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotCancellable         = errors.New("not cancellable")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)

// Error is a message tagged with one of the kinds above.
type Error struct {
	kind error
	msg  string
}

// New returns a sentinel of the given kind.
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Kind reports the broad kind of the error.
func (e *Error) Kind() error { return e.kind }

// Wrapf annotates err with a formatted detail while keeping it matchable.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}

// Unavailable marks an infrastructure failure. Errors that already carry a kind
// are returned untouched.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// KindOf returns the kind sentinel err matches, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrValidation,
		ErrConflict,
		ErrInvalidStateTransition,
		ErrNotCancellable,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// HTTPStatus maps an error to the response status used by the HTTP adapter.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidStateTransition, ErrNotCancellable:
		return http.StatusUnprocessableEntity
	case ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
