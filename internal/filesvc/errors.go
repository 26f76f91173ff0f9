package filesvc

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/filesvc/internal/policy"
)

// Kind classifies every failure the service returns. The HTTP layer maps
// kinds (and, for validation, reason codes) to status codes.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindStorage    Kind = "storage"
	KindMetadata   Kind = "metadata"
	KindRead       Kind = "read_failed"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("file not found")
	ErrForbidden  = errors.New("not allowed to modify this file")
	ErrStorage    = errors.New("storage unavailable")
	ErrMetadata   = errors.New("metadata store unavailable")
	ErrRead       = errors.New("failed to read upload stream")

	ErrInvalidConfig = errors.New("invalid service configuration")
)

var kindErrors = map[Kind]error{
	KindValidation: ErrValidation,
	KindNotFound:   ErrNotFound,
	KindForbidden:  ErrForbidden,
	KindStorage:    ErrStorage,
	KindMetadata:   ErrMetadata,
	KindRead:       ErrRead,
}

// Error is the only error type returned by Service methods. The collaborator
// error is kept for logging through Cause and is deliberately not unwrapped,
// so callers match on the Err* values of this package only.
type Error struct {
	Kind      Kind
	Violation *policy.Violation
	cause     error
}

func (e *Error) Error() string {
	switch {
	case e.Violation != nil:
		return e.Violation.Error()
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", kindErrors[e.Kind], e.cause)
	default:
		return kindErrors[e.Kind].Error()
	}
}

// Is matches the sentinel for the error kind.
func (e *Error) Is(target error) bool {
	return kindErrors[e.Kind] == target
}

// Cause returns the underlying collaborator error, if any.
func (e *Error) Cause() error { return e.cause }

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindStorage || e.Kind == KindMetadata
}

func invalid(v *policy.Violation) *Error {
	return &Error{Kind: KindValidation, Violation: v}
}

func fail(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// AsError extracts the service error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
