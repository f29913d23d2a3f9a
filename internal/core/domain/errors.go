package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; every *Error unwraps to one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCriteria   = errors.New("invalid criteria")
	ErrDataInconsistency = errors.New("data inconsistency")
)

// Error carries a kind from the taxonomy above plus a message that is safe to
// show to API callers.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func Unauthorizedf(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

func InvalidInputf(format string, args ...any) error {
	return newError(ErrInvalidInput, format, args...)
}

func InvalidCriteriaf(format string, args ...any) error {
	return newError(ErrInvalidCriteria, format, args...)
}

func DataInconsistencyf(format string, args ...any) error {
	return newError(ErrDataInconsistency, format, args...)
}
