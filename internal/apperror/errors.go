// Package apperror defines the error taxonomy shared by the habit core:
// validation failures, unknown ids and durable storage failures.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("habit not found")
	ErrStorage    = errors.New("storage error")
)

// Error carries the failed operation alongside its kind so callers can
// match with errors.Is(err, ErrNotFound) and still log a useful message.
type Error struct {
	Kind    error  // one of the sentinels above
	Op      string // e.g. "store.Create"
	Message string
	Err     error // underlying cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches either the kind or the wrapped cause.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && errors.Is(e.Kind, target)
}

func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, id string) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf("habit %q not found", id)}
}

func Storage(op string, err error) *Error {
	return &Error{Kind: ErrStorage, Op: op, Message: "persist failed", Err: err}
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
