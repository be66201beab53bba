// Package errors defines the sentinel errors shared by the synchronization and
// indexing pipelines and a small wrapper that attaches an operation name.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrFetch         = errors.New("fetch failed")
	ErrComicNotFound = errors.New("comic not found")
	ErrSchema        = errors.New("schema setup failed")
	ErrPersistence   = errors.New("persistence failed")
	ErrComicExists   = errors.New("comic already exists")
	ErrEmptyTermSet  = errors.New("no indexable terms")
	ErrLocked        = errors.New("another run holds the lock")
	ErrInvalidInput  = errors.New("invalid input")
)

// AppError ties a sentinel to the operation that produced it.
type AppError struct {
	Err     error
	Op      string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Err.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func New(sentinel error, op string, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: message,
	}
}

func Newf(sentinel error, op string, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches sentinel and op to cause. A nil cause yields nil.
func Wrap(sentinel error, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &AppError{
		Err:   sentinel,
		Op:    op,
		Cause: cause,
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
