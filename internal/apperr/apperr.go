// Package apperr holds the error taxonomy shared by the repositories,
// the services and the HTTP handlers.
//
// Business-rule failures (already sold, invalid state, invalid transition)
// are expected outcomes and are returned as plain values; callers match them
// with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadySold       = errors.New("unit already sold")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDuplicate         = errors.New("duplicate")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError reports malformed caller input. Its message is safe to
// show to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a *ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a storage-layer failure. Error() only names the
// operation so driver messages never reach the user; Unwrap keeps the cause
// for logging.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s", e.Op)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err as a *PersistenceError unless it already carries one
// of the taxonomy sentinels.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsBusiness(err) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// NotFound returns an ErrNotFound wrapped with the entity and id.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// IsBusiness reports whether err is one of the expected, non-retryable
// outcomes rather than an infrastructure failure.
func IsBusiness(err error) bool {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadySold),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrDuplicate):
		return true
	}
	return false
}
