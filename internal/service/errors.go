package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the services. Handlers map these to HTTP statuses
// with errors.Is; absent resource (ErrNotFound) and unauthorized actor
// (ErrForbidden) are distinct outcomes and must stay that way.
var (
	ErrEmptyCollection       = errors.New("collection must not be empty")
	ErrDuplicateItem         = errors.New("duplicate item")
	ErrUnknownIngredient     = errors.New("ingredient does not exist")
	ErrUnknownTag            = errors.New("tag does not exist")
	ErrInvalidAmount         = errors.New("amount must be at least 1")
	ErrDuplicateBookmark     = errors.New("recipe already added")
	ErrDuplicateSubscription = errors.New("already subscribed to this author")
	ErrSelfSubscription      = errors.New("cannot subscribe to yourself")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
)

// ValidationError tags a validation failure with the input field it came
// from, so callers can surface structured, field-keyed messages.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
