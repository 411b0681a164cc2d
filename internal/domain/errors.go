package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a write with a colliding id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnsupportedField signals a query key the translator refuses.
	ErrUnsupportedField = errors.New("unsupported field")
	// ErrInvalidSort signals a malformed or unresolvable sort spec.
	ErrInvalidSort = errors.New("invalid sort")
	// ErrInvalidPage signals a page number below 1.
	ErrInvalidPage = errors.New("invalid page")
)

// AlreadyExistsError wraps ErrAlreadyExists with the colliding id.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("resource %q %s, use update instead", e.ID, ErrAlreadyExists.Error())
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// NotFoundError wraps ErrNotFound with the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q %s", e.ID, ErrNotFound.Error())
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnsupportedFieldError wraps ErrUnsupportedField with the offending key.
type UnsupportedFieldError struct {
	Field string
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("%s: the key %q is not supported", ErrUnsupportedField.Error(), e.Field)
}

func (e *UnsupportedFieldError) Unwrap() error { return ErrUnsupportedField }

// InvalidSortError wraps ErrInvalidSort with the whole rejected sort spec.
type InvalidSortError struct {
	Sort string
	Err  error
}

func (e *InvalidSortError) Error() string {
	msg := fmt.Sprintf("%s: sort %s does not have a valid format", ErrInvalidSort.Error(), e.Sort)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the lookup failure.
func (e *InvalidSortError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidSort}
	}
	return []error{ErrInvalidSort, e.Err}
}

// InvalidPageError wraps ErrInvalidPage with the rejected page number.
type InvalidPageError struct {
	Page int
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("%s: page value %d is invalid, pages start at 1", ErrInvalidPage.Error(), e.Page)
}

func (e *InvalidPageError) Unwrap() error { return ErrInvalidPage }
