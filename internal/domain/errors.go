package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrUnauthenticated means the caller has no identity (guest session).
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden means the caller is known but may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound = errors.New("not found")

	// ErrAlreadyCancelled is returned when cancelling or paying for a cancelled booking.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrConflict is returned when a uniqueness race was lost.
	ErrConflict = errors.New("conflict")

	ErrMissingFields = errors.New("missing required fields")

	// ErrBookingRequired is returned when a payment references an unknown ticket
	// and carries no booking details to create it from.
	ErrBookingRequired = errors.New("booking details required for new booking")

	// ErrStorageFailure means the backing store aborted the transaction.
	// The whole operation may be retried.
	ErrStorageFailure = errors.New("storage failure")
)

// FieldError describes invalid or missing caller input.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *FieldError) Unwrap() error { return ErrMissingFields }

func Missing(field string) error {
	return &FieldError{Field: field}
}

func Invalid(field, msg string) error {
	return &FieldError{Field: field, Msg: msg}
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StorageError wraps a driver error that aborted a transaction.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetryable reports whether repeating the whole operation may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}

// IsClientError reports whether the error is caused by the caller's input or rights.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrBookingRequired)
}
