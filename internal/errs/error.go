package errs

import (
	"errors"
)

var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("booking not found")
	// ErrValidation maps to 400: missing or ill-ordered fields.
	ErrValidation = errors.New("validation error")
	// ErrConflict maps to 409: overlapping dates for the same navlight set.
	ErrConflict = errors.New("navlight set is already booked for these dates")
	// ErrUnauthorized maps to 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConfiguration is returned when required operational config
	// (e.g. bank account number) is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrDelivery is returned when email sending or PDF rendering fails.
	// Stored state is never affected by a delivery failure.
	ErrDelivery = errors.New("delivery error")
)
