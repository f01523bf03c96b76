package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusConflict means the booking's status changed between the read
	// and the guarded write.
	ErrStatusConflict = errors.New("booking status changed concurrently")
)
