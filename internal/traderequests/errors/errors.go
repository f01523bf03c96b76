package errors

import "errors"

var (
	ErrNotFound = errors.New("trade request not found")

	ErrInvalidID = errors.New("invalid trade request ID format")

	ErrStatusConflict = errors.New("trade request status changed concurrently")
)
