package errors

import "errors"

var (
	ErrNotFound = errors.New("dj not found")

	ErrInvalidID = errors.New("invalid dj ID format")

	ErrDuplicateSlug = errors.New("dj slug already exists")
)
