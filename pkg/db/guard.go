package db

import (
	"context"
	"fmt"
)

// ExistsFunc reports whether the record a guarded write targeted is still
// stored.
type ExistsFunc func(ctx context.Context) (bool, error)

// GuardMiss classifies a compare-and-set write that matched no row. A record
// that is gone yields notFound; one that is still there changed underneath
// the caller and yields conflict.
func GuardMiss(ctx context.Context, exists ExistsFunc, id string, notFound, conflict error) error {
	found, err := exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check record %s after guarded write: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return fmt.Errorf("%w: %s", conflict, id)
}
