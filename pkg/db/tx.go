// Package db holds the storage-neutral contracts shared by the Mongo and
// PostgreSQL backends.
package db

import "context"

// TxFunc runs inside a transaction. The ctx it receives carries the
// transaction; repositories called with it join that transaction.
type TxFunc func(ctx context.Context) error

type TxManager interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error
}
