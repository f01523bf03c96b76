// Package postgres provides the PostgreSQL plumbing shared by repositories:
// a squirrel builder, a transaction manager that carries *sql.Tx in the
// context, and error helpers for lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"djagency/pkg/db"
	apperrors "djagency/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Builder emits $n placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txKey struct{}

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetExecutor returns the transaction stored in ctx, or conn outside a transaction.
func GetExecutor(ctx context.Context, conn *sql.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return conn
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// WithTimeout bounds a single statement unless it runs inside a transaction.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if inTransaction(ctx) {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

type transactionManager struct {
	conn *sql.DB
}

func NewTransactionManager(conn *sql.DB) db.TxManager {
	return &transactionManager{conn: conn}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
// Nested calls reuse the outer transaction.
func (m *transactionManager) WithinTransaction(ctx context.Context, fn db.TxFunc) (err error) {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// StringArray adapts a []string for text[] columns.
func StringArray(values []string) any {
	if values == nil {
		values = []string{}
	}
	return pq.Array(values)
}

// ScanStringArray returns a scan target for a text[] column.
func ScanStringArray(dst *[]string) any {
	return pq.Array(dst)
}

func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Exists reports whether table has a row matching where.
func Exists(ctx context.Context, conn *sql.DB, table string, where sq.Sqlizer) (bool, error) {
	query, args, err := Builder.Select("1").From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists: %w", err)
	}

	var one int
	if err := GetExecutor(ctx, conn).QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
