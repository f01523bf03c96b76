package mongo

import (
	"context"
	"fmt"

	"djagency/pkg/db"
	apperrors "djagency/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) db.TxManager {
	return &transactionManager{
		client: client,
	}
}

// WithinTransaction runs fn in a session transaction. Transactions need a
// replica set or a sharded cluster.
func (m *transactionManager) WithinTransaction(ctx context.Context, fn db.TxFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
