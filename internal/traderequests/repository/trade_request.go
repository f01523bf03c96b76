package repository

import (
	"context"
	"errors"
	"fmt"

	tradeerrors "djagency/internal/traderequests/errors"
	"djagency/pkg/config"
	"djagency/pkg/db"
	mongodb "djagency/pkg/db/mongo"
	"djagency/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "trade_requests"

type TradeRequestRepository interface {
	Create(ctx context.Context, tr *model.TradeRequest) error
	FindByID(ctx context.Context, id string) (*model.TradeRequest, error)
	FindAll(ctx context.Context, filter model.TradeRequestFilter, limit int, offset int64) ([]*model.TradeRequest, error)
	Count(ctx context.Context, filter model.TradeRequestFilter) (int64, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*model.TradeRequest, error)
	Delete(ctx context.Context, id string) error

	// DetachDJ clears whichever side of a trade references djID.
	DetachDJ(ctx context.Context, djID string) (int64, error)
	// DeleteByDJ removes trades where djID is on either side.
	DeleteByDJ(ctx context.Context, djID string) (int64, error)
}

type mongoTradeRequestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTradeRequestRepository(cfg *config.Config) TradeRequestRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTradeRequestRepository{
		cfg:        cfg,
		collection: database.Collection(CollectionName),
	}
}

func NewTradeRequestRepository(cfg *config.Config) TradeRequestRepository {
	if cfg.StoreDriver == config.StorePostgres {
		return NewPostgresTradeRequestRepository(cfg)
	}
	return NewMongoTradeRequestRepository(cfg)
}

func (r *mongoTradeRequestRepository) Create(ctx context.Context, tr *model.TradeRequest) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	tr.ID = ""
	tr.CreatedAt = now
	tr.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tr)
	if err != nil {
		return fmt.Errorf("failed to create trade request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tr.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTradeRequestRepository) FindByID(ctx context.Context, id string) (*model.TradeRequest, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tradeerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tr model.TradeRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&tr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", tradeerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find trade request: %w", err)
	}
	return &tr, nil
}

func (r *mongoTradeRequestRepository) FindAll(ctx context.Context, filter model.TradeRequestFilter, limit int, offset int64) ([]*model.TradeRequest, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, tradeQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade requests: %w", err)
	}
	defer cursor.Close(ctx)

	trades := make([]*model.TradeRequest, 0)
	if err := cursor.All(ctx, &trades); err != nil {
		return nil, fmt.Errorf("failed to decode trade requests: %w", err)
	}
	return trades, nil
}

func (r *mongoTradeRequestRepository) Count(ctx context.Context, filter model.TradeRequestFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, tradeQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count trade requests: %w", err)
	}
	return count, nil
}

func (r *mongoTradeRequestRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.TradeRequest, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tradeerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": to, "updated_at": mongodb.Now()}}

	var tr model.TradeRequest
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, update, opts).Decode(&tr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists := func(ctx context.Context) (bool, error) {
				return mongodb.Exists(ctx, r.collection, bson.M{"_id": oid})
			}
			return nil, db.GuardMiss(ctx, exists, id, tradeerrors.ErrNotFound, tradeerrors.ErrStatusConflict)
		}
		return nil, fmt.Errorf("failed to update trade request status: %w", err)
	}
	return &tr, nil
}

func (r *mongoTradeRequestRepository) Delete(ctx context.Context, id string) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", tradeerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete trade request: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", tradeerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoTradeRequestRepository) DetachDJ(ctx context.Context, djID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var total int64
	for _, field := range []string{"requesting_dj_id", "target_dj_id"} {
		update := bson.M{"$set": bson.M{field: "", "updated_at": mongodb.Now()}}
		result, err := r.collection.UpdateMany(ctx, bson.M{field: djID}, update)
		if err != nil {
			return total, fmt.Errorf("failed to detach trade requests by %s: %w", field, err)
		}
		total += result.ModifiedCount
	}
	return total, nil
}

func (r *mongoTradeRequestRepository) DeleteByDJ(ctx context.Context, djID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"requesting_dj_id": djID},
		bson.M{"target_dj_id": djID},
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete trade requests by dj: %w", err)
	}
	return result.DeletedCount, nil
}

func tradeQuery(filter model.TradeRequestFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.DJID != "" {
		query["$or"] = bson.A{
			bson.M{"requesting_dj_id": filter.DJID},
			bson.M{"target_dj_id": filter.DJID},
		}
	}
	return query
}
