package repository

import (
	"context"
	"errors"
	"fmt"

	djerrors "djagency/internal/djs/errors"
	"djagency/pkg/config"
	mongodb "djagency/pkg/db/mongo"
	"djagency/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "djs"

type DJRepository interface {
	Create(ctx context.Context, dj *model.DJ) error
	FindByID(ctx context.Context, id string) (*model.DJ, error)
	FindBySlug(ctx context.Context, slug string) (*model.DJ, error)
	FindAll(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, error)
	Count(ctx context.Context, filter model.DJFilter) (int64, error)
	Update(ctx context.Context, id string, dj *model.DJ) error
	Delete(ctx context.Context, id string) error
}

type mongoDJRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDJRepository(cfg *config.Config) DJRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDJRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoDJRepository) Create(ctx context.Context, dj *model.DJ) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	dj.ID = ""
	dj.CreatedAt = now
	dj.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, dj)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", djerrors.ErrDuplicateSlug, dj.Slug)
		}
		return fmt.Errorf("failed to create dj: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		dj.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDJRepository) FindByID(ctx context.Context, id string) (*model.DJ, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": oid}, id)
}

func (r *mongoDJRepository) FindBySlug(ctx context.Context, slug string) (*model.DJ, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, slug)
}

func (r *mongoDJRepository) findOne(ctx context.Context, filter bson.M, ref string) (*model.DJ, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var dj model.DJ
	if err := r.collection.FindOne(ctx, filter).Decode(&dj); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", djerrors.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to find dj: %w", err)
	}
	return &dj, nil
}

func (r *mongoDJRepository) FindAll(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, djQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query djs: %w", err)
	}
	defer cursor.Close(ctx)

	djs := make([]*model.DJ, 0)
	if err := cursor.All(ctx, &djs); err != nil {
		return nil, fmt.Errorf("failed to decode djs: %w", err)
	}
	return djs, nil
}

func (r *mongoDJRepository) Count(ctx context.Context, filter model.DJFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, djQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count djs: %w", err)
	}
	return count, nil
}

func (r *mongoDJRepository) Update(ctx context.Context, id string, dj *model.DJ) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dj.UpdatedAt = mongodb.Now()
	doc := *dj
	doc.ID = ""

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": doc})
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", djerrors.ErrDuplicateSlug, dj.Slug)
		}
		return fmt.Errorf("failed to update dj: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoDJRepository) Delete(ctx context.Context, id string) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete dj: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	return nil
}

func djQuery(filter model.DJFilter) bson.M {
	query := bson.M{}
	if filter.Genre != "" {
		query["genres"] = filter.Genre
	}
	if filter.ActiveOnly {
		query["is_active"] = true
	}
	return query
}
