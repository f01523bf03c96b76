package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	venueerrors "djagency/internal/venues/errors"
	"djagency/pkg/config"
	mongodb "djagency/pkg/db/mongo"
	"djagency/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "venues"

type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	FindAll(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	Count(ctx context.Context, filter model.VenueFilter) (int64, error)
	Update(ctx context.Context, id string, venue *model.Venue) error
	Delete(ctx context.Context, id string) error
}

type mongoVenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// NewVenueRepository returns the implementation for the configured store driver.
func NewVenueRepository(cfg *config.Config) VenueRepository {
	if cfg.StoreDriver == config.StorePostgres {
		return NewPostgresVenueRepository(cfg)
	}
	return NewMongoVenueRepository(cfg)
}

func (r *mongoVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	venue.ID = ""
	venue.CreatedAt = now
	venue.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, venue)
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		venue.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", venueerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var venue model.Venue
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&venue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}
	return &venue, nil
}

func (r *mongoVenueRepository) FindAll(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, venueQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer cursor.Close(ctx)

	venues := make([]*model.Venue, 0)
	if err := cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}
	return venues, nil
}

func (r *mongoVenueRepository) Count(ctx context.Context, filter model.VenueFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, venueQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return count, nil
}

func (r *mongoVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", venueerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	venue.UpdatedAt = mongodb.Now()
	doc := *venue
	doc.ID = ""

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoVenueRepository) Delete(ctx context.Context, id string) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", venueerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
	}
	return nil
}

// City matching is case-insensitive and exact.
func venueQuery(filter model.VenueFilter) bson.M {
	query := bson.M{}
	if filter.City != "" {
		query["city"] = primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(filter.City) + "$",
			Options: "i",
		}
	}
	return query
}
