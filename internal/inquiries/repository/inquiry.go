package repository

import (
	"context"
	"errors"
	"fmt"

	inquiryerrors "djagency/internal/inquiries/errors"
	"djagency/pkg/config"
	"djagency/pkg/db"
	mongodb "djagency/pkg/db/mongo"
	"djagency/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "contact_inquiries"

type InquiryRepository interface {
	Create(ctx context.Context, inquiry *model.ContactInquiry) error
	FindByID(ctx context.Context, id string) (*model.ContactInquiry, error)
	FindAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, error)
	Count(ctx context.Context, filter model.InquiryFilter) (int64, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*model.ContactInquiry, error)
}

type mongoInquiryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInquiryRepository(cfg *config.Config) InquiryRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInquiryRepository{
		cfg:        cfg,
		collection: database.Collection(CollectionName),
	}
}

func NewInquiryRepository(cfg *config.Config) InquiryRepository {
	if cfg.StoreDriver == config.StorePostgres {
		return NewPostgresInquiryRepository(cfg)
	}
	return NewMongoInquiryRepository(cfg)
}

func (r *mongoInquiryRepository) Create(ctx context.Context, inquiry *model.ContactInquiry) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	inquiry.ID = ""
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, inquiry)
	if err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		inquiry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoInquiryRepository) FindByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var inquiry model.ContactInquiry
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&inquiry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find inquiry: %w", err)
	}
	return &inquiry, nil
}

func (r *mongoInquiryRepository) FindAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, inquiryQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	inquiries := make([]*model.ContactInquiry, 0)
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries: %w", err)
	}
	return inquiries, nil
}

func (r *mongoInquiryRepository) Count(ctx context.Context, filter model.InquiryFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, inquiryQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count inquiries: %w", err)
	}
	return count, nil
}

func (r *mongoInquiryRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.ContactInquiry, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": to, "updated_at": mongodb.Now()}}

	var inquiry model.ContactInquiry
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, update, opts).Decode(&inquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists := func(ctx context.Context) (bool, error) {
				return mongodb.Exists(ctx, r.collection, bson.M{"_id": oid})
			}
			return nil, db.GuardMiss(ctx, exists, id, inquiryerrors.ErrNotFound, inquiryerrors.ErrStatusConflict)
		}
		return nil, fmt.Errorf("failed to update inquiry status: %w", err)
	}
	return &inquiry, nil
}

func inquiryQuery(filter model.InquiryFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	return query
}
