package repository

import (
	"context"
	"errors"
	"fmt"

	bookingerrors "djagency/internal/bookings/errors"
	"djagency/pkg/config"
	"djagency/pkg/db"
	mongodb "djagency/pkg/db/mongo"
	"djagency/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	// Update writes every field except the status.
	Update(ctx context.Context, id string, booking *model.Booking) error
	// UpdateStatus sets the status only if it is still from.
	UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error

	DetachDJ(ctx context.Context, djID string) (int64, error)
	DeleteByDJ(ctx context.Context, djID string) (int64, error)
	DetachVenue(ctx context.Context, venueID string) (int64, error)
	DeleteByVenue(ctx context.Context, venueID string) (int64, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: database.Collection(CollectionName),
	}
}

// NewBookingRepository returns the implementation for the configured store driver.
func NewBookingRepository(cfg *config.Config) BookingRepository {
	if cfg.StoreDriver == config.StorePostgres {
		return NewPostgresBookingRepository(cfg)
	}
	return NewMongoBookingRepository(cfg)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	booking.ID = ""
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "event_date", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bookingQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bookingQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.UpdatedAt = mongodb.Now()
	update := bson.M{"$set": bson.M{
		"venue_id":       booking.VenueID,
		"venue_name":     booking.VenueName,
		"event_date":     booking.EventDate,
		"event_time":     booking.EventTime,
		"duration_hours": booking.DurationHours,
		"rate":           booking.Rate,
		"notes":          booking.Notes,
		"updated_at":     booking.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": to, "updated_at": mongodb.Now()}}

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists := func(ctx context.Context) (bool, error) {
				return mongodb.Exists(ctx, r.collection, bson.M{"_id": oid})
			}
			return nil, db.GuardMiss(ctx, exists, id, bookingerrors.ErrNotFound, bookingerrors.ErrStatusConflict)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoBookingRepository) DetachDJ(ctx context.Context, djID string) (int64, error) {
	return r.detach(ctx, "dj_id", djID)
}

func (r *mongoBookingRepository) DeleteByDJ(ctx context.Context, djID string) (int64, error) {
	return r.deleteBy(ctx, "dj_id", djID)
}

func (r *mongoBookingRepository) DetachVenue(ctx context.Context, venueID string) (int64, error) {
	return r.detach(ctx, "venue_id", venueID)
}

func (r *mongoBookingRepository) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	return r.deleteBy(ctx, "venue_id", venueID)
}

func (r *mongoBookingRepository) detach(ctx context.Context, field, id string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{field: "", "updated_at": mongodb.Now()}}
	result, err := r.collection.UpdateMany(ctx, bson.M{field: id}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to detach bookings by %s: %w", field, err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoBookingRepository) deleteBy(ctx context.Context, field, id string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{field: id})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings by %s: %w", field, err)
	}
	return result.DeletedCount, nil
}

func bookingQuery(filter model.BookingFilter) bson.M {
	query := bson.M{}
	if filter.DJID != "" {
		query["dj_id"] = filter.DJID
	}
	if filter.VenueID != "" {
		query["venue_id"] = filter.VenueID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
