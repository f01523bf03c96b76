package mongo

import (
	"context"
	"fmt"

	bookingrepo "djagency/internal/bookings/repository"
	djrepo "djagency/internal/djs/repository"
	inquiryrepo "djagency/internal/inquiries/repository"
	"djagency/internal/migrations/mongo/validators"
	traderepo "djagency/internal/traderequests/repository"
	venuerepo "djagency/internal/venues/repository"
	"djagency/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	DJsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "genres", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "name", Value: 1}}},
	}

	VenuesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "name", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "dj_id", Value: 1}, {Key: "event_date", Value: -1}}},
		{Keys: bson.D{{Key: "venue_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "event_date", Value: -1}}},
	}

	TradeRequestsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "requesting_dj_id", Value: 1}}},
		{Keys: bson.D{{Key: "target_dj_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	InquiriesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		djrepo.CollectionName:      {Indexes: DJsIndexes, Validator: validators.DJValidator},
		venuerepo.CollectionName:   {Indexes: VenuesIndexes, Validator: validators.VenueValidator},
		bookingrepo.CollectionName: {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		traderepo.CollectionName:   {Indexes: TradeRequestsIndexes, Validator: validators.TradeRequestValidator},
		inquiryrepo.CollectionName: {Indexes: InquiriesIndexes, Validator: validators.InquiryValidator},
	}
}

// RunMigration creates missing collections, refreshes their validators and
// ensures indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
