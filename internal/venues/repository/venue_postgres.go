package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	venueerrors "djagency/internal/venues/errors"
	"djagency/pkg/config"
	"djagency/pkg/db/postgres"
	"djagency/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const TableName = "venues"

var venueColumns = []string{
	"id", "name", "location", "city", "capacity", "type", "description", "amenities",
	"preferred_genres", "contact_email", "contact_phone", "website", "is_active",
	"created_at", "updated_at",
}

type postgresVenueRepository struct {
	cfg  *config.Config
	conn *sql.DB
}

func NewPostgresVenueRepository(cfg *config.Config) VenueRepository {
	return &postgresVenueRepository{
		cfg:  cfg,
		conn: cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenue(row rowScanner) (*model.Venue, error) {
	var v model.Venue
	err := row.Scan(
		&v.ID, &v.Name, &v.Location, &v.City, &v.Capacity, &v.Type, &v.Description,
		postgres.ScanStringArray(&v.Amenities), postgres.ScanStringArray(&v.PreferredGenres),
		&v.ContactEmail, &v.ContactPhone, &v.Website, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := postgres.Now()
	venue.ID = uuid.NewString()
	venue.CreatedAt = now
	venue.UpdatedAt = now

	query, args, err := postgres.Builder.Insert(TableName).
		Columns(venueColumns...).
		Values(
			venue.ID, venue.Name, venue.Location, venue.City, venue.Capacity, venue.Type,
			venue.Description, postgres.StringArray(venue.Amenities), postgres.StringArray(venue.PreferredGenres),
			venue.ContactEmail, venue.ContactPhone, venue.Website, venue.IsActive, venue.CreatedAt, venue.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...); err != nil {
		venue.ID = ""
		return fmt.Errorf("failed to create venue: %w", err)
	}
	return nil
}

func (r *postgresVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", venueerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(venueColumns...).From(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	venue, err := scanVenue(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}
	return venue, nil
}

func (r *postgresVenueRepository) FindAll(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := venueWhere(postgres.Builder.Select(venueColumns...).From(TableName), filter).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := postgres.GetExecutor(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	venues := make([]*model.Venue, 0)
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, venue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}
	return venues, nil
}

func (r *postgresVenueRepository) Count(ctx context.Context, filter model.VenueFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := venueWhere(postgres.Builder.Select("COUNT(*)").From(TableName), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return count, nil
}

func (r *postgresVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", venueerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	venue.UpdatedAt = postgres.Now()

	query, args, err := postgres.Builder.Update(TableName).
		SetMap(map[string]any{
			"name":             venue.Name,
			"location":         venue.Location,
			"city":             venue.City,
			"capacity":         venue.Capacity,
			"type":             venue.Type,
			"description":      venue.Description,
			"amenities":        postgres.StringArray(venue.Amenities),
			"preferred_genres": postgres.StringArray(venue.PreferredGenres),
			"contact_email":    venue.ContactEmail,
			"contact_phone":    venue.ContactPhone,
			"website":          venue.Website,
			"is_active":        venue.IsActive,
			"updated_at":       venue.UpdatedAt,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresVenueRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", venueerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Delete(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", venueerrors.ErrNotFound, id)
	}
	return nil
}

func venueWhere(b sq.SelectBuilder, filter model.VenueFilter) sq.SelectBuilder {
	if filter.City != "" {
		b = b.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	return b
}
