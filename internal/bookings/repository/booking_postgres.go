package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	bookingerrors "djagency/internal/bookings/errors"
	"djagency/pkg/config"
	"djagency/pkg/db"
	"djagency/pkg/db/postgres"
	"djagency/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const TableName = "bookings"

var insertColumns = []string{
	"id", "dj_id", "venue_id", "venue_name", "event_date", "event_time", "duration_hours", "rate",
	"status", "source", "notes", "contact_name", "contact_email", "contact_phone", "created_at", "updated_at",
}

// event_date is a DATE column; it is read back in the API's YYYY-MM-DD form.
var selectColumns = []string{
	"id", "dj_id", "venue_id", "venue_name", "to_char(event_date, 'YYYY-MM-DD')", "event_time", "duration_hours", "rate",
	"status", "source", "notes", "contact_name", "contact_email", "contact_phone", "created_at", "updated_at",
}

type postgresBookingRepository struct {
	cfg  *config.Config
	conn *sql.DB
}

func NewPostgresBookingRepository(cfg *config.Config) BookingRepository {
	return &postgresBookingRepository{
		cfg:  cfg,
		conn: cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.DJID, &b.VenueID, &b.VenueName, &b.EventDate, &b.EventTime, &b.DurationHours, &b.Rate,
		&b.Status, &b.Source, &b.Notes, &b.ContactName, &b.ContactEmail, &b.ContactPhone, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := postgres.Now()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now

	query, args, err := postgres.Builder.Insert(TableName).
		Columns(insertColumns...).
		Values(
			b.ID, b.DJID, b.VenueID, b.VenueName, b.EventDate, b.EventTime, b.DurationHours, b.Rate,
			b.Status, b.Source, b.Notes, b.ContactName, b.ContactEmail, b.ContactPhone, b.CreatedAt, b.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...); err != nil {
		b.ID = ""
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(selectColumns...).From(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	booking, err := scanBooking(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(selectColumns...).
		From(TableName).
		Where(bookingWhere(filter)).
		OrderBy("event_date DESC", "created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := postgres.GetExecutor(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select("COUNT(*)").From(TableName).Where(bookingWhere(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) Update(ctx context.Context, id string, b *model.Booking) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	b.UpdatedAt = postgres.Now()

	query, args, err := postgres.Builder.Update(TableName).
		SetMap(map[string]any{
			"venue_id":       b.VenueID,
			"venue_name":     b.VenueName,
			"event_date":     b.EventDate,
			"event_time":     b.EventTime,
			"duration_hours": b.DurationHours,
			"rate":           b.Rate,
			"notes":          b.Notes,
			"updated_at":     b.UpdatedAt,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresBookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Update(TableName).
		Set("status", to).
		Set("updated_at", postgres.Now()).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + strings.Join(selectColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status update: %w", err)
	}

	booking, err := scanBooking(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists := func(ctx context.Context) (bool, error) {
				return postgres.Exists(ctx, r.conn, TableName, sq.Eq{"id": id})
			}
			return nil, db.GuardMiss(ctx, exists, id, bookingerrors.ErrNotFound, bookingerrors.ErrStatusConflict)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Delete(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresBookingRepository) DetachDJ(ctx context.Context, djID string) (int64, error) {
	return r.detach(ctx, "dj_id", djID)
}

func (r *postgresBookingRepository) DeleteByDJ(ctx context.Context, djID string) (int64, error) {
	return r.deleteBy(ctx, "dj_id", djID)
}

func (r *postgresBookingRepository) DetachVenue(ctx context.Context, venueID string) (int64, error) {
	return r.detach(ctx, "venue_id", venueID)
}

func (r *postgresBookingRepository) DeleteByVenue(ctx context.Context, venueID string) (int64, error) {
	return r.deleteBy(ctx, "venue_id", venueID)
}

func (r *postgresBookingRepository) detach(ctx context.Context, column, id string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Update(TableName).
		Set(column, "").
		Set("updated_at", postgres.Now()).
		Where(sq.Eq{column: id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build detach: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to detach bookings by %s: %w", column, err)
	}
	return result.RowsAffected()
}

func (r *postgresBookingRepository) deleteBy(ctx context.Context, column, id string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Delete(TableName).Where(sq.Eq{column: id}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings by %s: %w", column, err)
	}
	return result.RowsAffected()
}

func bookingWhere(filter model.BookingFilter) sq.Eq {
	where := sq.Eq{}
	if filter.DJID != "" {
		where["dj_id"] = filter.DJID
	}
	if filter.VenueID != "" {
		where["venue_id"] = filter.VenueID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	return where
}
