package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	djerrors "djagency/internal/djs/errors"
	"djagency/pkg/config"
	"djagency/pkg/db/postgres"
	"djagency/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const TableName = "djs"

var djColumns = []string{
	"id", "name", "stage_name", "slug", "genres", "booking_rate", "location", "residencies",
	"bio", "experience", "equipment", "instagram", "soundcloud", "spotify", "email", "phone",
	"availability", "is_active", "created_at", "updated_at",
}

type postgresDJRepository struct {
	cfg  *config.Config
	conn *sql.DB
}

func NewPostgresDJRepository(cfg *config.Config) DJRepository {
	return &postgresDJRepository{
		cfg:  cfg,
		conn: cfg.Client.Postgres,
	}
}

// NewDJRepository returns the implementation for the configured store driver.
func NewDJRepository(cfg *config.Config) DJRepository {
	if cfg.StoreDriver == config.StorePostgres {
		return NewPostgresDJRepository(cfg)
	}
	return NewMongoDJRepository(cfg)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDJ(row rowScanner) (*model.DJ, error) {
	var dj model.DJ
	err := row.Scan(
		&dj.ID, &dj.Name, &dj.StageName, &dj.Slug, postgres.ScanStringArray(&dj.Genres),
		&dj.BookingRate, &dj.Location, postgres.ScanStringArray(&dj.Residencies),
		&dj.Bio, &dj.Experience, postgres.ScanStringArray(&dj.Equipment),
		&dj.SocialMedia.Instagram, &dj.SocialMedia.SoundCloud, &dj.SocialMedia.Spotify,
		&dj.Email, &dj.Phone, &dj.Availability, &dj.IsActive, &dj.CreatedAt, &dj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &dj, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresDJRepository) Create(ctx context.Context, dj *model.DJ) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := postgres.Now()
	dj.ID = uuid.NewString()
	dj.CreatedAt = now
	dj.UpdatedAt = now

	query, args, err := postgres.Builder.Insert(TableName).
		Columns(djColumns...).
		Values(
			dj.ID, dj.Name, dj.StageName, dj.Slug, postgres.StringArray(dj.Genres), dj.BookingRate,
			dj.Location, postgres.StringArray(dj.Residencies), dj.Bio, dj.Experience,
			postgres.StringArray(dj.Equipment), dj.SocialMedia.Instagram, dj.SocialMedia.SoundCloud,
			dj.SocialMedia.Spotify, dj.Email, dj.Phone, dj.Availability, dj.IsActive, dj.CreatedAt, dj.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...); err != nil {
		dj.ID = ""
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", djerrors.ErrDuplicateSlug, dj.Slug)
		}
		return fmt.Errorf("failed to create dj: %w", err)
	}
	return nil
}

func (r *postgresDJRepository) FindByID(ctx context.Context, id string) (*model.DJ, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, sq.Eq{"id": id}, id)
}

func (r *postgresDJRepository) FindBySlug(ctx context.Context, slug string) (*model.DJ, error) {
	return r.findOne(ctx, sq.Eq{"slug": slug}, slug)
}

func (r *postgresDJRepository) findOne(ctx context.Context, where sq.Eq, ref string) (*model.DJ, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(djColumns...).From(TableName).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	dj, err := scanDJ(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", djerrors.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to find dj: %w", err)
	}
	return dj, nil
}

func (r *postgresDJRepository) FindAll(ctx context.Context, filter model.DJFilter, limit int, offset int64) ([]*model.DJ, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := djWhere(postgres.Builder.Select(djColumns...).From(TableName), filter).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := postgres.GetExecutor(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query djs: %w", err)
	}
	defer rows.Close()

	djs := make([]*model.DJ, 0)
	for rows.Next() {
		dj, err := scanDJ(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dj: %w", err)
		}
		djs = append(djs, dj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate djs: %w", err)
	}
	return djs, nil
}

func (r *postgresDJRepository) Count(ctx context.Context, filter model.DJFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := djWhere(postgres.Builder.Select("COUNT(*)").From(TableName), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count djs: %w", err)
	}
	return count, nil
}

func (r *postgresDJRepository) Update(ctx context.Context, id string, dj *model.DJ) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dj.UpdatedAt = postgres.Now()

	query, args, err := postgres.Builder.Update(TableName).
		SetMap(map[string]any{
			"name":         dj.Name,
			"stage_name":   dj.StageName,
			"slug":         dj.Slug,
			"genres":       postgres.StringArray(dj.Genres),
			"booking_rate": dj.BookingRate,
			"location":     dj.Location,
			"residencies":  postgres.StringArray(dj.Residencies),
			"bio":          dj.Bio,
			"experience":   dj.Experience,
			"equipment":    postgres.StringArray(dj.Equipment),
			"instagram":    dj.SocialMedia.Instagram,
			"soundcloud":   dj.SocialMedia.SoundCloud,
			"spotify":      dj.SocialMedia.Spotify,
			"email":        dj.Email,
			"phone":        dj.Phone,
			"availability": dj.Availability,
			"is_active":    dj.IsActive,
			"updated_at":   dj.UpdatedAt,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", djerrors.ErrDuplicateSlug, dj.Slug)
		}
		return fmt.Errorf("failed to update dj: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresDJRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", djerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Delete(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete dj: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", djerrors.ErrNotFound, id)
	}
	return nil
}

func djWhere(b sq.SelectBuilder, filter model.DJFilter) sq.SelectBuilder {
	if filter.Genre != "" {
		b = b.Where("? = ANY(genres)", filter.Genre)
	}
	if filter.ActiveOnly {
		b = b.Where(sq.Eq{"is_active": true})
	}
	return b
}
