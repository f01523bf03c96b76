package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	inquiryerrors "djagency/internal/inquiries/errors"
	"djagency/pkg/config"
	"djagency/pkg/db"
	"djagency/pkg/db/postgres"
	"djagency/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const TableName = "contact_inquiries"

var inquiryColumns = []string{
	"id", "type", "name", "email", "phone", "subject", "message",
	"dj_id", "venue_name", "event_date", "status", "created_at", "updated_at",
}

type postgresInquiryRepository struct {
	cfg  *config.Config
	conn *sql.DB
}

func NewPostgresInquiryRepository(cfg *config.Config) InquiryRepository {
	return &postgresInquiryRepository{
		cfg:  cfg,
		conn: cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row rowScanner) (*model.ContactInquiry, error) {
	var inq model.ContactInquiry
	err := row.Scan(
		&inq.ID, &inq.Type, &inq.Name, &inq.Email, &inq.Phone, &inq.Subject, &inq.Message,
		&inq.DJID, &inq.VenueName, &inq.EventDate, &inq.Status, &inq.CreatedAt, &inq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inq, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresInquiryRepository) Create(ctx context.Context, inq *model.ContactInquiry) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := postgres.Now()
	inq.ID = uuid.NewString()
	inq.CreatedAt = now
	inq.UpdatedAt = now

	query, args, err := postgres.Builder.Insert(TableName).
		Columns(inquiryColumns...).
		Values(
			inq.ID, inq.Type, inq.Name, inq.Email, inq.Phone, inq.Subject, inq.Message,
			inq.DJID, inq.VenueName, inq.EventDate, inq.Status, inq.CreatedAt, inq.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...); err != nil {
		inq.ID = ""
		return fmt.Errorf("failed to create inquiry: %w", err)
	}
	return nil
}

func (r *postgresInquiryRepository) FindByID(ctx context.Context, id string) (*model.ContactInquiry, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(inquiryColumns...).From(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	inq, err := scanInquiry(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find inquiry: %w", err)
	}
	return inq, nil
}

func (r *postgresInquiryRepository) FindAll(ctx context.Context, filter model.InquiryFilter, limit int, offset int64) ([]*model.ContactInquiry, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(inquiryColumns...).
		From(TableName).
		Where(inquiryWhere(filter)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := postgres.GetExecutor(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inquiries: %w", err)
	}
	defer rows.Close()

	inquiries := make([]*model.ContactInquiry, 0)
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		inquiries = append(inquiries, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inquiries: %w", err)
	}
	return inquiries, nil
}

func (r *postgresInquiryRepository) Count(ctx context.Context, filter model.InquiryFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select("COUNT(*)").From(TableName).Where(inquiryWhere(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count inquiries: %w", err)
	}
	return count, nil
}

func (r *postgresInquiryRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.ContactInquiry, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", inquiryerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Update(TableName).
		Set("status", to).
		Set("updated_at", postgres.Now()).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + strings.Join(inquiryColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status update: %w", err)
	}

	inq, err := scanInquiry(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists := func(ctx context.Context) (bool, error) {
				return postgres.Exists(ctx, r.conn, TableName, sq.Eq{"id": id})
			}
			return nil, db.GuardMiss(ctx, exists, id, inquiryerrors.ErrNotFound, inquiryerrors.ErrStatusConflict)
		}
		return nil, fmt.Errorf("failed to update inquiry status: %w", err)
	}
	return inq, nil
}

func inquiryWhere(filter model.InquiryFilter) sq.Eq {
	where := sq.Eq{}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if filter.Type != "" {
		where["type"] = filter.Type
	}
	return where
}
