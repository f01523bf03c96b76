package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	tradeerrors "djagency/internal/traderequests/errors"
	"djagency/pkg/config"
	"djagency/pkg/db"
	"djagency/pkg/db/postgres"
	"djagency/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const TableName = "trade_requests"

var tradeColumns = []string{
	"id", "requesting_dj_id", "target_dj_id", "requesting_venue", "target_venue",
	"requested_date", "target_date", "message", "status", "created_at", "updated_at",
}

type postgresTradeRequestRepository struct {
	cfg  *config.Config
	conn *sql.DB
}

func NewPostgresTradeRequestRepository(cfg *config.Config) TradeRequestRepository {
	return &postgresTradeRequestRepository{
		cfg:  cfg,
		conn: cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTradeRequest(row rowScanner) (*model.TradeRequest, error) {
	var tr model.TradeRequest
	err := row.Scan(
		&tr.ID, &tr.RequestingDJID, &tr.TargetDJID, &tr.RequestingVenue, &tr.TargetVenue,
		&tr.RequestedDate, &tr.TargetDate, &tr.Message, &tr.Status, &tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresTradeRequestRepository) Create(ctx context.Context, tr *model.TradeRequest) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := postgres.Now()
	tr.ID = uuid.NewString()
	tr.CreatedAt = now
	tr.UpdatedAt = now

	query, args, err := postgres.Builder.Insert(TableName).
		Columns(tradeColumns...).
		Values(
			tr.ID, tr.RequestingDJID, tr.TargetDJID, tr.RequestingVenue, tr.TargetVenue,
			tr.RequestedDate, tr.TargetDate, tr.Message, tr.Status, tr.CreatedAt, tr.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...); err != nil {
		tr.ID = ""
		return fmt.Errorf("failed to create trade request: %w", err)
	}
	return nil
}

func (r *postgresTradeRequestRepository) FindByID(ctx context.Context, id string) (*model.TradeRequest, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", tradeerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(tradeColumns...).From(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	tr, err := scanTradeRequest(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", tradeerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find trade request: %w", err)
	}
	return tr, nil
}

func (r *postgresTradeRequestRepository) FindAll(ctx context.Context, filter model.TradeRequestFilter, limit int, offset int64) ([]*model.TradeRequest, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select(tradeColumns...).
		From(TableName).
		Where(tradeWhere(filter)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := postgres.GetExecutor(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade requests: %w", err)
	}
	defer rows.Close()

	trades := make([]*model.TradeRequest, 0)
	for rows.Next() {
		tr, err := scanTradeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade request: %w", err)
		}
		trades = append(trades, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trade requests: %w", err)
	}
	return trades, nil
}

func (r *postgresTradeRequestRepository) Count(ctx context.Context, filter model.TradeRequestFilter) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Select("COUNT(*)").From(TableName).Where(tradeWhere(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trade requests: %w", err)
	}
	return count, nil
}

func (r *postgresTradeRequestRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.TradeRequest, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", tradeerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Update(TableName).
		Set("status", to).
		Set("updated_at", postgres.Now()).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + strings.Join(tradeColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status update: %w", err)
	}

	tr, err := scanTradeRequest(postgres.GetExecutor(ctx, r.conn).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists := func(ctx context.Context) (bool, error) {
				return postgres.Exists(ctx, r.conn, TableName, sq.Eq{"id": id})
			}
			return nil, db.GuardMiss(ctx, exists, id, tradeerrors.ErrNotFound, tradeerrors.ErrStatusConflict)
		}
		return nil, fmt.Errorf("failed to update trade request status: %w", err)
	}
	return tr, nil
}

func (r *postgresTradeRequestRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", tradeerrors.ErrInvalidID, id)
	}

	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Delete(TableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete trade request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", tradeerrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresTradeRequestRepository) DetachDJ(ctx context.Context, djID string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Update(TableName).
		Set("requesting_dj_id", sq.Expr("CASE WHEN requesting_dj_id = ? THEN '' ELSE requesting_dj_id END", djID)).
		Set("target_dj_id", sq.Expr("CASE WHEN target_dj_id = ? THEN '' ELSE target_dj_id END", djID)).
		Set("updated_at", postgres.Now()).
		Where(sq.Or{sq.Eq{"requesting_dj_id": djID}, sq.Eq{"target_dj_id": djID}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build detach: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to detach trade requests: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresTradeRequestRepository) DeleteByDJ(ctx context.Context, djID string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query, args, err := postgres.Builder.Delete(TableName).
		Where(sq.Or{sq.Eq{"requesting_dj_id": djID}, sq.Eq{"target_dj_id": djID}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := postgres.GetExecutor(ctx, r.conn).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trade requests by dj: %w", err)
	}
	return result.RowsAffected()
}

func tradeWhere(filter model.TradeRequestFilter) sq.And {
	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.DJID != "" {
		where = append(where, sq.Or{sq.Eq{"requesting_dj_id": filter.DJID}, sq.Eq{"target_dj_id": filter.DJID}})
	}
	return where
}
