package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"djagency/pkg/db/postgres"
	"djagency/pkg/logger"
)

type Step struct {
	Name       string
	Statements []string
}

// Steps are idempotent; every statement uses IF NOT EXISTS.
var Steps = []Step{
	{
		Name: "djs",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS djs (
				id            UUID PRIMARY KEY,
				name          TEXT NOT NULL,
				stage_name    TEXT NOT NULL DEFAULT '',
				slug          TEXT NOT NULL,
				genres        TEXT[] NOT NULL DEFAULT '{}',
				booking_rate  BIGINT NOT NULL DEFAULT 0 CHECK (booking_rate >= 0),
				location      TEXT NOT NULL DEFAULT '',
				residencies   TEXT[] NOT NULL DEFAULT '{}',
				bio           TEXT NOT NULL DEFAULT '',
				experience    TEXT NOT NULL DEFAULT '',
				equipment     TEXT[] NOT NULL DEFAULT '{}',
				instagram     TEXT NOT NULL DEFAULT '',
				soundcloud    TEXT NOT NULL DEFAULT '',
				spotify       TEXT NOT NULL DEFAULT '',
				email         TEXT NOT NULL DEFAULT '',
				phone         TEXT NOT NULL DEFAULT '',
				availability  TEXT NOT NULL DEFAULT 'available'
					CHECK (availability IN ('available', 'busy', 'booked')),
				is_active     BOOLEAN NOT NULL DEFAULT TRUE,
				created_at    TIMESTAMPTZ NOT NULL,
				updated_at    TIMESTAMPTZ NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS djs_slug_idx ON djs (slug)`,
			`CREATE INDEX IF NOT EXISTS djs_genres_idx ON djs USING GIN (genres)`,
		},
	},
	{
		Name: "venues",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS venues (
				id               UUID PRIMARY KEY,
				name             TEXT NOT NULL,
				location         TEXT NOT NULL,
				city             TEXT NOT NULL,
				capacity         INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
				type             TEXT NOT NULL DEFAULT '',
				description      TEXT NOT NULL DEFAULT '',
				amenities        TEXT[] NOT NULL DEFAULT '{}',
				preferred_genres TEXT[] NOT NULL DEFAULT '{}',
				contact_email    TEXT NOT NULL DEFAULT '',
				contact_phone    TEXT NOT NULL DEFAULT '',
				website          TEXT NOT NULL DEFAULT '',
				is_active        BOOLEAN NOT NULL DEFAULT TRUE,
				created_at       TIMESTAMPTZ NOT NULL,
				updated_at       TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS venues_city_idx ON venues (city, name)`,
		},
	},
	{
		Name: "bookings",
		Statements: []string{
			// dj_id and venue_id are plain text so a detached booking keeps ''.
			`CREATE TABLE IF NOT EXISTS bookings (
				id             UUID PRIMARY KEY,
				dj_id          TEXT NOT NULL DEFAULT '',
				venue_id       TEXT NOT NULL DEFAULT '',
				venue_name     TEXT NOT NULL,
				event_date     DATE NOT NULL,
				event_time     TEXT NOT NULL DEFAULT '',
				duration_hours INTEGER NOT NULL DEFAULT 0 CHECK (duration_hours BETWEEN 0 AND 24),
				rate           BIGINT NOT NULL DEFAULT 0 CHECK (rate >= 0),
				status         TEXT NOT NULL
					CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed')),
				source         TEXT NOT NULL CHECK (source IN ('public', 'admin')),
				notes          TEXT NOT NULL DEFAULT '',
				contact_name   TEXT NOT NULL DEFAULT '',
				contact_email  TEXT NOT NULL DEFAULT '',
				contact_phone  TEXT NOT NULL DEFAULT '',
				created_at     TIMESTAMPTZ NOT NULL,
				updated_at     TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS bookings_dj_idx ON bookings (dj_id, event_date DESC)`,
			`CREATE INDEX IF NOT EXISTS bookings_venue_idx ON bookings (venue_id)`,
			`CREATE INDEX IF NOT EXISTS bookings_status_idx ON bookings (status, event_date DESC)`,
		},
	},
	{
		Name: "trade_requests",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS trade_requests (
				id               UUID PRIMARY KEY,
				requesting_dj_id TEXT NOT NULL DEFAULT '',
				target_dj_id     TEXT NOT NULL DEFAULT '',
				requesting_venue TEXT NOT NULL DEFAULT '',
				target_venue     TEXT NOT NULL DEFAULT '',
				requested_date   TEXT NOT NULL DEFAULT '',
				target_date      TEXT NOT NULL DEFAULT '',
				message          TEXT NOT NULL,
				status           TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
				created_at       TIMESTAMPTZ NOT NULL,
				updated_at       TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS trade_requests_requesting_idx ON trade_requests (requesting_dj_id)`,
			`CREATE INDEX IF NOT EXISTS trade_requests_target_idx ON trade_requests (target_dj_id)`,
			`CREATE INDEX IF NOT EXISTS trade_requests_status_idx ON trade_requests (status, created_at DESC)`,
		},
	},
	{
		Name: "contact_inquiries",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS contact_inquiries (
				id         UUID PRIMARY KEY,
				type       TEXT NOT NULL
					CHECK (type IN ('general', 'booking', 'dj_application', 'trade_request')),
				name       TEXT NOT NULL,
				email      TEXT NOT NULL,
				phone      TEXT NOT NULL DEFAULT '',
				subject    TEXT NOT NULL DEFAULT '',
				message    TEXT NOT NULL,
				dj_id      TEXT NOT NULL DEFAULT '',
				venue_name TEXT NOT NULL DEFAULT '',
				event_date TEXT NOT NULL DEFAULT '',
				status     TEXT NOT NULL CHECK (status IN ('new', 'in_progress', 'resolved')),
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS contact_inquiries_status_idx ON contact_inquiries (status, created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS contact_inquiries_type_idx ON contact_inquiries (type)`,
		},
	},
}

// RunMigration applies every step in one transaction.
func RunMigration(ctx context.Context, conn *sql.DB, log *logger.Logger) error {
	log.Info("Running PostgreSQL migrations", "steps", len(Steps))

	tx := postgres.NewTransactionManager(conn)
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exec := postgres.GetExecutor(ctx, conn)
		for _, step := range Steps {
			for i, stmt := range step.Statements {
				if _, err := exec.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("step %s statement %d: %w", step.Name, i+1, err)
				}
			}
			log.Info("Applied migration step", "step", step.Name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("All PostgreSQL migrations applied")
	return nil
}
