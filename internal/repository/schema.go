package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS concerts (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		seat_count INTEGER NOT NULL,
		price_cents BIGINT NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		concert_id BIGINT NOT NULL REFERENCES concerts(id),
		seat_number INTEGER NOT NULL,
		price_cents BIGINT NOT NULL,
		hold_token TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		confirmed_at TIMESTAMPTZ
	)`,
	// The authority for double-booking prevention: at most one CONFIRMED row
	// per (concert, seat). A CANCELLED seat can be confirmed again.
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_confirmed_seat_idx
		ON reservations (concert_id, seat_number) WHERE status = 'CONFIRMED'`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		reservation_id UUID NOT NULL UNIQUE REFERENCES reservations(id),
		user_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		status TEXT NOT NULL,
		transaction_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		topic TEXT NOT NULL,
		key TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		attempts INTEGER NOT NULL DEFAULT 0,
		next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_events_due_idx
		ON outbox_events (next_attempt_at) WHERE status = 'PENDING'`,
}

// InitSchema creates the tables on startup. Statements are idempotent so the
// app and the worker can both run it.
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
