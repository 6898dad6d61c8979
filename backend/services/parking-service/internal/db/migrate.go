package db

import (
	"context"
	"database/sql"
	"fmt"

	libdb "vehicleparking/backend/libs/db"
)

// migrationLockID serializes schema setup between replicas starting together.
const migrationLockID = 727274

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		full_name     TEXT NOT NULL,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('admin', 'user')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS parking_lots (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL,
		address        TEXT NOT NULL DEFAULT '',
		pin_code       TEXT NOT NULL DEFAULT '',
		price_per_hour DOUBLE PRECISION NOT NULL CHECK (price_per_hour > 0),
		max_spots      INTEGER NOT NULL CHECK (max_spots > 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS parking_spots (
		id          BIGSERIAL PRIMARY KEY,
		lot_id      BIGINT NOT NULL REFERENCES parking_lots (id),
		spot_number TEXT,
		status      CHAR(1) NOT NULL DEFAULT 'A' CHECK (status IN ('A', 'O'))
	)`,
	`CREATE INDEX IF NOT EXISTS parking_spots_lot_status_idx ON parking_spots (lot_id, status, id)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                BIGSERIAL PRIMARY KEY,
		spot_id           BIGINT NOT NULL REFERENCES parking_spots (id),
		user_id           BIGINT NOT NULL REFERENCES users (id),
		parking_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		leaving_timestamp TIMESTAMPTZ,
		parking_cost      DOUBLE PRECISION,
		CHECK ((leaving_timestamp IS NULL) = (parking_cost IS NULL))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_active_user_uidx
		ON reservations (user_id) WHERE leaving_timestamp IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_active_spot_uidx
		ON reservations (spot_id) WHERE leaving_timestamp IS NULL`,
	`CREATE INDEX IF NOT EXISTS reservations_user_parking_idx
		ON reservations (user_id, parking_timestamp DESC)`,
}

// Migrate creates the parking schema when it does not exist yet.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	return libdb.RunInTx(ctx, sqlDB, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return fmt.Errorf("migrate: lock: %w", err)
		}
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: statement %d: %w", i, err)
			}
		}
		return nil
	})
}
