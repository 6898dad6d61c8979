package db

import (
	"context"
	"database/sql"

	libdb "vehicleparking/backend/libs/db"
)

// NewPostgres connects to Postgres using shared library helper.
func NewPostgres(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	return libdb.NewPostgresDB(ctx, dsn, libdb.PoolOptions{MaxOpenConns: maxOpenConns})
}
