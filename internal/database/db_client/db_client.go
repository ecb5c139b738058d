package db_client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS code_blocks (
	share_id   TEXT PRIMARY KEY,
	filename   TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	expires_in TEXT NOT NULL DEFAULT '1h',
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS code_blocks_expires_at_idx ON code_blocks (expires_at);`

func Open(host, port, user, pass, database string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		user, pass, host, port, database,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the code_blocks table when it is missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate code_blocks: %w", err)
	}
	return nil
}
