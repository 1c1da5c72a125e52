package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the ledger tables. Statements are idempotent.
//
// Every text column is NOT NULL DEFAULT '': absent fields are stored as empty
// strings, matching models.Transaction. amount keeps the exact canonical text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		id          BIGSERIAL PRIMARY KEY,
		sender      TEXT NOT NULL DEFAULT '',
		recipient   TEXT NOT NULL DEFAULT '',
		amount      TEXT NOT NULL DEFAULT '',
		timestamp   TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL DEFAULT '',
		signature   TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_public_keys (
		party      TEXT PRIMARY KEY,
		public_key TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the ledger schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
