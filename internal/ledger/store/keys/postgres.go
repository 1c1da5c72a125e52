package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tallyman/pkg/platform/sentinel"
	txcontext "tallyman/pkg/platform/tx"
)

// PostgresStore persists the registry in ledger_public_keys.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, party, publicKey string) error {
	_, err := txcontext.Or(ctx, s.db).ExecContext(ctx, `
		INSERT INTO ledger_public_keys (party, public_key, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (party) DO UPDATE
		SET public_key = EXCLUDED.public_key, updated_at = now()`,
		party, publicKey,
	)
	if err != nil {
		return fmt.Errorf("save public key: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, party string) (string, error) {
	var key string
	err := txcontext.Or(ctx, s.db).QueryRowContext(ctx,
		`SELECT public_key FROM ledger_public_keys WHERE party = $1`, party,
	).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find public key: %w", err)
	}
	return key, nil
}

func (s *PostgresStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := txcontext.Or(ctx, s.db).QueryContext(ctx, `SELECT party, public_key FROM ledger_public_keys`)
	if err != nil {
		return nil, fmt.Errorf("list public keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var party, key string
		if err := rows.Scan(&party, &key); err != nil {
			return nil, fmt.Errorf("scan public key: %w", err)
		}
		keys[party] = key
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate public keys: %w", err)
	}
	return keys, nil
}
