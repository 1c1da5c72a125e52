package transaction

import (
	"context"
	"database/sql"
	"fmt"

	"tallyman/internal/ledger/models"
	txcontext "tallyman/pkg/platform/tx"
)

// PostgresStore persists the ledger in the ledger_transactions table. It joins
// the transaction carried in the context when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Transaction, error) {
	rows, err := txcontext.Or(ctx, s.db).QueryContext(ctx, `
		SELECT id, sender, recipient, amount, timestamp, fingerprint, signature
		FROM ledger_transactions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx     models.Transaction
			amount string
		)
		if err := rows.Scan(&tx.ID, &tx.Sender, &tx.Recipient, &amount, &tx.Timestamp, &tx.Fingerprint, &tx.Signature); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if amount != "" {
			if tx.Amount, err = models.ParseAmount(amount); err != nil {
				return nil, fmt.Errorf("transaction %d amount: %w", tx.ID, err)
			}
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Append(ctx context.Context, tx *models.Transaction) error {
	err := txcontext.Or(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO ledger_transactions (sender, recipient, amount, timestamp, fingerprint, signature)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		tx.Sender, tx.Recipient, tx.Amount.String(), tx.Timestamp, tx.Fingerprint, tx.Signature,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
