package postgres

import (
	"context"
	"database/sql"
	"time"

	dErrors "tallyman/pkg/domain-errors"
	txcontext "tallyman/pkg/platform/tx"
)

// AppendLockID is the pg_advisory_xact_lock key taken by every append.
const AppendLockID int64 = 0x7461_6c6c_7921

const defaultTxTimeout = 5 * time.Second

// AdvisoryTx runs each unit of work in a database transaction that first
// takes an exclusive transaction-scoped advisory lock. Stores pick the
// transaction up from the context, so the tail read and the insert see the
// same serialised view.
type AdvisoryTx struct {
	db      *sql.DB
	lockID  int64
	timeout time.Duration
}

// NewAdvisoryTx constructs an AdvisoryTx on the shared append lock.
func NewAdvisoryTx(db *sql.DB) *AdvisoryTx {
	return &AdvisoryTx{db: db, lockID: AppendLockID, timeout: defaultTxTimeout}
}

func (t *AdvisoryTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, t.lockID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "append lock not acquired")
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
