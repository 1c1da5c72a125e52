package service

import (
	"context"
	"sync"
	"time"

	dErrors "tallyman/pkg/domain-errors"
)

// StoreTx provides the single-writer boundary for appends. Reading the
// chronological tail, computing the fingerprint and writing the record back
// must happen inside one RunInTx call.
//
// Implementations may wrap a database transaction holding an exclusive lock
// or, in-memory, a process mutex.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

type inMemoryStoreTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

func newInMemoryStoreTx() *inMemoryStoreTx {
	return &inMemoryStoreTx{timeout: defaultTxTimeout}
}

// NewLocalStoreTx returns a StoreTx serialising appends within this process.
func NewLocalStoreTx() StoreTx {
	return newInMemoryStoreTx()
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
