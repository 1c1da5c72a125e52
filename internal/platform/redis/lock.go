package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "tallyman/pkg/domain-errors"
)

// DefaultAppendLockKey is the key every ledger process contends on.
const DefaultAppendLockKey = "tallyman:append-lock"

// releaseScript deletes the lock only while it still holds our token, so an
// expired holder never releases a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TxRunner is the transactional boundary wrapped by LockedTx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// LockedTx serialises appends across processes by holding a Redis lock
// around an inner boundary. The inner boundary still provides the local
// transaction; the lock provides the single writer.
type LockedTx struct {
	client redis.Cmdable
	inner  TxRunner
	key    string
	ttl    time.Duration
	retry  time.Duration
}

type LockOption func(l *LockedTx)

// WithLockKey overrides DefaultAppendLockKey.
func WithLockKey(key string) LockOption {
	return func(l *LockedTx) {
		l.key = key
	}
}

// WithLockTTL bounds how long a crashed holder can block other writers.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *LockedTx) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval sets the polling interval while the lock is held elsewhere.
func WithRetryInterval(d time.Duration) LockOption {
	return func(l *LockedTx) {
		if d > 0 {
			l.retry = d
		}
	}
}

// NewLockedTx wraps inner with the Redis append lock.
func NewLockedTx(client redis.Cmdable, inner TxRunner, opts ...LockOption) *LockedTx {
	l := &LockedTx{
		client: client,
		inner:  inner,
		key:    DefaultAppendLockKey,
		ttl:    10 * time.Second,
		retry:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RunInTx acquires the lock, runs fn through the inner boundary and releases
// the lock. The context deadline bounds the wait.
func (l *LockedTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	token := uuid.NewString()
	if err := l.acquire(ctx, token); err != nil {
		return err
	}
	defer func() {
		_ = l.release(context.WithoutCancel(ctx), token)
	}()
	return l.inner.RunInTx(ctx, fn)
}

func (l *LockedTx) acquire(ctx context.Context, token string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return dErrors.Wrap(err, dErrors.CodeTimeout, "append lock not acquired")
			}
			return dErrors.Wrap(fmt.Errorf("acquire append lock: %w", err), dErrors.CodeUnavailable, "append lock unavailable")
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "append lock not acquired")
		case <-ticker.C:
		}
	}
}

func (l *LockedTx) release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("release append lock: %w", err)
	}
	return nil
}
