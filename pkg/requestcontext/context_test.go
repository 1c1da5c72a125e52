package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientIP(ctx, "192.0.2.1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "192.0.2.1", ClientIP(ctx))
}

func TestNow(t *testing.T) {
	before := time.Now()
	assert.False(t, Now(context.Background()).Before(before), "falls back to the wall clock")

	fixed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
}
