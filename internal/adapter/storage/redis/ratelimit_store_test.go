package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RateLimitStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return NewRateLimitStore(client), s
}

func TestRateLimitStore_AllowWithinLimit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := store.Allow(ctx, "user-1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "user-2", 3, time.Minute)
		require.NoError(t, err)
	}

	res, err := store.Allow(ctx, "user-2", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
}

func TestRateLimitStore_WindowResets(t *testing.T) {
	store, s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Allow(ctx, "user-3", 2, time.Second)
		require.NoError(t, err)
	}

	// Expire the window key; the next call lands in a fresh counter.
	s.FastForward(3 * time.Second)

	res, err := store.Allow(ctx, "user-3", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRateLimitStore_KeysAreIndependent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Allow(ctx, "user-a", 1, time.Minute)
	require.NoError(t, err)

	res, err := store.Allow(ctx, "user-b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
