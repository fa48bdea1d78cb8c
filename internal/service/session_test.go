package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", 42, time.Minute))

	userID, ok, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, userID)

	_, ok, err = store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, ok, err = store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine.
	require.NoError(t, store.Delete(ctx, "sid-1"))
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", 7, -time.Second))
	_, ok, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", 42, time.Minute))

	userID, ok, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, userID)

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
