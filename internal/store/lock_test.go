package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisKV(client), mr
}

func TestAcquireLockSingleFlight(t *testing.T) {
	kv, _ := newTestKV(t)
	ctx := context.Background()

	lock, err := AcquireLock(ctx, kv, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lock)

	second, err := AcquireLock(ctx, kv, "lock:test", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, lock.Release(ctx))

	third, err := AcquireLock(ctx, kv, "lock:test", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestReleaseLeavesNewHolderAlone(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	stale, err := AcquireLock(ctx, kv, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, stale)

	// the lock expires and another run takes it over
	mr.FastForward(2 * time.Minute)
	holder, err := AcquireLock(ctx, kv, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, holder)

	// releasing the stale handle must not delete the new holder's lock
	require.NoError(t, stale.Release(ctx))
	val, err := kv.Get(ctx, "lock:test")
	require.NoError(t, err)
	assert.Equal(t, holder.token, val)

	require.NoError(t, holder.Release(ctx))
	_, err = kv.Get(ctx, "lock:test")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestReleaseExpiredLock(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	lock, err := AcquireLock(ctx, kv, "lock:test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lock)

	mr.FastForward(2 * time.Minute)
	require.NoError(t, lock.Release(ctx))
}
