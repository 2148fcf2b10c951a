package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgredis "github.com/ooprato/ooprato-backend/pkg/redis"
)

func TestStoreLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := pkgredis.NewMemoryStore()
	first, err := NewStoreLock(store, "ooprato:housekeeping:lock:test", time.Minute)
	require.NoError(t, err)
	second, err := NewStoreLock(store, "ooprato:housekeeping:lock:test", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok, "release by a non-owner must not free the lock")

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStoreLockLeavesForeignOwner(t *testing.T) {
	ctx := context.Background()
	store := pkgredis.NewMemoryStore()
	lock, err := NewStoreLock(store, "k", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Del(ctx, "k"))
	_, err = store.SetNX(ctx, "k", "someone-else", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}

func TestNewStoreLockValidates(t *testing.T) {
	_, err := NewStoreLock(nil, "k", 0)
	require.Error(t, err)
	_, err = NewStoreLock(pkgredis.NewMemoryStore(), "", 0)
	require.Error(t, err)
	lock, err := NewStoreLock(pkgredis.NewMemoryStore(), "k", 0)
	require.NoError(t, err)
	require.Equal(t, defaultLockTTL, lock.ttl)
}
