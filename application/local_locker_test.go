package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	locker := NewLocalLocker()

	lease, err := locker.TryAcquire(ctx, "grant_expiry:1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lease)

	held, err := locker.TryAcquire(ctx, "grant_expiry:1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, held)

	other, err := locker.TryAcquire(ctx, "grant_expiry:2", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, other)

	require.NoError(t, lease.Release(ctx))
	again, err := locker.TryAcquire(ctx, "grant_expiry:1", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestLocalLocker_ExpiredLeaseCanBeTaken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	locker := NewLocalLocker()

	stale, err := locker.TryAcquire(ctx, "top_roles:1", time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, stale)
	time.Sleep(5 * time.Millisecond)

	fresh, err := locker.TryAcquire(ctx, "top_roles:1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	// Releasing the stale lease leaves the new holder alone
	require.NoError(t, stale.Release(ctx))
	blocked, err := locker.TryAcquire(ctx, "top_roles:1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, blocked)
}
