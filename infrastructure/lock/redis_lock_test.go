package lock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
			Labels:       map[string]string{"test": "quizbot-lock", "cleanup": "auto"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLocker(t *testing.T) {
	t.Parallel()
	client := setupRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(client, "quizbot:sweep:")

	lease, err := locker.TryAcquire(ctx, "golden:1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, "quizbot:sweep:golden:1", lease.Key())

	taken, err := locker.TryAcquire(ctx, "golden:1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, taken)

	other, err := locker.TryAcquire(ctx, "golden:2", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, other)

	require.NoError(t, lease.Release(ctx))
	assert.ErrorIs(t, lease.Release(ctx), ErrNotHeld)

	again, err := locker.TryAcquire(ctx, "golden:1", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	t.Parallel()
	client := setupRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(client, "quizbot:sweep:")

	stale, err := locker.TryAcquire(ctx, "grants:1", 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, stale)

	require.Eventually(t, func() bool {
		n, err := client.Exists(ctx, stale.Key()).Result()
		return err == nil && n == 0
	}, 5*time.Second, 20*time.Millisecond)

	fresh, err := locker.TryAcquire(ctx, "grants:1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	assert.ErrorIs(t, stale.Release(ctx), ErrNotHeld)

	n, err := client.Exists(ctx, fresh.Key()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
