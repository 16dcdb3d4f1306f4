package cache

import (
	"context"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/testhelpers"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
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
			Labels:       map[string]string{"test": "quizbot-cache", "cleanup": "auto"},
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

func TestGuildConfigCache_ReadThrough(t *testing.T) {
	t.Parallel()
	client := setupRedis(t)
	ctx := context.Background()
	cache := NewGuildConfigCache(client, time.Minute)

	stored := entities.DefaultGuildConfig(9)
	stored.TopRoleIDs = []int64{1, 2}
	channel := int64(77)
	stored.QuizChannelID = &channel

	repo := new(testhelpers.MockGuildConfigRepository)
	repo.On("GetOrCreate", mock.Anything).Return(stored, nil).Once()
	repo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	cached := cache.Wrap(repo, 9)

	first, err := cached.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored.DailyPoints, first.DailyPoints)

	second, err := cached.GetOrCreate(ctx)
	require.NoError(t, err)
	require.NotNil(t, second.QuizChannelID)
	assert.Equal(t, channel, *second.QuizChannelID)
	assert.Equal(t, []int64{1, 2}, second.TopRoleIDs)
	repo.AssertNumberOfCalls(t, "GetOrCreate", 1)

	require.NoError(t, cached.Update(ctx, second))
	miss, err := cache.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, miss)

	repo.AssertExpectations(t)
}
