package repository

import (
	"context"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecialEventRepository_Windows(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewSpecialEventRepository(testDB.DB.Pool, 1)

	running := testutil.CreateTestSpecialEvent(entities.SpecialEventDoublePoints, -time.Minute, time.Hour)
	upcoming := testutil.CreateTestSpecialEvent(entities.SpecialEventTripleGold, time.Hour, time.Hour)
	require.NoError(t, repo.Create(ctx, running))
	require.NoError(t, repo.Create(ctx, upcoming))

	invalid := testutil.CreateTestSpecialEvent(entities.SpecialEventMysteryBox, 0, -time.Minute)
	assert.Error(t, repo.Create(ctx, invalid))

	now := time.Now()
	active, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, running.ID, active[0].ID)

	all, err := repo.ListUpcoming(ctx, now)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	announced, err := repo.MarkAnnouncedDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, announced, 1)
	assert.True(t, announced[0].Announced)

	again, err := repo.MarkAnnouncedDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again)

	ended, err := repo.EndEarly(ctx, running.ID, now)
	require.NoError(t, err)
	assert.True(t, ended)

	endedAgain, err := repo.EndEarly(ctx, running.ID, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, endedAgain)

	active, err = repo.ListActive(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, active)
}
