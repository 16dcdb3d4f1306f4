package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuestion(t *testing.T, ctx context.Context, q Queryable) *entities.Question {
	t.Helper()
	question := testutil.CreateTestQuestion("golden")
	require.NoError(t, NewQuestionRepository(q).Create(ctx, question))
	return question
}

func TestGoldenEventRepository_SingleOpenEvent(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewGoldenEventRepository(testDB.DB.Pool, 1)

	first, err := repo.CreatePending(ctx, 30)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, entities.GoldenEventStatusPending, first.Status)
	assert.False(t, first.IsActive)
	assert.Equal(t, int64(30), first.Jackpot)

	second, err := repo.CreatePending(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, second)

	otherGuild, err := NewGoldenEventRepository(testDB.DB.Pool, 2).CreatePending(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, otherGuild)

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, first.ID, open.ID)
}

func TestGoldenEventRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewGoldenEventRepository(testDB.DB.Pool, 1)
	accounts := NewAccountRepository(testDB.DB.Pool, 1)
	question := seedQuestion(t, ctx, testDB.DB.Pool)

	_, _, err := accounts.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)

	event, err := repo.CreatePending(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, event)

	now := time.Now()
	activated, err := repo.Activate(ctx, event.ID, question.ID, 35, now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, activated)

	again, err := repo.Activate(ctx, event.ID, question.ID, 35, now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, again, "an active event cannot be activated twice")

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(35), active[0].RewardPoints)

	won, err := repo.Claim(ctx, event.ID, 42, now.Add(10*time.Second))
	require.NoError(t, err)
	require.NotNil(t, won)
	assert.Equal(t, entities.GoldenEventStatusWon, won.Status)
	assert.False(t, won.IsActive)
	require.NotNil(t, won.WinnerID)
	assert.Equal(t, int64(42), *won.WinnerID)

	lost, err := repo.Claim(ctx, event.ID, 43, now.Add(11*time.Second))
	require.NoError(t, err)
	assert.Nil(t, lost)

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)

	latest, err := repo.GetLatestEnded(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, event.ID, latest.ID)
	assert.Zero(t, latest.CarryOver())
}

func TestGoldenEventRepository_ClaimAfterDeadline(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewGoldenEventRepository(testDB.DB.Pool, 1)
	question := seedQuestion(t, ctx, testDB.DB.Pool)

	event, err := repo.CreatePending(ctx, 0)
	require.NoError(t, err)

	start := time.Now().Add(-2 * time.Minute)
	ok, err := repo.Activate(ctx, event.ID, question.ID, 40, start, start.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	late, err := repo.Claim(ctx, event.ID, 42, time.Now())
	require.NoError(t, err)
	assert.Nil(t, late)

	expired, err := repo.ExpireDue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, entities.GoldenEventStatusExpired, expired[0].Status)
	assert.Equal(t, int64(40), expired[0].CarryOver())

	again, err := repo.ExpireDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, again)

	next, err := repo.CreatePending(ctx, 40)
	require.NoError(t, err)
	require.NotNil(t, next)
}

func TestGoldenEventRepository_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewGoldenEventRepository(testDB.DB.Pool, 1)
	accounts := NewAccountRepository(testDB.DB.Pool, 1)
	question := seedQuestion(t, ctx, testDB.DB.Pool)

	event, err := repo.CreatePending(ctx, 0)
	require.NoError(t, err)
	now := time.Now()
	ok, err := repo.Activate(ctx, event.ID, question.ID, 30, now, now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	const players = 8
	for i := int64(1); i <= players; i++ {
		_, _, err := accounts.GetOrCreate(ctx, i, "")
		require.NoError(t, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int64
	)
	for i := int64(1); i <= players; i++ {
		wg.Add(1)
		go func(playerID int64) {
			defer wg.Done()
			won, err := repo.Claim(ctx, event.ID, playerID, time.Now())
			assert.NoError(t, err)
			if won != nil {
				mu.Lock()
				winners = append(winners, playerID)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, winners, 1)
}
