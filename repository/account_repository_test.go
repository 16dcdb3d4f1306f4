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

func TestAccountRepository_GetOrCreate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB.Pool, 1001)

	account, created, err := repo.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1001), account.GuildID)
	assert.Equal(t, "ana", account.DisplayName)
	assert.Zero(t, account.Points)
	assert.Zero(t, account.Money)
	assert.Equal(t, entities.DefaultElo, account.Elo)
	assert.Nil(t, account.ShieldUntil)

	again, created, err := repo.GetOrCreate(ctx, 42, "ana maría")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "ana maría", again.DisplayName)

	kept, _, err := repo.GetOrCreate(ctx, 42, "")
	require.NoError(t, err)
	assert.Equal(t, "ana maría", kept.DisplayName)

	missing, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountRepository_GuildsAreIsolated(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	first := NewAccountRepository(testDB.DB.Pool, 1)
	second := NewAccountRepository(testDB.DB.Pool, 2)

	_, _, err := first.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)
	require.NoError(t, first.UpdateBalances(ctx, 42, 100, 50))

	_, created, err := second.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)
	assert.True(t, created)

	other, err := second.Get(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, other.Points)

	err = second.UpdateBalances(ctx, 99, 1, 1)
	assert.Error(t, err)
}

func TestAccountRepository_BalancesCannotGoNegative(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB.Pool, 1)

	_, _, err := repo.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)

	tests := []struct {
		name          string
		points, money int64
		wantErr       bool
	}{
		{name: "zero balances", points: 0, money: 0},
		{name: "positive balances", points: 10, money: 20},
		{name: "negative points", points: -1, money: 0, wantErr: true},
		{name: "negative money", points: 0, money: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.UpdateBalances(ctx, 42, tt.points, tt.money)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	account, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(10), account.Points)
	assert.Equal(t, int64(20), account.Money)
}

func TestAccountRepository_GetManyForUpdate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB.Pool, 1)

	for _, id := range []int64{30, 10, 20} {
		_, _, err := repo.GetOrCreate(ctx, id, "")
		require.NoError(t, err)
	}

	accounts, err := repo.GetManyForUpdate(ctx, []int64{30, 10})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(10), accounts[0].PlayerID)
	assert.Equal(t, int64(30), accounts[1].PlayerID)
}

func TestAccountRepository_RecordRobberyAttempt(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB.Pool, 1)

	_, _, err := repo.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	today := time.Now().UTC()

	require.NoError(t, repo.RecordRobberyAttempt(ctx, 42, yesterday))
	require.NoError(t, repo.RecordRobberyAttempt(ctx, 42, yesterday))

	account, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), account.RobberiesOn(yesterday))
	assert.Zero(t, account.RobberiesOn(today))

	require.NoError(t, repo.RecordRobberyAttempt(ctx, 42, today))
	account, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.RobberiesOn(today))
	require.NotNil(t, account.LastRobbery)
	assert.WithinDuration(t, today, *account.LastRobbery, time.Millisecond)
}

func TestAccountRepository_DailyQuestionLifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB.Pool, 1)

	_, _, err := repo.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)
	question := testutil.CreateTestQuestion("daily")
	require.NoError(t, NewQuestionRepository(testDB.DB.Pool).Create(ctx, question))

	issuedAt := time.Now().UTC()
	require.NoError(t, repo.IssueDailyQuestion(ctx, 42, question.ID, issuedAt))

	account, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, account.DailyQuestion)
	assert.Equal(t, question.ID, *account.DailyQuestion)
	require.NotNil(t, account.DailyIssuedAt)
	assert.WithinDuration(t, issuedAt, *account.DailyIssuedAt, time.Millisecond)

	require.NoError(t, repo.RecordDailyClaim(ctx, 42, 3, issuedAt.Add(time.Second)))
	account, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, account.DailyQuestion)
	assert.Nil(t, account.DailyIssuedAt)
	assert.Equal(t, int64(3), account.DailyStreak)

	assert.Error(t, repo.IssueDailyQuestion(ctx, 7, question.ID, issuedAt))
}

func TestAccountRepository_ShieldDerivedFromGrant(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	accounts := NewAccountRepository(testDB.DB.Pool, 1)
	grants := NewTemporaryGrantRepository(testDB.DB.Pool, 1)

	_, _, err := accounts.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)

	grant := testutil.CreateTestGrant(42, entities.GrantRoleTypeShield, 2*time.Hour)
	require.NoError(t, grants.Create(ctx, grant))

	account, err := accounts.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, account.ShieldUntil)
	assert.True(t, account.IsShielded(time.Now()))

	removed, err := grants.MarkRemoved(ctx, grant.ID, entities.RemovalReasonRevoked, time.Now())
	require.NoError(t, err)
	require.True(t, removed)

	account, err = accounts.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, account.ShieldUntil)
}

func TestAccountRepository_TopAndSummary(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB.Pool, 1)

	balances := map[int64][2]int64{1: {50, 5}, 2: {80, 1}, 3: {20, 90}}
	for id, b := range balances {
		_, _, err := repo.GetOrCreate(ctx, id, "")
		require.NoError(t, err)
		require.NoError(t, repo.UpdateBalances(ctx, id, b[0], b[1]))
	}

	top, err := repo.Top(ctx, entities.LeaderboardPoints, 2, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].PlayerID)
	assert.Equal(t, int64(1), top[1].PlayerID)

	richest, err := repo.Top(ctx, entities.LeaderboardMoney, 1, 0)
	require.NoError(t, err)
	require.Len(t, richest, 1)
	assert.Equal(t, int64(3), richest[0].PlayerID)

	_, err = repo.Top(ctx, entities.LeaderboardMetric("karma"), 1, 0)
	assert.Error(t, err)

	count, points, money, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, int64(150), points)
	assert.Equal(t, int64(96), money)
}
