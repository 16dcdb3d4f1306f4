package repository

import (
	"context"
	"testing"

	"quizbot/domain/entities"
	"quizbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_Reconcile(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	accounts := NewAccountRepository(testDB.DB.Pool, 1)
	repo := NewTransactionRepository(testDB.DB.Pool, 1)

	for _, id := range []int64{1, 2} {
		_, _, err := accounts.GetOrCreate(ctx, id, "")
		require.NoError(t, err)
	}

	// Player 1 moves through the ledger
	require.NoError(t, repo.Record(ctx, &entities.Transaction{PlayerID: 1, Type: entities.TransactionTypeDaily, PointsDelta: 10}))
	require.NoError(t, repo.Record(ctx, &entities.Transaction{PlayerID: 1, Type: entities.TransactionTypeAdmin, MoneyDelta: 25}))
	require.NoError(t, accounts.UpdateBalances(ctx, 1, 10, 25))

	// Player 2 has a balance the ledger does not explain
	require.NoError(t, accounts.UpdateBalances(ctx, 2, 5, 0))

	rec, err := repo.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.IsConsistent())

	drift, err := repo.FindDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, int64(2), drift[0].PlayerID)
	assert.Equal(t, int64(5), drift[0].Points)
	assert.Zero(t, drift[0].LedgerPoints)

	history, err := repo.GetByPlayer(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entities.TransactionTypeAdmin, history[0].Type)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	err = repo.Record(ctx, &entities.Transaction{GuildID: 2, PlayerID: 1, Type: entities.TransactionTypeAdmin, PointsDelta: 1})
	assert.Error(t, err)
}
