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

func TestQuestionRepository_PickLeastUsed(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewQuestionRepository(testDB.DB.Pool)

	none, err := repo.PickLeastUsed(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, q := range testutil.CreateTestQuestions(3) {
		require.NoError(t, repo.Create(ctx, q))
	}

	broken := testutil.CreateTestQuestion("three options")
	broken.Options = broken.Options[:3]
	assert.Error(t, repo.Create(ctx, broken))

	picked, err := repo.PickLeastUsed(ctx)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Len(t, picked.Options, entities.OptionCount)

	require.NoError(t, repo.RecordUsage(ctx, picked.ID, true))
	require.NoError(t, repo.RecordUsage(ctx, picked.ID, false))

	stored, err := repo.GetByID(ctx, picked.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.TimesUsed)
	assert.Equal(t, int64(1), stored.TimesCorrect)
	assert.InDelta(t, 50.0, stored.SuccessRate(), 1e-9)

	assert.Error(t, repo.RecordUsage(ctx, 999999, true))
}

func TestAnswerRecordRepository_OneGoldenAttempt(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	accounts := NewAccountRepository(testDB.DB.Pool, 1)
	golden := NewGoldenEventRepository(testDB.DB.Pool, 1)
	repo := NewAnswerRecordRepository(testDB.DB.Pool, 1)
	question := seedQuestion(t, ctx, testDB.DB.Pool)

	_, _, err := accounts.GetOrCreate(ctx, 42, "ana")
	require.NoError(t, err)
	event, err := golden.CreatePending(ctx, 0)
	require.NoError(t, err)

	last, err := repo.LastAnswerAt(ctx, 42, entities.AnswerContextGold)
	require.NoError(t, err)
	assert.Nil(t, last)

	record := func() *entities.AnswerRecord {
		return &entities.AnswerRecord{
			PlayerID:      42,
			QuestionID:    question.ID,
			GoldenEventID: &event.ID,
			ChosenIndex:   1,
			Context:       entities.AnswerContextGold,
			ResponseTime:  1500 * time.Millisecond,
		}
	}

	inserted, err := repo.Record(ctx, record())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Record(ctx, record())
	require.NoError(t, err)
	assert.False(t, inserted)

	attempted, err := repo.HasGoldenAttempt(ctx, event.ID, 42)
	require.NoError(t, err)
	assert.True(t, attempted)

	last, err = repo.LastAnswerAt(ctx, 42, entities.AnswerContextGold)
	require.NoError(t, err)
	assert.NotNil(t, last)
}
