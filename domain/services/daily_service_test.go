package services

import (
	"context"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dailyMocks struct {
	accounts     *testhelpers.MockAccountRepository
	transactions *testhelpers.MockTransactionRepository
	questions    *testhelpers.MockQuestionRepository
	answers      *testhelpers.MockAnswerRecordRepository
	grants       *testhelpers.MockTemporaryGrantRepository
	specials     *testhelpers.MockSpecialEventRepository
	configs      *testhelpers.MockGuildConfigRepository
	publisher    *testhelpers.MockEventPublisher
}

func newDailyMocks(account *entities.Account) *dailyMocks {
	m := &dailyMocks{
		accounts:     new(testhelpers.MockAccountRepository),
		transactions: new(testhelpers.MockTransactionRepository),
		questions:    new(testhelpers.MockQuestionRepository),
		answers:      new(testhelpers.MockAnswerRecordRepository),
		grants:       new(testhelpers.MockTemporaryGrantRepository),
		specials:     new(testhelpers.MockSpecialEventRepository),
		configs:      new(testhelpers.MockGuildConfigRepository),
		publisher:    new(testhelpers.MockEventPublisher),
	}
	m.configs.On("GetOrCreate", mock.Anything).Return(entities.DefaultGuildConfig(1), nil)
	m.accounts.On("GetOrCreate", mock.Anything, account.PlayerID, "ana").Return(account, false, nil)
	m.accounts.On("GetForUpdate", mock.Anything, account.PlayerID).Return(account, nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)
	return m
}

func (m *dailyMocks) service() interfaces.DailyService {
	return NewDailyService(m.accounts, m.transactions, m.questions, m.answers, m.grants, m.specials, m.configs, m.publisher)
}

func TestDailyReward(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		streak     int64
		multiplier float64
		mods       entities.ActiveModifiers
		want       int64
	}{
		{name: "first day", streak: 1, multiplier: 1, want: 10},
		{name: "third day", streak: 3, multiplier: 1, want: 14},
		{name: "bonus capped", streak: 40, multiplier: 1, want: 30},
		{name: "multiplier truncates", streak: 2, multiplier: 1.5, want: 18},
		{name: "double points", streak: 1, multiplier: 1, mods: entities.ActiveModifiers{DoublePoints: true}, want: 20},
		{name: "multiplier below one is ignored", streak: 1, multiplier: 0.5, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DailyReward(10, tt.streak, tt.multiplier, tt.mods))
		})
	}
}

// openDaily marks question 7 as the player's daily question, issued ago before now
func openDaily(account *entities.Account, ago time.Duration) {
	questionID := int64(7)
	issuedAt := time.Now().Add(-ago)
	account.DailyQuestion = &questionID
	account.DailyIssuedAt = &issuedAt
}

func TestDailyService_Claim_ContinuesStreak(t *testing.T) {
	t.Parallel()

	last := time.Now().Add(-30 * time.Hour)
	account := &entities.Account{PlayerID: 5, GuildID: 1, DailyStreak: 4, LastDaily: &last}
	openDaily(account, 5*time.Second)
	m := newDailyMocks(account)
	m.questions.On("GetByID", mock.Anything, int64(7)).Return(&entities.Question{ID: 7, CorrectIndex: 2}, nil)
	m.questions.On("RecordUsage", mock.Anything, int64(7), true).Return(nil)
	m.grants.On("GetMultiplier", mock.Anything, int64(5), mock.Anything).Return(1.5, nil)
	m.specials.On("ListActive", mock.Anything, mock.Anything).Return([]*entities.SpecialEvent{
		{EventType: entities.SpecialEventDoublePoints, StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour)},
	}, nil)
	m.accounts.On("RecordDailyClaim", mock.Anything, int64(5), int64(5), mock.Anything).Return(nil)
	// (10 + 8) * 1.5 * 2
	m.accounts.On("UpdateBalances", mock.Anything, int64(5), int64(54), int64(54)).Return(nil)
	m.transactions.On("Record", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Type == entities.TransactionTypeDaily && tx.PointsDelta == 54 && tx.MoneyDelta == 54
	})).Return(nil)
	m.answers.On("Record", mock.Anything, mock.MatchedBy(func(r *entities.AnswerRecord) bool {
		return r.Context == entities.AnswerContextDaily && r.IsCorrect && r.PointsEarned == 54
	})).Return(true, nil)

	answer := interfaces.QuestionAnswer{QuestionID: 7, Choice: 2, ResponseTime: 3 * time.Second}
	result, err := m.service().Claim(context.Background(), 5, "ana", answer)
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, int64(5), result.Streak)
	assert.Equal(t, int64(54), result.Reward)
	assert.Equal(t, int64(54), account.Money)
	assert.Nil(t, account.DailyQuestion)
	m.accounts.AssertExpectations(t)
}

func TestDailyService_Claim_InsideCooldown(t *testing.T) {
	t.Parallel()

	last := time.Now().Add(-2 * time.Hour)
	account := &entities.Account{PlayerID: 5, GuildID: 1, DailyStreak: 2, LastDaily: &last}
	m := newDailyMocks(account)

	_, err := m.service().Claim(context.Background(), 5, "ana", interfaces.QuestionAnswer{QuestionID: 7, Choice: 2})
	eligibility, ok := AsIneligible(err)
	require.True(t, ok)
	assert.Equal(t, entities.ReasonDailyCooldown, eligibility.Reason)
	assert.InDelta(t, float64(22*time.Hour), float64(eligibility.RemainingWait), float64(time.Second))
	m.accounts.AssertNotCalled(t, "RecordDailyClaim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.transactions.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestDailyService_Claim_WrongAnswerBreaksStreak(t *testing.T) {
	t.Parallel()

	last := time.Now().Add(-25 * time.Hour)
	account := &entities.Account{PlayerID: 5, GuildID: 1, DailyStreak: 6, LastDaily: &last}
	openDaily(account, 4*time.Second)
	m := newDailyMocks(account)
	m.questions.On("GetByID", mock.Anything, int64(7)).Return(&entities.Question{ID: 7, CorrectIndex: 2}, nil)
	m.questions.On("RecordUsage", mock.Anything, int64(7), false).Return(nil)
	m.accounts.On("RecordDailyClaim", mock.Anything, int64(5), int64(0), mock.Anything).Return(nil)
	m.answers.On("Record", mock.Anything, mock.MatchedBy(func(r *entities.AnswerRecord) bool {
		return r.Context == entities.AnswerContextDaily && !r.IsCorrect && r.PointsEarned == 0
	})).Return(true, nil)

	answer := interfaces.QuestionAnswer{QuestionID: 7, Choice: 0, ResponseTime: 4 * time.Second}
	result, err := m.service().Claim(context.Background(), 5, "ana", answer)
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.False(t, result.TimedOut)
	assert.Zero(t, result.Reward)
	m.accounts.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.accounts.AssertExpectations(t)
}

func TestDailyService_Claim_RequiresOpenQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		open   bool
		answer interfaces.QuestionAnswer
	}{
		{name: "nothing issued", answer: interfaces.QuestionAnswer{QuestionID: 7, Choice: 2}},
		{name: "zero answer", answer: interfaces.QuestionAnswer{}},
		{name: "different question", open: true, answer: interfaces.QuestionAnswer{QuestionID: 8, Choice: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			last := time.Now().Add(-25 * time.Hour)
			account := &entities.Account{PlayerID: 5, GuildID: 1, DailyStreak: 3, LastDaily: &last}
			if tt.open {
				openDaily(account, time.Second)
			}
			m := newDailyMocks(account)

			_, err := m.service().Claim(context.Background(), 5, "ana", tt.answer)
			require.ErrorIs(t, err, ErrInvalidInput)
			m.accounts.AssertNotCalled(t, "RecordDailyClaim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			m.accounts.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			m.transactions.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		})
	}
}

func TestDailyService_Claim_AfterWindowForfeits(t *testing.T) {
	t.Parallel()

	last := time.Now().Add(-25 * time.Hour)
	account := &entities.Account{PlayerID: 5, GuildID: 1, DailyStreak: 6, LastDaily: &last}
	openDaily(account, DailyAnswerWindow+time.Second)
	m := newDailyMocks(account)
	m.questions.On("GetByID", mock.Anything, int64(7)).Return(&entities.Question{ID: 7, CorrectIndex: 2}, nil)
	m.questions.On("RecordUsage", mock.Anything, int64(7), false).Return(nil)
	m.accounts.On("RecordDailyClaim", mock.Anything, int64(5), int64(0), mock.Anything).Return(nil)
	m.answers.On("Record", mock.Anything, mock.MatchedBy(func(r *entities.AnswerRecord) bool {
		return r.ChosenIndex == -1 && !r.IsCorrect
	})).Return(true, nil)

	// The right choice arrives too late
	result, err := m.service().Claim(context.Background(), 5, "ana", interfaces.QuestionAnswer{QuestionID: 7, Choice: 2})
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.True(t, result.TimedOut)
	m.accounts.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.accounts.AssertExpectations(t)
}

func TestDailyService_Issue(t *testing.T) {
	t.Parallel()

	t.Run("opens a new question", func(t *testing.T) {
		t.Parallel()

		last := time.Now().Add(-25 * time.Hour)
		account := &entities.Account{PlayerID: 5, GuildID: 1, LastDaily: &last}
		m := newDailyMocks(account)
		m.questions.On("PickLeastUsed", mock.Anything).Return(&entities.Question{ID: 9}, nil)
		m.accounts.On("IssueDailyQuestion", mock.Anything, int64(5), int64(9), mock.Anything).Return(nil).Once()

		challenge, err := m.service().Issue(context.Background(), 5, "ana")
		require.NoError(t, err)
		require.NotNil(t, challenge.Question)
		assert.Equal(t, int64(9), challenge.Question.ID)
		assert.Nil(t, challenge.Forfeited)
		assert.WithinDuration(t, time.Now().Add(DailyAnswerWindow), challenge.ExpiresAt, time.Second)
		m.accounts.AssertExpectations(t)
	})

	t.Run("re-shows the open question", func(t *testing.T) {
		t.Parallel()

		account := &entities.Account{PlayerID: 5, GuildID: 1}
		openDaily(account, 10*time.Second)
		m := newDailyMocks(account)
		m.questions.On("GetByID", mock.Anything, int64(7)).Return(&entities.Question{ID: 7}, nil)

		challenge, err := m.service().Issue(context.Background(), 5, "ana")
		require.NoError(t, err)
		assert.Equal(t, int64(7), challenge.Question.ID)
		assert.Equal(t, account.DailyIssuedAt.Add(DailyAnswerWindow), challenge.ExpiresAt)
		m.questions.AssertNotCalled(t, "PickLeastUsed", mock.Anything)
		m.accounts.AssertNotCalled(t, "IssueDailyQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("forfeits an expired question", func(t *testing.T) {
		t.Parallel()

		account := &entities.Account{PlayerID: 5, GuildID: 1, DailyStreak: 3}
		openDaily(account, 2*DailyAnswerWindow)
		m := newDailyMocks(account)
		m.questions.On("GetByID", mock.Anything, int64(7)).Return(&entities.Question{ID: 7, CorrectIndex: 1}, nil)
		m.questions.On("RecordUsage", mock.Anything, int64(7), false).Return(nil)
		m.accounts.On("RecordDailyClaim", mock.Anything, int64(5), int64(0), mock.Anything).Return(nil).Once()
		m.answers.On("Record", mock.Anything, mock.Anything).Return(true, nil)

		challenge, err := m.service().Issue(context.Background(), 5, "ana")
		require.NoError(t, err)
		assert.Nil(t, challenge.Question)
		require.NotNil(t, challenge.Forfeited)
		assert.True(t, challenge.Forfeited.TimedOut)
		assert.Zero(t, account.DailyStreak)
		m.accounts.AssertExpectations(t)
	})
}
