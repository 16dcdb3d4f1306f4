package utils

import (
	"context"
	"errors"
	"testing"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestApplyDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		balance     entities.Delta
		requested   entities.Delta
		wantApplied entities.Delta
		wantWrite   bool
	}{
		{name: "credit", balance: entities.Delta{Points: 10, Money: 10}, requested: entities.Delta{Points: 5, Money: 5}, wantApplied: entities.Delta{Points: 5, Money: 5}, wantWrite: true},
		{name: "debit inside balance", balance: entities.Delta{Money: 30}, requested: entities.Delta{Money: -12}, wantApplied: entities.Delta{Money: -12}, wantWrite: true},
		{name: "debit clamped at zero", balance: entities.Delta{Points: 3, Money: 55}, requested: entities.Delta{Points: -10, Money: -82}, wantApplied: entities.Delta{Points: -3, Money: -55}, wantWrite: true},
		{name: "debit on empty account records a zero entry", balance: entities.Delta{}, requested: entities.Delta{Money: -20}, wantApplied: entities.Delta{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts := new(testhelpers.MockAccountRepository)
			transactions := new(testhelpers.MockTransactionRepository)
			publisher := new(testhelpers.MockEventPublisher)
			account := &entities.Account{PlayerID: 5, GuildID: 1, Points: tt.balance.Points, Money: tt.balance.Money}

			want := entities.Delta{Points: tt.balance.Points + tt.wantApplied.Points, Money: tt.balance.Money + tt.wantApplied.Money}
			if tt.wantWrite {
				accounts.On("UpdateBalances", mock.Anything, int64(5), want.Points, want.Money).Return(nil)
			}
			transactions.On("Record", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
				return tx.PointsDelta == tt.wantApplied.Points && tx.MoneyDelta == tt.wantApplied.Money && tx.GuildID == 1
			})).Return(nil)
			publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)

			change, err := ApplyDelta(context.Background(), accounts, transactions, publisher, account,
				entities.TransactionTypeRobLose, tt.requested, "test")
			require.NoError(t, err)
			assert.Equal(t, tt.requested, change.Requested)
			assert.Equal(t, tt.wantApplied, change.Applied)
			assert.Equal(t, want, account.Balance())
			require.NotNil(t, change.Transaction)
			if !tt.wantWrite {
				accounts.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			transactions.AssertExpectations(t)
		})
	}
}

func TestApplyDelta_ZeroRequestIsNoop(t *testing.T) {
	t.Parallel()

	accounts := new(testhelpers.MockAccountRepository)
	transactions := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	account := &entities.Account{PlayerID: 5, GuildID: 1, Money: 10}

	change, err := ApplyDelta(context.Background(), accounts, transactions, publisher, account,
		entities.TransactionTypeQuiz, entities.Delta{}, "nothing")
	require.NoError(t, err)
	assert.Nil(t, change.Transaction)
	transactions.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestApplyOutcome_RecordsZeroRequest(t *testing.T) {
	t.Parallel()

	accounts := new(testhelpers.MockAccountRepository)
	transactions := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	account := &entities.Account{PlayerID: 5, GuildID: 1}

	transactions.On("Record", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Type == entities.TransactionTypeRobLose && tx.MoneyDelta == 0 && tx.PointsDelta == 0
	})).Return(nil).Once()
	publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)

	change, err := ApplyOutcome(context.Background(), accounts, transactions, publisher, account,
		entities.TransactionTypeRobLose, entities.Delta{}, "Failed robbery on 9")
	require.NoError(t, err)
	require.NotNil(t, change.Transaction)
	assert.True(t, change.Applied.IsZero())
	accounts.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	transactions.AssertExpectations(t)
}

func TestApplyDelta_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := ApplyDelta(context.Background(), nil, nil, nil, &entities.Account{},
		entities.TransactionType("gift"), entities.Delta{Money: 1}, "")
	assert.Error(t, err)
}

func TestApplyDelta_PublishFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	accounts := new(testhelpers.MockAccountRepository)
	transactions := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	account := &entities.Account{PlayerID: 5, GuildID: 1}

	accounts.On("UpdateBalances", mock.Anything, int64(5), int64(3), int64(3)).Return(nil)
	transactions.On("Record", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == events.EventTypeBalanceChange
	})).Return(errors.New("nats down"))

	_, err := ApplyDelta(context.Background(), accounts, transactions, publisher, account,
		entities.TransactionTypeQuiz, entities.Delta{Points: 3, Money: 3}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), account.Points)
}
