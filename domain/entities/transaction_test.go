package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		balance   Delta
		requested Delta
		want      Delta
	}{
		{
			name:      "credit is applied unchanged",
			balance:   Delta{Points: 10, Money: 5},
			requested: Delta{Points: 7, Money: 3},
			want:      Delta{Points: 7, Money: 3},
		},
		{
			name:      "debit within balance is applied unchanged",
			balance:   Delta{Points: 10, Money: 50},
			requested: Delta{Points: -10, Money: -20},
			want:      Delta{Points: -10, Money: -20},
		},
		{
			name:      "overdraft is truncated to reach exactly zero",
			balance:   Delta{Points: 4, Money: 12},
			requested: Delta{Points: -9, Money: -100},
			want:      Delta{Points: -4, Money: -12},
		},
		{
			name:      "debit on empty balance applies nothing",
			balance:   Delta{},
			requested: Delta{Points: -1, Money: -1},
			want:      Delta{},
		},
		{
			name:      "components are clamped independently",
			balance:   Delta{Points: 100, Money: 3},
			requested: Delta{Points: -50, Money: -5},
			want:      Delta{Points: -50, Money: -3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClampDelta(tt.balance, tt.requested))
		})
	}
}

func TestClampDelta_ReplayMatchesLedgerSum(t *testing.T) {
	t.Parallel()

	requested := []int64{50, -20, -100, 30, -5, -5, 200, -199, -7}

	var balance int64
	var ledger int64
	for _, r := range requested {
		applied := ClampDelta(Delta{Money: balance}, Delta{Money: r})
		balance += applied.Money
		ledger += applied.Money
		assert.GreaterOrEqual(t, balance, int64(0))
	}

	assert.Equal(t, balance, ledger)
	assert.Equal(t, int64(14), balance)
}

func TestReconciliation_IsConsistent(t *testing.T) {
	t.Parallel()

	r := &Reconciliation{Points: 10, Money: 20, LedgerPoints: 10, LedgerMoney: 20}
	assert.True(t, r.IsConsistent())

	r.LedgerMoney = 19
	assert.False(t, r.IsConsistent())
}

func TestTransactionType_IsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, TransactionTypeRobWin.IsValid())
	assert.True(t, TransactionTypeShieldBuy.IsValid())
	assert.False(t, TransactionType("bet_win").IsValid())
	assert.True(t, TransactionTypeGold.IsRewardType())
	assert.True(t, TransactionTypeRobLose.IsRobberyType())
	assert.False(t, TransactionTypeAdmin.IsRewardType())
}
