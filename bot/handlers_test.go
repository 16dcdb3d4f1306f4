package bot

import (
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardEmbed(t *testing.T) {
	t.Parallel()

	entries := []*entities.LeaderboardEntry{
		{Rank: 1, Account: &entities.Account{PlayerID: 10, Points: 1500, Money: 20, TotalQuizzes: 4, CorrectAnswers: 3}},
		{Rank: 2, Account: &entities.Account{PlayerID: 20, Points: 900, Money: 5000}},
	}

	tests := []struct {
		metric entities.LeaderboardMetric
		first  string
	}{
		{entities.LeaderboardPoints, "**1.** <@10> · 1,500 points\n"},
		{entities.LeaderboardMoney, "**1.** <@10> · 20 coins\n"},
		{entities.LeaderboardAccuracy, "**1.** <@10> · 75.0%\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			t.Parallel()
			embed := leaderboardEmbed(tt.metric, 1, entries)
			assert.Contains(t, embed.Description, tt.first)
			assert.Equal(t, "Page 1", embed.Footer.Text)
		})
	}

	empty := leaderboardEmbed(entities.LeaderboardElo, 3, nil)
	assert.Equal(t, "Nobody here yet.", empty.Description)
	assert.Equal(t, "Page 3", empty.Footer.Text)
}

func TestResultEmbeds(t *testing.T) {
	t.Parallel()

	wrong := quizResultEmbed(false, 2, 0, 0)
	assert.Contains(t, wrong.Description, "**C**")

	bonus := quizResultEmbed(true, 0, 5, 40)
	assert.Contains(t, bonus.Description, "**5** points")
	assert.Contains(t, bonus.Description, "+40")

	lost := dailyEmbed(&interfaces.DailyResult{})
	assert.Equal(t, colorFailure, lost.Color)
	assert.Contains(t, lost.Description, "Wrong answer")

	late := dailyEmbed(&interfaces.DailyResult{TimedOut: true})
	assert.Contains(t, late.Description, "Time ran out")

	claimed := dailyEmbed(&interfaces.DailyResult{Correct: true, Reward: 12, Streak: 3})
	assert.Equal(t, colorSuccess, claimed.Color)
	assert.Contains(t, claimed.Description, "Streak: **3**")

	failed := robberyResultEmbed(&entities.Robbery{VictimID: 3, Success: false, MoneyStolen: -12})
	assert.Contains(t, failed.Description, "**12** coins")

	missed := goldenResultEmbed(true, false, &entities.GoldenEvent{RewardPoints: 30})
	assert.Equal(t, colorInfo, missed.Color)
}

func TestReconciliationReport(t *testing.T) {
	t.Parallel()

	ok := reconciliationReport(&entities.Reconciliation{PlayerID: 1, Points: 10, Money: 5, LedgerPoints: 10, LedgerMoney: 5})
	assert.Contains(t, ok, "✅ <@1> matches the ledger")

	drift := reconciliationReport(&entities.Reconciliation{PlayerID: 1, Points: 10, Money: 5, LedgerPoints: 8, LedgerMoney: 5})
	assert.Contains(t, drift, "⚠️")
	assert.Contains(t, drift, "Points: 10 (ledger 8)")
}

func TestAnswerButtonsCarryEveryChoice(t *testing.T) {
	t.Parallel()

	issued := time.UnixMilli(1_700_000_000_000)
	rows := answerButtons(answerButton{Action: actionGold, RefID: 5, Issued: issued}, 3)
	require.Len(t, rows, 1)

	row, ok := rows[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 3)
	for i, component := range row.Components {
		button, ok := component.(discordgo.Button)
		require.True(t, ok)
		assert.Equal(t, optionLabels[i], button.Label)

		decoded, err := decodeAnswerButton(button.CustomID)
		require.NoError(t, err)
		assert.Equal(t, i, decoded.Choice)
		assert.Equal(t, int64(5), decoded.RefID)
	}
}
