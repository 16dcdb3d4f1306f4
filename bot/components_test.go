package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerButton_RoundTrip(t *testing.T) {
	t.Parallel()

	issued := time.UnixMilli(1_700_000_000_123)
	tests := []struct {
		name   string
		button answerButton
		want   string
	}{
		{
			name:   "quiz",
			button: answerButton{Action: actionQuiz, RefID: 42, Choice: 3, Issued: issued},
			want:   "quiz:42:3:1700000000123",
		},
		{
			name:   "robbery carries the victim",
			button: answerButton{Action: actionRob, TargetID: 987654321, RefID: 7, Choice: 0, Issued: issued},
			want:   "rob:987654321:7:0:1700000000123",
		},
		{
			name:   "golden",
			button: answerButton{Action: actionGold, RefID: 11, Choice: 2, Issued: issued},
			want:   "gold:11:2:1700000000123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := encodeAnswerButton(tt.button)
			assert.Equal(t, tt.want, encoded)

			decoded, err := decodeAnswerButton(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.button.Action, decoded.Action)
			assert.Equal(t, tt.button.TargetID, decoded.TargetID)
			assert.Equal(t, tt.button.RefID, decoded.RefID)
			assert.Equal(t, tt.button.Choice, decoded.Choice)
			assert.True(t, tt.button.Issued.Equal(decoded.Issued))
		})
	}
}

func TestDecodeAnswerButton_Rejects(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "bet:1:2:3", "quiz:1:2", "rob:1:2:3", "quiz:x:1:1", "gold:1:y:1"} {
		_, err := decodeAnswerButton(id)
		assert.Error(t, err, id)
	}
}

func TestAnswerButton_LatencyNeverNegative(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := answerButton{Issued: now.Add(time.Second)}
	assert.Zero(t, b.Latency(now))

	b.Issued = now.Add(-1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, b.Latency(now))
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	wait := services.NewIneligibleError(entities.IneligibleFor(entities.ReasonQuizCooldown, 5*time.Minute))
	assert.Equal(t, "You answered a quiz recently (try again in 5m)", userMessage(wait))

	shielded := fmt.Errorf("wrapped: %w", services.NewIneligibleError(entities.Ineligible(entities.ReasonVictimShielded)))
	assert.Equal(t, "That player is protected by a shield", userMessage(shielded))

	assert.Equal(t, "Someone else got there first", userMessage(services.ErrAlreadyResolved))
	assert.Equal(t, "The server is busy, please try again", userMessage(fmt.Errorf("x: %w", services.ErrConcurrencyConflict)))
	assert.Equal(t, "quiz_points must be an integer", userMessage(fmt.Errorf("%w: quiz_points must be an integer", services.ErrInvalidInput)))
	assert.Equal(t, "Something went wrong, please try again later", userMessage(errors.New("boom")))
}
