package entities

import "time"

// AnswerContext tags which mechanic an answer belonged to
type AnswerContext string

const (
	AnswerContextDaily   AnswerContext = "daily"
	AnswerContextQuiz    AnswerContext = "quiz"
	AnswerContextGold    AnswerContext = "gold"
	AnswerContextRobbery AnswerContext = "robbery"
)

// AnswerRecord is one append-only answer attempt
type AnswerRecord struct {
	ID            int64         `db:"id"`
	PlayerID      int64         `db:"player_id"`
	GuildID       int64         `db:"guild_id"`
	QuestionID    int64         `db:"question_id"`
	GoldenEventID *int64        `db:"golden_event_id"`
	ChosenIndex   int           `db:"chosen_index"` // -1 when the player timed out
	IsCorrect     bool          `db:"is_correct"`
	PointsEarned  int64         `db:"points_earned"`
	MoneyEarned   int64         `db:"money_earned"`
	Context       AnswerContext `db:"context"`
	ResponseTime  time.Duration `db:"response_ms"`
	AnsweredAt    time.Time     `db:"answered_at"`
}
