package dto

import (
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
)

// Currency selects which balance an admin adjustment touches
type Currency string

const (
	CurrencyPoints Currency = "points"
	CurrencyMoney  Currency = "money"
)

// IsValid reports whether the currency is known
func (c Currency) IsValid() bool {
	return c == CurrencyPoints || c == CurrencyMoney
}

// DailyAnswer is the player's answer to the open daily question
type DailyAnswer struct {
	QuestionID int64
	Choice     int // negative on timeout
	Latency    time.Duration
}

// QuestionDTO is a question as shown to a player, without the correct index
type QuestionDTO struct {
	ID         int64
	Text       string
	Options    []string
	Difficulty entities.Difficulty
	Category   string
}

// QuizChallenge is handed to a player who may answer a quiz question now
type QuizChallenge struct {
	GuildID  int64
	PlayerID int64
	Question QuestionDTO
}

// DailyChallenge is the open daily question. Forfeited is set instead when the
// previous question ran out of time.
type DailyChallenge struct {
	GuildID   int64
	PlayerID  int64
	Question  QuestionDTO
	ExpiresAt time.Time
	Forfeited *interfaces.DailyResult
}

// RobberyChallenge is handed to an attacker whose pre-check passed
type RobberyChallenge struct {
	GuildID    int64
	AttackerID int64
	VictimID   int64
	Question   QuestionDTO
}

// ChannelRouting updates the channel bindings of a guild. Nil fields are left unchanged.
type ChannelRouting struct {
	Quiz     *int64
	Gold     *int64
	Log      *int64
	Announce *int64
}

// NewQuestionDTO strips the answer from a question
func NewQuestionDTO(q *entities.Question) QuestionDTO {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionDTO{
		ID:         q.ID,
		Text:       q.Text,
		Options:    options,
		Difficulty: q.Difficulty,
		Category:   q.Category,
	}
}

// GoldenChallenge is the active golden question of a guild
type GoldenChallenge struct {
	GuildID      int64
	EventID      int64
	RewardPoints int64
	ExpiresAt    time.Time
	Question     QuestionDTO
}
