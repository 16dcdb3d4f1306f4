package entities

import (
	"errors"
	"time"
)

// OptionCount is the fixed number of options every question carries
const OptionCount = 4

// Difficulty of a question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is shared quiz content. Only the usage counters change after creation.
type Question struct {
	ID           int64      `db:"id"`
	Text         string     `db:"text"`
	Options      []string   `db:"options"`
	CorrectIndex int        `db:"correct_index"`
	Difficulty   Difficulty `db:"difficulty"`
	Category     string     `db:"category"`
	Source       string     `db:"source"`
	TimesUsed    int64      `db:"times_used"`
	TimesCorrect int64      `db:"times_correct"`
	CreatedAt    time.Time  `db:"created_at"`
}

// IsCorrect reports whether the chosen option index is the right one.
// Negative choices represent a timeout and are never correct.
func (q *Question) IsCorrect(choice int) bool {
	return choice >= 0 && choice == q.CorrectIndex
}

// Validate checks the structural rules a question must satisfy before it is stored
func (q *Question) Validate() error {
	if q.Text == "" {
		return errors.New("question text cannot be empty")
	}
	if len(q.Options) != OptionCount {
		return errors.New("question must have exactly four options")
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return errors.New("correct index out of range")
	}
	switch q.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return errors.New("unknown difficulty")
	}
	return nil
}

// SuccessRate returns how often the question has been answered correctly, in percent
func (q *Question) SuccessRate() float64 {
	if q.TimesUsed == 0 {
		return 0
	}
	return float64(q.TimesCorrect) / float64(q.TimesUsed) * 100
}
