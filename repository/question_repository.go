package repository

import (
	"context"
	"errors"
	"fmt"

	"quizbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// questionPickWindow is how many of the least used questions a pick chooses from
const questionPickWindow = 20

// QuestionRepository implements interfaces.QuestionRepository. Questions are shared by every guild.
type QuestionRepository struct {
	q Queryable
}

// NewQuestionRepository creates a question repository
func NewQuestionRepository(q Queryable) *QuestionRepository {
	return &QuestionRepository{q: q}
}

const questionColumns = `id, text, options, correct_index, difficulty, category, source, times_used, times_correct, created_at`

func scanQuestion(row pgx.Row) (*entities.Question, error) {
	var q entities.Question
	err := row.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectIndex, &q.Difficulty, &q.Category, &q.Source,
		&q.TimesUsed, &q.TimesCorrect, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create stores a validated question
func (r *QuestionRepository) Create(ctx context.Context, question *entities.Question) error {
	if err := question.Validate(); err != nil {
		return fmt.Errorf("invalid question: %w", err)
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO questions (text, options, correct_index, difficulty, category, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, question.Text, question.Options, question.CorrectIndex, question.Difficulty, question.Category, question.Source).
		Scan(&question.ID, &question.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetByID retrieves a question
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*entities.Question, error) {
	question, err := scanQuestion(r.q.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", id, err)
	}
	return question, nil
}

// PickLeastUsed returns a random question among the least used ones
func (r *QuestionRepository) PickLeastUsed(ctx context.Context) (*entities.Question, error) {
	question, err := scanQuestion(r.q.QueryRow(ctx, `
		SELECT `+questionColumns+`
		FROM (
			SELECT * FROM questions ORDER BY times_used, id LIMIT $1
		) AS candidates
		ORDER BY random()
		LIMIT 1
	`, questionPickWindow))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick question: %w", err)
	}
	return question, nil
}

// RecordUsage increments the usage counters
func (r *QuestionRepository) RecordUsage(ctx context.Context, id int64, correct bool) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE questions
		SET times_used = times_used + 1,
		    times_correct = times_correct + CASE WHEN $2 THEN 1 ELSE 0 END
		WHERE id = $1
	`, id, correct)
	if err != nil {
		return fmt.Errorf("failed to record usage of question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %d not found", id)
	}
	return nil
}
