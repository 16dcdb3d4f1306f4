package repository

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"
)

// AnswerRecordRepository implements interfaces.AnswerRecordRepository
type AnswerRecordRepository struct {
	q       Queryable
	guildID int64
}

// NewAnswerRecordRepository creates an answer history repository scoped to a guild
func NewAnswerRecordRepository(q Queryable, guildID int64) *AnswerRecordRepository {
	return &AnswerRecordRepository{q: q, guildID: guildID}
}

// Record appends an answer. A second answer to the same golden event is dropped by the
// partial unique index and reported as not inserted.
func (r *AnswerRecordRepository) Record(ctx context.Context, record *entities.AnswerRecord) (bool, error) {
	record.GuildID = r.guildID
	if record.AnsweredAt.IsZero() {
		record.AnsweredAt = time.Now()
	}

	rows, err := r.q.Query(ctx, `
		INSERT INTO answer_records (
			guild_id, player_id, question_id, golden_event_id, chosen_index, is_correct,
			points_earned, money_earned, context, response_ms, answered_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (golden_event_id, player_id) WHERE golden_event_id IS NOT NULL DO NOTHING
		RETURNING id
	`, r.guildID, record.PlayerID, record.QuestionID, record.GoldenEventID, record.ChosenIndex, record.IsCorrect,
		record.PointsEarned, record.MoneyEarned, record.Context, record.ResponseTime.Milliseconds(), record.AnsweredAt)
	if err != nil {
		return false, fmt.Errorf("failed to record answer for %d: %w", record.PlayerID, err)
	}
	defer rows.Close()

	inserted := false
	if rows.Next() {
		if err := rows.Scan(&record.ID); err != nil {
			return false, fmt.Errorf("failed to scan answer id: %w", err)
		}
		inserted = true
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to record answer for %d: %w", record.PlayerID, err)
	}
	return inserted, nil
}

// LastAnswerAt returns when the player last answered in a context
func (r *AnswerRecordRepository) LastAnswerAt(ctx context.Context, playerID int64, answerContext entities.AnswerContext) (*time.Time, error) {
	var last *time.Time
	err := r.q.QueryRow(ctx, `
		SELECT MAX(answered_at) FROM answer_records
		WHERE guild_id = $1 AND player_id = $2 AND context = $3
	`, r.guildID, playerID, answerContext).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get last %s answer for %d: %w", answerContext, playerID, err)
	}
	return last, nil
}

// HasGoldenAttempt reports whether the player already answered the golden event
func (r *AnswerRecordRepository) HasGoldenAttempt(ctx context.Context, eventID, playerID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM answer_records
			WHERE guild_id = $1 AND golden_event_id = $2 AND player_id = $3
		)
	`, r.guildID, eventID, playerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check golden attempt for %d: %w", playerID, err)
	}
	return exists, nil
}
