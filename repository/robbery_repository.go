package repository

import (
	"context"
	"fmt"

	"quizbot/domain/entities"
)

// RobberyRepository implements interfaces.RobberyRepository
type RobberyRepository struct {
	q       Queryable
	guildID int64
}

// NewRobberyRepository creates a robbery log repository scoped to a guild
func NewRobberyRepository(q Queryable, guildID int64) *RobberyRepository {
	return &RobberyRepository{q: q, guildID: guildID}
}

// Create appends a robbery outcome
func (r *RobberyRepository) Create(ctx context.Context, robbery *entities.Robbery) error {
	robbery.GuildID = r.guildID
	err := r.q.QueryRow(ctx, `
		INSERT INTO robberies (guild_id, attacker_id, victim_id, question_id, success, money_stolen, elo_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.guildID, robbery.AttackerID, robbery.VictimID, robbery.QuestionID, robbery.Success,
		robbery.MoneyStolen, robbery.EloChange).Scan(&robbery.ID, &robbery.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record robbery %d -> %d: %w", robbery.AttackerID, robbery.VictimID, err)
	}
	return nil
}

// GetByPlayer returns recent robberies involving the player, newest first
func (r *RobberyRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Robbery, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, guild_id, attacker_id, victim_id, question_id, success, money_stolen, elo_change, created_at
		FROM robberies
		WHERE guild_id = $1 AND (attacker_id = $2 OR victim_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, r.guildID, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get robberies for %d: %w", playerID, err)
	}
	defer rows.Close()

	var robberies []*entities.Robbery
	for rows.Next() {
		var rb entities.Robbery
		if err := rows.Scan(&rb.ID, &rb.GuildID, &rb.AttackerID, &rb.VictimID, &rb.QuestionID, &rb.Success,
			&rb.MoneyStolen, &rb.EloChange, &rb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan robbery: %w", err)
		}
		robberies = append(robberies, &rb)
	}
	return robberies, rows.Err()
}
