package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE postgres reports for a unique index conflict
const uniqueViolation = "23505"

// GoldenEventRepository implements interfaces.GoldenEventRepository
type GoldenEventRepository struct {
	q       Queryable
	guildID int64
}

// NewGoldenEventRepository creates a golden event repository scoped to a guild
func NewGoldenEventRepository(q Queryable, guildID int64) *GoldenEventRepository {
	return &GoldenEventRepository{q: q, guildID: guildID}
}

const goldenEventColumns = `id, guild_id, question_id, status, is_active, reward_points, jackpot, winner_id, started_at, expires_at, ended_at, created_at`

func scanGoldenEvent(row pgx.Row) (*entities.GoldenEvent, error) {
	var e entities.GoldenEvent
	err := row.Scan(&e.ID, &e.GuildID, &e.QuestionID, &e.Status, &e.IsActive, &e.RewardPoints, &e.Jackpot,
		&e.WinnerID, &e.StartedAt, &e.ExpiresAt, &e.EndedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectGoldenEvents(rows pgx.Rows) ([]*entities.GoldenEvent, error) {
	defer rows.Close()
	var result []*entities.GoldenEvent
	for rows.Next() {
		e, err := scanGoldenEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan golden event: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *GoldenEventRepository) queryOne(ctx context.Context, action, query string, args ...any) (*entities.GoldenEvent, error) {
	event, err := scanGoldenEvent(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s in guild %d: %w", action, r.guildID, err)
	}
	return event, nil
}

// GetOpen returns the pending or active event of the guild
func (r *GoldenEventRepository) GetOpen(ctx context.Context) (*entities.GoldenEvent, error) {
	return r.queryOne(ctx, "get open golden event", `
		SELECT `+goldenEventColumns+`
		FROM golden_events
		WHERE guild_id = $1 AND status IN ('pending', 'active')
		ORDER BY id
		LIMIT 1
	`, r.guildID)
}

// ListActive returns every row flagged active
func (r *GoldenEventRepository) ListActive(ctx context.Context) ([]*entities.GoldenEvent, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+goldenEventColumns+`
		FROM golden_events
		WHERE guild_id = $1 AND is_active
		ORDER BY id
	`, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active golden events in guild %d: %w", r.guildID, err)
	}
	return collectGoldenEvents(rows)
}

// GetLatestEnded returns the most recently resolved event
func (r *GoldenEventRepository) GetLatestEnded(ctx context.Context) (*entities.GoldenEvent, error) {
	return r.queryOne(ctx, "get latest golden event", `
		SELECT `+goldenEventColumns+`
		FROM golden_events
		WHERE guild_id = $1 AND ended_at IS NOT NULL
		ORDER BY ended_at DESC, id DESC
		LIMIT 1
	`, r.guildID)
}

// CreatePending inserts a pending event, returning nil when the guild already has one open
func (r *GoldenEventRepository) CreatePending(ctx context.Context, jackpot int64) (*entities.GoldenEvent, error) {
	if err := ensureGuild(ctx, r.q, r.guildID); err != nil {
		return nil, err
	}
	return r.queryOne(ctx, "create golden event", `
		INSERT INTO golden_events (guild_id, status, is_active, jackpot)
		VALUES ($1, 'pending', FALSE, $2)
		ON CONFLICT (guild_id) WHERE status IN ('pending', 'active') DO NOTHING
		RETURNING `+goldenEventColumns,
		r.guildID, jackpot)
}

// Activate moves a pending event to active. It reports false when the event is no longer
// pending or another event of the guild holds the active slot.
func (r *GoldenEventRepository) Activate(ctx context.Context, eventID, questionID, rewardPoints int64, startedAt, expiresAt time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE golden_events
		SET status = 'active',
		    is_active = TRUE,
		    question_id = $3,
		    reward_points = $4,
		    started_at = $5,
		    expires_at = $6
		WHERE guild_id = $1
		  AND id = $2
		  AND status = 'pending'
		  AND NOT EXISTS (
		      SELECT 1 FROM golden_events other
		      WHERE other.guild_id = $1 AND other.is_active AND other.id <> $2
		  )
	`, r.guildID, eventID, questionID, rewardPoints, startedAt, expiresAt)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to activate golden event %d: %w", eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Claim resolves an active, unexpired event for the winner. Only one caller can flip the row;
// the others get nil.
func (r *GoldenEventRepository) Claim(ctx context.Context, eventID, winnerID int64, at time.Time) (*entities.GoldenEvent, error) {
	return r.queryOne(ctx, "claim golden event", `
		UPDATE golden_events
		SET status = 'won',
		    is_active = FALSE,
		    winner_id = $3,
		    ended_at = $4
		WHERE guild_id = $1
		  AND id = $2
		  AND status = 'active'
		  AND expires_at > $4
		RETURNING `+goldenEventColumns,
		r.guildID, eventID, winnerID, at)
}

// ExpireDue moves active events past their deadline to expired
func (r *GoldenEventRepository) ExpireDue(ctx context.Context, now time.Time) ([]*entities.GoldenEvent, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE golden_events
		SET status = 'expired',
		    is_active = FALSE,
		    ended_at = $2
		WHERE guild_id = $1
		  AND status = 'active'
		  AND expires_at <= $2
		RETURNING `+goldenEventColumns,
		r.guildID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire golden events in guild %d: %w", r.guildID, err)
	}
	return collectGoldenEvents(rows)
}
