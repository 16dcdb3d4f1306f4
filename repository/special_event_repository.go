package repository

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// SpecialEventRepository implements interfaces.SpecialEventRepository
type SpecialEventRepository struct {
	q       Queryable
	guildID int64
}

// NewSpecialEventRepository creates a special event repository scoped to a guild
func NewSpecialEventRepository(q Queryable, guildID int64) *SpecialEventRepository {
	return &SpecialEventRepository{q: q, guildID: guildID}
}

const specialEventColumns = `id, guild_id, event_type, starts_at, ends_at, announced, created_by, created_at`

func collectSpecialEvents(rows pgx.Rows) ([]*entities.SpecialEvent, error) {
	defer rows.Close()
	var result []*entities.SpecialEvent
	for rows.Next() {
		var e entities.SpecialEvent
		if err := rows.Scan(&e.ID, &e.GuildID, &e.EventType, &e.StartsAt, &e.EndsAt, &e.Announced, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan special event: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

// Create inserts a scheduled event
func (r *SpecialEventRepository) Create(ctx context.Context, event *entities.SpecialEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid special event: %w", err)
	}
	if err := ensureGuild(ctx, r.q, r.guildID); err != nil {
		return err
	}
	event.GuildID = r.guildID
	err := r.q.QueryRow(ctx, `
		INSERT INTO special_events (guild_id, event_type, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, announced, created_at
	`, r.guildID, event.EventType, event.StartsAt, event.EndsAt, event.CreatedBy).
		Scan(&event.ID, &event.Announced, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s event in guild %d: %w", event.EventType, r.guildID, err)
	}
	return nil
}

// ListActive returns events whose window contains now
func (r *SpecialEventRepository) ListActive(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+specialEventColumns+`
		FROM special_events
		WHERE guild_id = $1 AND starts_at <= $2 AND ends_at > $2
		ORDER BY starts_at, id
	`, r.guildID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active special events in guild %d: %w", r.guildID, err)
	}
	return collectSpecialEvents(rows)
}

// ListUpcoming returns events that have not ended yet
func (r *SpecialEventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+specialEventColumns+`
		FROM special_events
		WHERE guild_id = $1 AND ends_at > $2
		ORDER BY starts_at, id
	`, r.guildID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list special events in guild %d: %w", r.guildID, err)
	}
	return collectSpecialEvents(rows)
}

// MarkAnnouncedDue flips announced on started events that are still running
func (r *SpecialEventRepository) MarkAnnouncedDue(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE special_events
		SET announced = TRUE
		WHERE guild_id = $1 AND NOT announced AND starts_at <= $2 AND ends_at > $2
		RETURNING `+specialEventColumns,
		r.guildID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to announce special events in guild %d: %w", r.guildID, err)
	}
	return collectSpecialEvents(rows)
}

// EndEarly closes an event window at now. Events that have not started yet are cut to a
// one-microsecond window so the ends_at > starts_at check still holds.
func (r *SpecialEventRepository) EndEarly(ctx context.Context, id int64, now time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE special_events
		SET ends_at = GREATEST($3, starts_at + INTERVAL '1 microsecond')
		WHERE guild_id = $1 AND id = $2 AND ends_at > $3
	`, r.guildID, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to end special event %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
