package repository

import (
	"context"
	"fmt"
)

// ensureGuild registers the guild row every scoped table hangs off
func ensureGuild(ctx context.Context, q Queryable, guildID int64) error {
	if _, err := q.Exec(ctx, `INSERT INTO guilds (guild_id) VALUES ($1) ON CONFLICT (guild_id) DO NOTHING`, guildID); err != nil {
		return fmt.Errorf("failed to register guild %d: %w", guildID, err)
	}
	return nil
}

// GuildRepository implements interfaces.GuildRepository. It is not scoped to a guild.
type GuildRepository struct {
	q Queryable
}

// NewGuildRepository creates a guild registry repository
func NewGuildRepository(q Queryable) *GuildRepository {
	return &GuildRepository{q: q}
}

// Ensure registers a guild, updating its name when one is given
func (r *GuildRepository) Ensure(ctx context.Context, guildID int64, name string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO guilds (guild_id, name)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE
		SET name = CASE WHEN EXCLUDED.name = '' THEN guilds.name ELSE EXCLUDED.name END
	`, guildID, name)
	if err != nil {
		return fmt.Errorf("failed to register guild %d: %w", guildID, err)
	}
	return nil
}

// ListIDs returns every registered guild in ascending order
func (r *GuildRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT guild_id FROM guilds ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a guild. Rows without a foreign key to guilds or accounts are removed explicitly.
func (r *GuildRepository) Delete(ctx context.Context, guildID int64) error {
	for _, table := range []string{"transactions", "temporary_grants", "robberies", "answer_records", "golden_events", "special_events"} {
		if _, err := r.q.Exec(ctx, `DELETE FROM `+table+` WHERE guild_id = $1`, guildID); err != nil {
			return fmt.Errorf("failed to delete %s of guild %d: %w", table, guildID, err)
		}
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM guilds WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("failed to delete guild %d: %w", guildID, err)
	}
	return nil
}
