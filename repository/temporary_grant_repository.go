package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TemporaryGrantRepository implements interfaces.TemporaryGrantRepository
type TemporaryGrantRepository struct {
	q       Queryable
	guildID int64
}

// NewTemporaryGrantRepository creates a grant repository scoped to a guild
func NewTemporaryGrantRepository(q Queryable, guildID int64) *TemporaryGrantRepository {
	return &TemporaryGrantRepository{q: q, guildID: guildID}
}

const grantColumns = `id, player_id, guild_id, role_type, role_id, multiplier, granted_at, expires_at, removed, removed_at, removal_reason`

func scanGrant(row pgx.Row) (*entities.TemporaryGrant, error) {
	var g entities.TemporaryGrant
	err := row.Scan(&g.ID, &g.PlayerID, &g.GuildID, &g.RoleType, &g.RoleID, &g.Multiplier,
		&g.GrantedAt, &g.ExpiresAt, &g.Removed, &g.RemovedAt, &g.RemovalReason)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func collectGrants(rows pgx.Rows) ([]*entities.TemporaryGrant, error) {
	defer rows.Close()
	var grants []*entities.TemporaryGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *TemporaryGrantRepository) queryOne(ctx context.Context, action string, query string, args ...any) (*entities.TemporaryGrant, error) {
	grant, err := scanGrant(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s in guild %d: %w", action, r.guildID, err)
	}
	return grant, nil
}

// GetCurrentForUpdate locks the non-removed grant of a role type for a player, expired or not
func (r *TemporaryGrantRepository) GetCurrentForUpdate(ctx context.Context, playerID int64, roleType entities.GrantRoleType) (*entities.TemporaryGrant, error) {
	return r.queryOne(ctx, "get current grant", `
		SELECT `+grantColumns+`
		FROM temporary_grants
		WHERE guild_id = $1 AND player_id = $2 AND role_type = $3 AND NOT removed
		FOR UPDATE
	`, r.guildID, playerID, roleType)
}

// GetByID retrieves a grant
func (r *TemporaryGrantRepository) GetByID(ctx context.Context, id int64) (*entities.TemporaryGrant, error) {
	return r.queryOne(ctx, "get grant", `
		SELECT `+grantColumns+` FROM temporary_grants WHERE guild_id = $1 AND id = $2
	`, r.guildID, id)
}

// Create inserts a new grant
func (r *TemporaryGrantRepository) Create(ctx context.Context, grant *entities.TemporaryGrant) error {
	if !grant.RoleType.IsValid() {
		return fmt.Errorf("unknown grant role type %q", grant.RoleType)
	}
	grant.GuildID = r.guildID
	err := r.q.QueryRow(ctx, `
		INSERT INTO temporary_grants (guild_id, player_id, role_type, role_id, multiplier, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.guildID, grant.PlayerID, grant.RoleType, grant.RoleID, grant.Multiplier, grant.GrantedAt, grant.ExpiresAt).
		Scan(&grant.ID)
	if err != nil {
		return fmt.Errorf("failed to create %s grant for %d: %w", grant.RoleType, grant.PlayerID, err)
	}
	return nil
}

// Extend moves the expiry of a non-removed grant
func (r *TemporaryGrantRepository) Extend(ctx context.Context, id int64, expiresAt time.Time, multiplier float64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE temporary_grants
		SET expires_at = $3, multiplier = $4
		WHERE guild_id = $1 AND id = $2 AND NOT removed
	`, r.guildID, id, expiresAt, multiplier)
	if err != nil {
		return fmt.Errorf("failed to extend grant %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("grant %d not found or already removed", id)
	}
	return nil
}

// MarkRemoved flips removed exactly once
func (r *TemporaryGrantRepository) MarkRemoved(ctx context.Context, id int64, reason entities.RemovalReason, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE temporary_grants
		SET removed = TRUE, removed_at = $3, removal_reason = $4
		WHERE guild_id = $1 AND id = $2 AND NOT removed
	`, r.guildID, id, at, reason)
	if err != nil {
		return false, fmt.Errorf("failed to remove grant %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveExpired flips every due grant and returns the ones this call flipped
func (r *TemporaryGrantRepository) RemoveExpired(ctx context.Context, now time.Time) ([]*entities.TemporaryGrant, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE temporary_grants
		SET removed = TRUE, removed_at = $2, removal_reason = 'expired'
		WHERE guild_id = $1 AND NOT removed AND expires_at <= $2
		RETURNING `+grantColumns,
		r.guildID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire grants in guild %d: %w", r.guildID, err)
	}
	return collectGrants(rows)
}

// ListActive returns active grants of a role type
func (r *TemporaryGrantRepository) ListActive(ctx context.Context, roleType entities.GrantRoleType, now time.Time) ([]*entities.TemporaryGrant, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+grantColumns+`
		FROM temporary_grants
		WHERE guild_id = $1 AND role_type = $2 AND NOT removed AND granted_at <= $3 AND expires_at > $3
		ORDER BY expires_at, id
	`, r.guildID, roleType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s grants in guild %d: %w", roleType, r.guildID, err)
	}
	return collectGrants(rows)
}

// ListActiveByPlayer returns every active grant of a player
func (r *TemporaryGrantRepository) ListActiveByPlayer(ctx context.Context, playerID int64, now time.Time) ([]*entities.TemporaryGrant, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+grantColumns+`
		FROM temporary_grants
		WHERE guild_id = $1 AND player_id = $2 AND NOT removed AND granted_at <= $3 AND expires_at > $3
		ORDER BY expires_at, id
	`, r.guildID, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants of %d: %w", playerID, err)
	}
	return collectGrants(rows)
}

// GetMultiplier returns the highest active multiplier for a player, 1 when none
func (r *TemporaryGrantRepository) GetMultiplier(ctx context.Context, playerID int64, now time.Time) (float64, error) {
	var multiplier float64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(multiplier), 1)
		FROM temporary_grants
		WHERE guild_id = $1 AND player_id = $2 AND NOT removed AND granted_at <= $3 AND expires_at > $3
	`, r.guildID, playerID, now).Scan(&multiplier)
	if err != nil {
		return 0, fmt.Errorf("failed to get multiplier of %d: %w", playerID, err)
	}
	if multiplier < 1 {
		multiplier = 1
	}
	return multiplier, nil
}

// CountActive returns the number of active grants in the guild
func (r *TemporaryGrantRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM temporary_grants
		WHERE guild_id = $1 AND NOT removed AND granted_at <= $2 AND expires_at > $2
	`, r.guildID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count grants in guild %d: %w", r.guildID, err)
	}
	return count, nil
}
