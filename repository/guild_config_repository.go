package repository

import (
	"context"
	"fmt"

	"quizbot/domain/entities"
)

// GuildConfigRepository implements interfaces.GuildConfigRepository
type GuildConfigRepository struct {
	q       Queryable
	guildID int64
}

// NewGuildConfigRepository creates a configuration repository scoped to a guild
func NewGuildConfigRepository(q Queryable, guildID int64) *GuildConfigRepository {
	return &GuildConfigRepository{q: q, guildID: guildID}
}

// GetOrCreate returns the guild's configuration, inserting defaults on first use
func (r *GuildConfigRepository) GetOrCreate(ctx context.Context) (*entities.GuildConfig, error) {
	if err := ensureGuild(ctx, r.q, r.guildID); err != nil {
		return nil, err
	}
	if _, err := r.q.Exec(ctx, `INSERT INTO guild_config (guild_id) VALUES ($1) ON CONFLICT (guild_id) DO NOTHING`, r.guildID); err != nil {
		return nil, fmt.Errorf("failed to create config for guild %d: %w", r.guildID, err)
	}

	var c entities.GuildConfig
	err := r.q.QueryRow(ctx, `
		SELECT guild_id, quiz_channel_id, gold_channel_id, log_channel_id, announce_channel_id,
		       top_role_ids, locale,
		       daily_points, quiz_points, gold_min_points, gold_max_points,
		       quiz_cooldown_min, daily_cooldown_hours, robbery_cooldown_min,
		       max_robberies_daily, min_money_to_rob,
		       robbery_min_pct, robbery_max_pct, robbery_fail_pct, robbery_elo_delta,
		       gold_interval_min, gold_interval_max, gold_quiz_chance, gold_answer_window_sec,
		       created_at, updated_at
		FROM guild_config
		WHERE guild_id = $1
	`, r.guildID).Scan(
		&c.GuildID, &c.QuizChannelID, &c.GoldChannelID, &c.LogChannelID, &c.AnnounceChannelID,
		&c.TopRoleIDs, &c.Locale,
		&c.DailyPoints, &c.QuizPoints, &c.GoldMinPoints, &c.GoldMaxPoints,
		&c.QuizCooldownMin, &c.DailyCooldownHours, &c.RobberyCooldownMin,
		&c.MaxRobberiesDaily, &c.MinMoneyToRob,
		&c.RobberyMinPct, &c.RobberyMaxPct, &c.RobberyFailPct, &c.RobberyEloDelta,
		&c.GoldIntervalMin, &c.GoldIntervalMax, &c.GoldQuizChance, &c.GoldAnswerWindowSec,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get config for guild %d: %w", r.guildID, err)
	}
	if c.TopRoleIDs == nil {
		c.TopRoleIDs = []int64{}
	}
	return &c, nil
}

// Update persists the configuration after validating its ordering rules
func (r *GuildConfigRepository) Update(ctx context.Context, cfg *entities.GuildConfig) error {
	if cfg.GuildID != r.guildID {
		return fmt.Errorf("config for guild %d written through guild %d", cfg.GuildID, r.guildID)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	topRoles := cfg.TopRoleIDs
	if topRoles == nil {
		topRoles = []int64{}
	}

	err := r.q.QueryRow(ctx, `
		UPDATE guild_config
		SET quiz_channel_id = $2, gold_channel_id = $3, log_channel_id = $4, announce_channel_id = $5,
		    top_role_ids = $6, locale = $7,
		    daily_points = $8, quiz_points = $9, gold_min_points = $10, gold_max_points = $11,
		    quiz_cooldown_min = $12, daily_cooldown_hours = $13, robbery_cooldown_min = $14,
		    max_robberies_daily = $15, min_money_to_rob = $16,
		    robbery_min_pct = $17, robbery_max_pct = $18, robbery_fail_pct = $19, robbery_elo_delta = $20,
		    gold_interval_min = $21, gold_interval_max = $22, gold_quiz_chance = $23, gold_answer_window_sec = $24,
		    updated_at = NOW()
		WHERE guild_id = $1
		RETURNING updated_at
	`, r.guildID, cfg.QuizChannelID, cfg.GoldChannelID, cfg.LogChannelID, cfg.AnnounceChannelID,
		topRoles, cfg.Locale,
		cfg.DailyPoints, cfg.QuizPoints, cfg.GoldMinPoints, cfg.GoldMaxPoints,
		cfg.QuizCooldownMin, cfg.DailyCooldownHours, cfg.RobberyCooldownMin,
		cfg.MaxRobberiesDaily, cfg.MinMoneyToRob,
		cfg.RobberyMinPct, cfg.RobberyMaxPct, cfg.RobberyFailPct, cfg.RobberyEloDelta,
		cfg.GoldIntervalMin, cfg.GoldIntervalMax, cfg.GoldQuizChance, cfg.GoldAnswerWindowSec,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update config for guild %d: %w", r.guildID, err)
	}
	return nil
}
