package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// accountColumns selects an account with its shield expiry derived from the active shield grant
const accountColumns = `
	a.guild_id,
	a.player_id,
	a.display_name,
	a.points,
	a.money,
	a.elo,
	a.daily_streak,
	a.last_daily,
	a.daily_question_id,
	a.daily_issued_at,
	a.gold_wins,
	a.total_quizzes,
	a.correct_answers,
	a.robberies_today,
	a.robbery_day,
	a.last_robbery,
	(SELECT MAX(g.expires_at)
	 FROM temporary_grants g
	 WHERE g.guild_id = a.guild_id
	   AND g.player_id = a.player_id
	   AND g.role_type = 'shield'
	   AND NOT g.removed
	   AND g.expires_at > NOW()) AS shield_until,
	a.created_at,
	a.updated_at
`

// AccountRepository implements interfaces.AccountRepository
type AccountRepository struct {
	q       Queryable
	guildID int64
}

// NewAccountRepository creates an account repository scoped to a guild
func NewAccountRepository(q Queryable, guildID int64) *AccountRepository {
	return &AccountRepository{q: q, guildID: guildID}
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(
		&a.GuildID,
		&a.PlayerID,
		&a.DisplayName,
		&a.Points,
		&a.Money,
		&a.Elo,
		&a.DailyStreak,
		&a.LastDaily,
		&a.DailyQuestion,
		&a.DailyIssuedAt,
		&a.GoldWins,
		&a.TotalQuizzes,
		&a.CorrectAnswers,
		&a.RobberiesToday,
		&a.RobberyDay,
		&a.LastRobbery,
		&a.ShieldUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) getOne(ctx context.Context, playerID int64, lock bool) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.guild_id = $1 AND a.player_id = $2`
	if lock {
		query += ` FOR UPDATE OF a`
	}

	account, err := scanAccount(r.q.QueryRow(ctx, query, r.guildID, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d in guild %d: %w", playerID, r.guildID, err)
	}
	return account, nil
}

// Get retrieves an account
func (r *AccountRepository) Get(ctx context.Context, playerID int64) (*entities.Account, error) {
	return r.getOne(ctx, playerID, false)
}

// GetForUpdate retrieves an account and locks its row
func (r *AccountRepository) GetForUpdate(ctx context.Context, playerID int64) (*entities.Account, error) {
	return r.getOne(ctx, playerID, true)
}

// GetManyForUpdate locks several accounts. Rows are locked in player id order so two
// transactions locking the same pair cannot deadlock.
func (r *AccountRepository) GetManyForUpdate(ctx context.Context, playerIDs []int64) ([]*entities.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts a
		WHERE a.guild_id = $1 AND a.player_id = ANY($2)
		ORDER BY a.player_id
		FOR UPDATE OF a`

	rows, err := r.q.Query(ctx, query, r.guildID, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// GetOrCreate returns the account, creating the guild and the account on first interaction.
// An empty display name never overwrites a stored one.
func (r *AccountRepository) GetOrCreate(ctx context.Context, playerID int64, displayName string) (*entities.Account, bool, error) {
	if err := ensureGuild(ctx, r.q, r.guildID); err != nil {
		return nil, false, err
	}

	tag, err := r.q.Exec(ctx, `
		INSERT INTO accounts (guild_id, player_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, player_id) DO NOTHING
	`, r.guildID, playerID, displayName)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create account %d in guild %d: %w", playerID, r.guildID, err)
	}
	created := tag.RowsAffected() == 1

	if !created && displayName != "" {
		_, err := r.q.Exec(ctx, `
			UPDATE accounts SET display_name = $3, updated_at = NOW()
			WHERE guild_id = $1 AND player_id = $2 AND display_name <> $3
		`, r.guildID, playerID, displayName)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update display name for %d: %w", playerID, err)
		}
	}

	account, err := r.Get(ctx, playerID)
	if err != nil {
		return nil, false, err
	}
	if account == nil {
		return nil, false, fmt.Errorf("account %d in guild %d missing after upsert", playerID, r.guildID)
	}
	return account, created, nil
}

func (r *AccountRepository) execOne(ctx context.Context, action string, playerID int64, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, append([]any{r.guildID, playerID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to %s for %d in guild %d: %w", action, playerID, r.guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: account %d not found in guild %d", action, playerID, r.guildID)
	}
	return nil
}

// UpdateBalances writes new balances
func (r *AccountRepository) UpdateBalances(ctx context.Context, playerID int64, points, money int64) error {
	return r.execOne(ctx, "update balances", playerID, `
		UPDATE accounts SET points = $3, money = $4, updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, points, money)
}

// RecordDailyClaim stores the streak and claim time and closes the open daily question
func (r *AccountRepository) RecordDailyClaim(ctx context.Context, playerID int64, streak int64, claimedAt time.Time) error {
	return r.execOne(ctx, "record daily claim", playerID, `
		UPDATE accounts
		SET daily_streak = $3, last_daily = $4,
		    daily_question_id = NULL, daily_issued_at = NULL,
		    updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, streak, claimedAt)
}

// IssueDailyQuestion opens a daily question the next claim has to answer
func (r *AccountRepository) IssueDailyQuestion(ctx context.Context, playerID, questionID int64, issuedAt time.Time) error {
	return r.execOne(ctx, "issue daily question", playerID, `
		UPDATE accounts SET daily_question_id = $3, daily_issued_at = $4, updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, questionID, issuedAt)
}

// RecordQuizAnswer increments the quiz counters
func (r *AccountRepository) RecordQuizAnswer(ctx context.Context, playerID int64, correct bool) error {
	return r.execOne(ctx, "record quiz answer", playerID, `
		UPDATE accounts
		SET total_quizzes = total_quizzes + 1,
		    correct_answers = correct_answers + CASE WHEN $3 THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, correct)
}

// RecordRobberyAttempt bumps the robbery counter, restarting it on a new UTC day
func (r *AccountRepository) RecordRobberyAttempt(ctx context.Context, playerID int64, at time.Time) error {
	return r.execOne(ctx, "record robbery attempt", playerID, `
		UPDATE accounts
		SET robberies_today = CASE WHEN robbery_day = $3::date THEN robberies_today + 1 ELSE 1 END,
		    robbery_day = $3::date,
		    last_robbery = $4,
		    updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, entities.UTCDay(at), at)
}

// AdjustElo moves the rating by delta, never below zero
func (r *AccountRepository) AdjustElo(ctx context.Context, playerID int64, delta int64) error {
	return r.execOne(ctx, "adjust elo", playerID, `
		UPDATE accounts SET elo = GREATEST(0, elo + $3), updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, delta)
}

// IncrementGoldWins adds a golden event win
func (r *AccountRepository) IncrementGoldWins(ctx context.Context, playerID int64) error {
	return r.execOne(ctx, "increment gold wins", playerID, `
		UPDATE accounts SET gold_wins = gold_wins + 1, updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`)
}

// ResetDailyCounters zeroes robbery counters stamped before today
func (r *AccountRepository) ResetDailyCounters(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE accounts SET robberies_today = 0, robbery_day = $2::date, updated_at = NOW()
		WHERE guild_id = $1 AND robbery_day < $2::date
	`, r.guildID, entities.UTCDay(today))
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily counters in guild %d: %w", r.guildID, err)
	}
	return tag.RowsAffected(), nil
}

// ResetProgress clears everything but the balances
func (r *AccountRepository) ResetProgress(ctx context.Context, playerID int64) error {
	return r.execOne(ctx, "reset progress", playerID, `
		UPDATE accounts
		SET elo = $3,
		    daily_streak = 0,
		    last_daily = NULL,
		    gold_wins = 0,
		    total_quizzes = 0,
		    correct_answers = 0,
		    robberies_today = 0,
		    last_robbery = NULL,
		    updated_at = NOW()
		WHERE guild_id = $1 AND player_id = $2
	`, entities.DefaultElo)
}

// DeleteAll removes every account of the guild
func (r *AccountRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE guild_id = $1`, r.guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts in guild %d: %w", r.guildID, err)
	}
	return tag.RowsAffected(), nil
}

var leaderboardOrder = map[entities.LeaderboardMetric]string{
	entities.LeaderboardPoints:   `a.points DESC, a.gold_wins DESC`,
	entities.LeaderboardMoney:    `a.money DESC, a.points DESC`,
	entities.LeaderboardElo:      `a.elo DESC, a.points DESC`,
	entities.LeaderboardStreak:   `a.daily_streak DESC, a.points DESC`,
	entities.LeaderboardGold:     `a.gold_wins DESC, a.points DESC`,
	entities.LeaderboardAccuracy: `a.correct_answers::float8 / NULLIF(a.total_quizzes, 0) DESC NULLS LAST, a.total_quizzes DESC`,
}

// Top returns accounts ordered by the metric
func (r *AccountRepository) Top(ctx context.Context, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.Account, error) {
	order, ok := leaderboardOrder[metric]
	if !ok {
		return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	query := `SELECT ` + accountColumns + `
		FROM accounts a
		WHERE a.guild_id = $1
		ORDER BY ` + order + `, a.player_id
		LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, r.guildID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Summary returns the account count and balance totals
func (r *AccountRepository) Summary(ctx context.Context) (accounts, points, money int64, err error) {
	err = r.q.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(points), 0)::bigint, COALESCE(SUM(money), 0)::bigint
		FROM accounts WHERE guild_id = $1
	`, r.guildID).Scan(&accounts, &points, &money)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to summarise accounts in guild %d: %w", r.guildID, err)
	}
	return accounts, points, money, nil
}
