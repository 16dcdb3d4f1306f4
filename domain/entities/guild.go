package entities

import "time"

// Guild is an independent economy instance. Removing it cascades to every scoped row.
type Guild struct {
	GuildID  int64     `db:"guild_id"`
	Name     string    `db:"name"`
	JoinedAt time.Time `db:"joined_at"`
}

// GuildStatus summarises a guild's economy for operators
type GuildStatus struct {
	GuildID            int64
	Accounts           int64
	ActiveGrants       int64
	ActiveGoldenEvent  *GoldenEvent
	ActiveSpecials     int64
	TotalPoints        int64
	TotalMoney         int64
	TransactionsLogged int64
}

// LeaderboardMetric selects the ordering of a leaderboard
type LeaderboardMetric string

const (
	LeaderboardPoints   LeaderboardMetric = "points"
	LeaderboardMoney    LeaderboardMetric = "money"
	LeaderboardElo      LeaderboardMetric = "elo"
	LeaderboardStreak   LeaderboardMetric = "streak"
	LeaderboardGold     LeaderboardMetric = "gold"
	LeaderboardAccuracy LeaderboardMetric = "accuracy"
)

// IsValid reports whether the metric is supported
func (m LeaderboardMetric) IsValid() bool {
	switch m {
	case LeaderboardPoints, LeaderboardMoney, LeaderboardElo, LeaderboardStreak, LeaderboardGold, LeaderboardAccuracy:
		return true
	}
	return false
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank    int
	Account *Account
}
