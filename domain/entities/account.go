package entities

import (
	"time"
)

const (
	// DefaultElo is the rating every new account starts with
	DefaultElo int64 = 1000

	// NewAccountProtection shields freshly created accounts from robberies
	NewAccountProtection = 24 * time.Hour
)

// Account represents a player's economy state inside a single guild
type Account struct {
	PlayerID       int64      `db:"player_id"`
	GuildID        int64      `db:"guild_id"`
	DisplayName    string     `db:"display_name"`
	Points         int64      `db:"points"`
	Money          int64      `db:"money"`
	Elo            int64      `db:"elo"`
	DailyStreak    int64      `db:"daily_streak"`
	LastDaily      *time.Time `db:"last_daily"`
	DailyQuestion  *int64     `db:"daily_question_id"` // Open daily question, nil when none is pending
	DailyIssuedAt  *time.Time `db:"daily_issued_at"`
	GoldWins       int64      `db:"gold_wins"`
	TotalQuizzes   int64      `db:"total_quizzes"`
	CorrectAnswers int64      `db:"correct_answers"`
	RobberiesToday int64      `db:"robberies_today"`
	RobberyDay     time.Time  `db:"robbery_day"` // UTC date robberies_today belongs to
	LastRobbery    *time.Time `db:"last_robbery"`
	ShieldUntil    *time.Time `db:"-"` // Derived from the active shield grant
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// DailyExpired reports whether the open daily question ran past its answer window
func (a *Account) DailyExpired(now time.Time, window time.Duration) bool {
	return a.DailyIssuedAt != nil && now.Sub(*a.DailyIssuedAt) > window
}

// IsShielded reports whether the account is immune to robberies at the given time
func (a *Account) IsShielded(now time.Time) bool {
	return a.ShieldUntil != nil && a.ShieldUntil.After(now)
}

// RobberiesOn returns the robbery count that applies to the UTC day of now.
// A counter stamped with an older day has been reset logically even if the sweep has not run yet.
func (a *Account) RobberiesOn(now time.Time) int64 {
	if a.RobberyDay.IsZero() || !sameUTCDay(a.RobberyDay, now) {
		return 0
	}
	return a.RobberiesToday
}

// IsNew reports whether the account is still inside its new-account protection window
func (a *Account) IsNew(now time.Time) bool {
	return now.Sub(a.CreatedAt) < NewAccountProtection
}

// Accuracy returns the share of correct quiz answers in percent
func (a *Account) Accuracy() float64 {
	if a.TotalQuizzes == 0 {
		return 0
	}
	return float64(a.CorrectAnswers) / float64(a.TotalQuizzes) * 100
}

// Balance returns the account's balances as a pair
func (a *Account) Balance() Delta {
	return Delta{Points: a.Points, Money: a.Money}
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// UTCDay truncates t to the start of its UTC day
func UTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
