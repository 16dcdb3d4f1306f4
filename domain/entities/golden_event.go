package entities

import "time"

// GoldenEventStatus is the state of a golden question event
type GoldenEventStatus string

const (
	GoldenEventStatusPending GoldenEventStatus = "pending"
	GoldenEventStatusActive  GoldenEventStatus = "active"
	GoldenEventStatusWon     GoldenEventStatus = "won"
	GoldenEventStatusExpired GoldenEventStatus = "expired"
)

// GoldenEvent is a single jackpot question cycle for a guild.
// RewardPoints already includes Jackpot once the event is active.
type GoldenEvent struct {
	ID           int64             `db:"id"`
	GuildID      int64             `db:"guild_id"`
	QuestionID   *int64            `db:"question_id"`
	Status       GoldenEventStatus `db:"status"`
	IsActive     bool              `db:"is_active"`
	RewardPoints int64             `db:"reward_points"`
	Jackpot      int64             `db:"jackpot"`
	WinnerID     *int64            `db:"winner_id"`
	StartedAt    *time.Time        `db:"started_at"`
	ExpiresAt    *time.Time        `db:"expires_at"`
	EndedAt      *time.Time        `db:"ended_at"`
	CreatedAt    time.Time         `db:"created_at"`
}

// IsOpen reports whether the event still occupies the guild's single event slot
func (e *GoldenEvent) IsOpen() bool {
	return e.Status == GoldenEventStatusPending || e.Status == GoldenEventStatusActive
}

// IsResolved reports whether the event reached a terminal state
func (e *GoldenEvent) IsResolved() bool {
	return e.Status == GoldenEventStatusWon || e.Status == GoldenEventStatusExpired
}

// IsExpiredAt reports whether an active event ran out of time
func (e *GoldenEvent) IsExpiredAt(now time.Time) bool {
	return e.Status == GoldenEventStatusActive && e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// CarryOver returns the jackpot the next cycle inherits from this event
func (e *GoldenEvent) CarryOver() int64 {
	if e.Status == GoldenEventStatusExpired {
		return e.RewardPoints
	}
	return 0
}

// CanTransition reports whether the state machine allows moving to next
func (s GoldenEventStatus) CanTransition(next GoldenEventStatus) bool {
	switch s {
	case GoldenEventStatusPending:
		return next == GoldenEventStatusActive
	case GoldenEventStatusActive:
		return next == GoldenEventStatusWon || next == GoldenEventStatusExpired
	}
	return false
}
