package entities

import "time"

// Robbery is the append-only outcome of one robbery attempt.
// MoneyStolen is signed from the attacker's perspective: positive on success, the penalty as a
// negative amount on failure.
type Robbery struct {
	ID          int64     `db:"id"`
	GuildID     int64     `db:"guild_id"`
	AttackerID  int64     `db:"attacker_id"`
	VictimID    int64     `db:"victim_id"`
	QuestionID  *int64    `db:"question_id"`
	Success     bool      `db:"success"`
	MoneyStolen int64     `db:"money_stolen"`
	EloChange   int64     `db:"elo_change"`
	CreatedAt   time.Time `db:"created_at"`
}
