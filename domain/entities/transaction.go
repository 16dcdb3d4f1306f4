package entities

import "time"

// Transaction is an append-only ledger entry for one account.
// PointsDelta and MoneyDelta hold the applied (clamped) amounts, never the requested ones.
type Transaction struct {
	ID          int64           `db:"id"`
	PlayerID    int64           `db:"player_id"`
	GuildID     int64           `db:"guild_id"`
	Type        TransactionType `db:"tx_type"`
	PointsDelta int64           `db:"points_delta"`
	MoneyDelta  int64           `db:"money_delta"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Delta is a signed pair of balance changes
type Delta struct {
	Points int64
	Money  int64
}

// IsZero reports whether the delta changes nothing
func (d Delta) IsZero() bool {
	return d.Points == 0 && d.Money == 0
}

// Add returns the component-wise sum of two deltas
func (d Delta) Add(other Delta) Delta {
	return Delta{Points: d.Points + other.Points, Money: d.Money + other.Money}
}

// ClampDelta truncates a requested delta so that neither balance drops below zero.
// The returned delta is the one that must be applied and recorded.
func ClampDelta(balance Delta, requested Delta) Delta {
	return Delta{
		Points: clampComponent(balance.Points, requested.Points),
		Money:  clampComponent(balance.Money, requested.Money),
	}
}

func clampComponent(balance, delta int64) int64 {
	if balance+delta < 0 {
		return -balance
	}
	return delta
}

// Reconciliation compares an account's live balances with the sum of its ledger
type Reconciliation struct {
	PlayerID     int64
	GuildID      int64
	Points       int64
	Money        int64
	LedgerPoints int64
	LedgerMoney  int64
}

// IsConsistent reports whether the ledger explains the live balances exactly.
// Accounts start at zero so the ledger sums must equal the balances.
func (r *Reconciliation) IsConsistent() bool {
	return r.Points == r.LedgerPoints && r.Money == r.LedgerMoney
}
