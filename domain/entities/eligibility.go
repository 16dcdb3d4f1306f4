package entities

import (
	"fmt"
	"time"
)

// IneligibleReason names the gate an action failed
type IneligibleReason string

const (
	ReasonNone              IneligibleReason = ""
	ReasonDailyCooldown     IneligibleReason = "daily_cooldown"
	ReasonQuizCooldown      IneligibleReason = "quiz_cooldown"
	ReasonRobberyCooldown   IneligibleReason = "robbery_cooldown"
	ReasonDailyRobberyLimit IneligibleReason = "daily_robbery_limit"
	ReasonVictimTooPoor     IneligibleReason = "victim_too_poor"
	ReasonVictimShielded    IneligibleReason = "victim_shielded"
	ReasonVictimTooNew      IneligibleReason = "victim_too_new"
	ReasonSelfTarget        IneligibleReason = "self_target"
	ReasonUnknownAccount    IneligibleReason = "unknown_account"
	ReasonNoActiveEvent     IneligibleReason = "no_active_golden_event"
	ReasonAlreadyAttempted  IneligibleReason = "already_attempted"
	ReasonShieldActive      IneligibleReason = "shield_active"
	ReasonAnswerWindowOver  IneligibleReason = "answer_window_over"
	ReasonInsufficientFunds IneligibleReason = "insufficient_funds"
)

// Eligibility is the typed outcome of a guard check.
// RemainingWait is set for time-based gates and zero otherwise.
type Eligibility struct {
	Eligible      bool
	Reason        IneligibleReason
	RemainingWait time.Duration
}

// Eligible is the passing result
func Eligible() Eligibility {
	return Eligibility{Eligible: true}
}

// Ineligible builds a failing result for a non time-based gate
func Ineligible(reason IneligibleReason) Eligibility {
	return Eligibility{Reason: reason}
}

// IneligibleFor builds a failing result that carries the remaining wait
func IneligibleFor(reason IneligibleReason, wait time.Duration) Eligibility {
	return Eligibility{Reason: reason, RemainingWait: wait}
}

// String renders the result for logs
func (e Eligibility) String() string {
	if e.Eligible {
		return "eligible"
	}
	if e.RemainingWait > 0 {
		return fmt.Sprintf("%s (wait %s)", e.Reason, e.RemainingWait.Round(time.Second))
	}
	return string(e.Reason)
}
