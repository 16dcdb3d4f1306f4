package services

import (
	"time"

	"quizbot/domain/entities"
)

// StreakWindow is the longest gap between two daily claims that keeps the streak alive
const StreakWindow = 48 * time.Hour

// CheckDailyEligibility reports whether the account may claim its daily reward at now
func CheckDailyEligibility(account *entities.Account, cfg *entities.GuildConfig, now time.Time) entities.Eligibility {
	if account == nil || account.LastDaily == nil {
		return entities.Eligible()
	}
	if wait := remaining(*account.LastDaily, cfg.DailyCooldown(), now); wait > 0 {
		return entities.IneligibleFor(entities.ReasonDailyCooldown, wait)
	}
	return entities.Eligible()
}

// NextStreak returns the streak after a claim at now
func NextStreak(account *entities.Account, now time.Time) int64 {
	if account.LastDaily == nil || now.Sub(*account.LastDaily) > StreakWindow {
		return 1
	}
	return account.DailyStreak + 1
}

// CheckQuizEligibility reports whether a quiz may be answered given the last quiz answer time
func CheckQuizEligibility(lastAnswer *time.Time, cfg *entities.GuildConfig, mods entities.ActiveModifiers, now time.Time) entities.Eligibility {
	if lastAnswer == nil || mods.SpeedQuiz {
		return entities.Eligible()
	}
	if wait := remaining(*lastAnswer, cfg.QuizCooldown(), now); wait > 0 {
		return entities.IneligibleFor(entities.ReasonQuizCooldown, wait)
	}
	return entities.Eligible()
}

// CheckAttackerEligibility evaluates the attacker-side robbery gates
func CheckAttackerEligibility(attacker *entities.Account, cfg *entities.GuildConfig, mods entities.ActiveModifiers, now time.Time) entities.Eligibility {
	if mods.FreeRobbery {
		return entities.Eligible()
	}
	if attacker.RobberiesOn(now) >= cfg.MaxRobberiesDaily {
		return entities.IneligibleFor(entities.ReasonDailyRobberyLimit, entities.UTCDay(now).Add(24*time.Hour).Sub(now))
	}
	if attacker.LastRobbery != nil {
		if wait := remaining(*attacker.LastRobbery, cfg.RobberyCooldown(), now); wait > 0 {
			return entities.IneligibleFor(entities.ReasonRobberyCooldown, wait)
		}
	}
	return entities.Eligible()
}

// CheckVictimEligibility evaluates the victim-side robbery gates.
// checkFunds is false at resolution time, where the amount is re-clamped instead.
func CheckVictimEligibility(victim *entities.Account, cfg *entities.GuildConfig, now time.Time, checkFunds bool) entities.Eligibility {
	if victim.IsShielded(now) {
		return entities.IneligibleFor(entities.ReasonVictimShielded, victim.ShieldUntil.Sub(now))
	}
	if victim.IsNew(now) {
		return entities.IneligibleFor(entities.ReasonVictimTooNew, victim.CreatedAt.Add(entities.NewAccountProtection).Sub(now))
	}
	if checkFunds && victim.Money < cfg.MinMoneyToRob {
		return entities.Ineligible(entities.ReasonVictimTooPoor)
	}
	return entities.Eligible()
}

// CheckRobberyEligibility evaluates every robbery gate
func CheckRobberyEligibility(attacker, victim *entities.Account, cfg *entities.GuildConfig, mods entities.ActiveModifiers, now time.Time) entities.Eligibility {
	if attacker == nil || victim == nil {
		return entities.Ineligible(entities.ReasonUnknownAccount)
	}
	if attacker.PlayerID == victim.PlayerID {
		return entities.Ineligible(entities.ReasonSelfTarget)
	}
	if result := CheckAttackerEligibility(attacker, cfg, mods, now); !result.Eligible {
		return result
	}
	return CheckVictimEligibility(victim, cfg, now, true)
}

func remaining(last time.Time, cooldown time.Duration, now time.Time) time.Duration {
	elapsed := now.Sub(last)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}
