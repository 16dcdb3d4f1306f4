package services

import (
	"testing"
	"time"

	"quizbot/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestCheckDailyEligibility(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg := entities.DefaultGuildConfig(1)
	at := func(d time.Duration) *time.Time { ts := now.Add(-d); return &ts }

	tests := []struct {
		name     string
		account  *entities.Account
		eligible bool
		wait     time.Duration
	}{
		{name: "unknown account may claim", account: nil, eligible: true},
		{name: "never claimed", account: &entities.Account{}, eligible: true},
		{name: "exactly at cooldown", account: &entities.Account{LastDaily: at(24 * time.Hour)}, eligible: true},
		{name: "inside cooldown", account: &entities.Account{LastDaily: at(20 * time.Hour)}, wait: 4 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CheckDailyEligibility(tt.account, cfg, now)
			assert.Equal(t, tt.eligible, got.Eligible)
			if !tt.eligible {
				assert.Equal(t, entities.ReasonDailyCooldown, got.Reason)
				assert.Equal(t, tt.wait, got.RemainingWait)
			}
		})
	}
}

func TestNextStreak(t *testing.T) {
	t.Parallel()

	now := time.Now()
	last := now.Add(-30 * time.Hour)
	account := &entities.Account{DailyStreak: 4, LastDaily: &last}
	assert.Equal(t, int64(5), NextStreak(account, now))

	late := now.Add(-49 * time.Hour)
	account.LastDaily = &late
	assert.Equal(t, int64(1), NextStreak(account, now))

	assert.Equal(t, int64(1), NextStreak(&entities.Account{}, now))
}

func TestCheckQuizEligibility(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cfg := entities.DefaultGuildConfig(1)
	last := now.Add(-5 * time.Minute)

	got := CheckQuizEligibility(&last, cfg, entities.ActiveModifiers{}, now)
	assert.False(t, got.Eligible)
	assert.Equal(t, entities.ReasonQuizCooldown, got.Reason)
	assert.Equal(t, 10*time.Minute, got.RemainingWait)

	got = CheckQuizEligibility(&last, cfg, entities.ActiveModifiers{SpeedQuiz: true}, now)
	assert.True(t, got.Eligible)

	assert.True(t, CheckQuizEligibility(nil, cfg, entities.ActiveModifiers{}, now).Eligible)
}

func TestCheckRobberyEligibility(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg := entities.DefaultGuildConfig(1)
	old := now.Add(-72 * time.Hour)
	recent := now.Add(-2 * time.Minute)
	shieldUntil := now.Add(time.Hour)

	attacker := func(mutate func(a *entities.Account)) *entities.Account {
		a := &entities.Account{PlayerID: 1, CreatedAt: old}
		if mutate != nil {
			mutate(a)
		}
		return a
	}
	victim := func(mutate func(a *entities.Account)) *entities.Account {
		a := &entities.Account{PlayerID: 2, Money: 100, CreatedAt: old}
		if mutate != nil {
			mutate(a)
		}
		return a
	}

	tests := []struct {
		name     string
		attacker *entities.Account
		victim   *entities.Account
		mods     entities.ActiveModifiers
		want     entities.IneligibleReason
	}{
		{name: "eligible", attacker: attacker(nil), victim: victim(nil)},
		{name: "self target", attacker: attacker(nil), victim: attacker(nil), want: entities.ReasonSelfTarget},
		{name: "unknown victim", attacker: attacker(nil), victim: nil, want: entities.ReasonUnknownAccount},
		{
			name:     "daily limit reached",
			attacker: attacker(func(a *entities.Account) { a.RobberiesToday = 5; a.RobberyDay = entities.UTCDay(now) }),
			victim:   victim(nil),
			want:     entities.ReasonDailyRobberyLimit,
		},
		{
			name:     "yesterday's counter does not count",
			attacker: attacker(func(a *entities.Account) { a.RobberiesToday = 5; a.RobberyDay = entities.UTCDay(old) }),
			victim:   victim(nil),
		},
		{
			name:     "cooldown",
			attacker: attacker(func(a *entities.Account) { a.LastRobbery = &recent }),
			victim:   victim(nil),
			want:     entities.ReasonRobberyCooldown,
		},
		{
			name:     "free robbery waives cooldown and limit",
			attacker: attacker(func(a *entities.Account) { a.LastRobbery = &recent; a.RobberiesToday = 9; a.RobberyDay = now }),
			victim:   victim(nil),
			mods:     entities.ActiveModifiers{FreeRobbery: true},
		},
		{
			name:     "victim below minimum",
			attacker: attacker(nil),
			victim:   victim(func(a *entities.Account) { a.Money = 49 }),
			want:     entities.ReasonVictimTooPoor,
		},
		{
			name:     "victim exactly at minimum",
			attacker: attacker(nil),
			victim:   victim(func(a *entities.Account) { a.Money = 50 }),
		},
		{
			name:     "victim shielded",
			attacker: attacker(nil),
			victim:   victim(func(a *entities.Account) { a.ShieldUntil = &shieldUntil }),
			want:     entities.ReasonVictimShielded,
		},
		{
			name:     "victim too new",
			attacker: attacker(nil),
			victim:   victim(func(a *entities.Account) { a.CreatedAt = now.Add(-time.Hour) }),
			want:     entities.ReasonVictimTooNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CheckRobberyEligibility(tt.attacker, tt.victim, cfg, tt.mods, now)
			if tt.want == entities.ReasonNone {
				assert.True(t, got.Eligible, got.String())
				return
			}
			assert.False(t, got.Eligible)
			assert.Equal(t, tt.want, got.Reason)
		})
	}
}

func TestCheckVictimEligibility_SkipsFundsAtResolution(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cfg := entities.DefaultGuildConfig(1)
	poor := &entities.Account{PlayerID: 2, Money: 10, CreatedAt: now.Add(-72 * time.Hour)}

	assert.False(t, CheckVictimEligibility(poor, cfg, now, true).Eligible)
	assert.True(t, CheckVictimEligibility(poor, cfg, now, false).Eligible)
}
