package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoldenEventStatus_CanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from GoldenEventStatus
		to   GoldenEventStatus
		want bool
	}{
		{GoldenEventStatusPending, GoldenEventStatusActive, true},
		{GoldenEventStatusPending, GoldenEventStatusWon, false},
		{GoldenEventStatusActive, GoldenEventStatusWon, true},
		{GoldenEventStatusActive, GoldenEventStatusExpired, true},
		{GoldenEventStatusWon, GoldenEventStatusActive, false},
		{GoldenEventStatusExpired, GoldenEventStatusWon, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestGoldenEvent_CarryOver(t *testing.T) {
	t.Parallel()

	expired := &GoldenEvent{Status: GoldenEventStatusExpired, RewardPoints: 30}
	assert.Equal(t, int64(30), expired.CarryOver())

	won := &GoldenEvent{Status: GoldenEventStatusWon, RewardPoints: 30}
	assert.Equal(t, int64(0), won.CarryOver())
}

func TestGoldenEvent_IsExpiredAt(t *testing.T) {
	t.Parallel()

	now := time.Now()
	expires := now.Add(-time.Second)
	event := &GoldenEvent{Status: GoldenEventStatusActive, ExpiresAt: &expires}
	assert.True(t, event.IsExpiredAt(now))

	future := now.Add(time.Minute)
	event.ExpiresAt = &future
	assert.False(t, event.IsExpiredAt(now))
}

func TestTemporaryGrant_IsActiveAt(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name  string
		grant TemporaryGrant
		want  bool
		due   bool
	}{
		{
			name:  "inside window",
			grant: TemporaryGrant{GrantedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)},
			want:  true,
		},
		{
			name:  "expiry instant is exclusive",
			grant: TemporaryGrant{GrantedAt: now.Add(-time.Hour), ExpiresAt: now},
			want:  false,
			due:   true,
		},
		{
			name:  "removed grant is never active",
			grant: TemporaryGrant{GrantedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour), Removed: true},
			want:  false,
		},
		{
			name:  "removed grant is never due",
			grant: TemporaryGrant{GrantedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour), Removed: true},
			want:  false,
			due:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.grant.IsActiveAt(now))
			assert.Equal(t, tt.due, tt.grant.IsDueForExpiry(now))
		})
	}
}

func TestAccount_RobberiesOn(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	account := &Account{RobberiesToday: 4, RobberyDay: UTCDay(now)}
	assert.Equal(t, int64(4), account.RobberiesOn(now))

	account.RobberyDay = UTCDay(now.Add(-24 * time.Hour))
	assert.Equal(t, int64(0), account.RobberiesOn(now))
}

func TestModifiersFrom(t *testing.T) {
	t.Parallel()

	now := time.Now()
	events := []*SpecialEvent{
		{EventType: SpecialEventDoublePoints, StartsAt: now.Add(-time.Minute), EndsAt: now.Add(time.Minute)},
		{EventType: SpecialEventTripleGold, StartsAt: now.Add(time.Minute), EndsAt: now.Add(time.Hour)},
		{EventType: SpecialEventFreeRobbery, StartsAt: now.Add(-time.Hour), EndsAt: now},
	}

	m := ModifiersFrom(events, now)
	assert.True(t, m.DoublePoints)
	assert.False(t, m.TripleGold)
	assert.False(t, m.FreeRobbery)
	assert.Equal(t, int64(2), m.PointsFactor())
	assert.Equal(t, int64(1), m.GoldFactor())
}
