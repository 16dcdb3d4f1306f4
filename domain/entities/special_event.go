package entities

import (
	"errors"
	"time"
)

// SpecialEventType is a guild-wide timed modifier
type SpecialEventType string

const (
	SpecialEventDoublePoints SpecialEventType = "double_points"
	SpecialEventFreeRobbery  SpecialEventType = "free_robbery"
	SpecialEventTripleGold   SpecialEventType = "triple_gold"
	SpecialEventSpeedQuiz    SpecialEventType = "speed_quiz"
	SpecialEventMysteryBox   SpecialEventType = "mystery_box"
)

// IsValid reports whether the event type is known
func (t SpecialEventType) IsValid() bool {
	switch t {
	case SpecialEventDoublePoints, SpecialEventFreeRobbery, SpecialEventTripleGold,
		SpecialEventSpeedQuiz, SpecialEventMysteryBox:
		return true
	}
	return false
}

// SpecialEvent is active inside the half-open window [StartsAt, EndsAt)
type SpecialEvent struct {
	ID        int64            `db:"id"`
	GuildID   int64            `db:"guild_id"`
	EventType SpecialEventType `db:"event_type"`
	StartsAt  time.Time        `db:"starts_at"`
	EndsAt    time.Time        `db:"ends_at"`
	Announced bool             `db:"announced"`
	CreatedBy *int64           `db:"created_by"`
	CreatedAt time.Time        `db:"created_at"`
}

// IsActiveAt reports whether now falls inside the event window
func (e *SpecialEvent) IsActiveAt(now time.Time) bool {
	return !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}

// Validate checks the event window and type
func (e *SpecialEvent) Validate() error {
	if !e.EventType.IsValid() {
		return errors.New("unknown special event type")
	}
	if !e.EndsAt.After(e.StartsAt) {
		return errors.New("special event must end after it starts")
	}
	return nil
}

// ActiveModifiers summarises the special events in effect for a guild at one instant
type ActiveModifiers struct {
	DoublePoints bool
	FreeRobbery  bool
	TripleGold   bool
	SpeedQuiz    bool
	MysteryBox   bool
}

// ModifiersFrom folds active events into a modifier set
func ModifiersFrom(events []*SpecialEvent, now time.Time) ActiveModifiers {
	var m ActiveModifiers
	for _, e := range events {
		if !e.IsActiveAt(now) {
			continue
		}
		switch e.EventType {
		case SpecialEventDoublePoints:
			m.DoublePoints = true
		case SpecialEventFreeRobbery:
			m.FreeRobbery = true
		case SpecialEventTripleGold:
			m.TripleGold = true
		case SpecialEventSpeedQuiz:
			m.SpeedQuiz = true
		case SpecialEventMysteryBox:
			m.MysteryBox = true
		}
	}
	return m
}

// PointsFactor returns the reward factor the modifiers apply to daily and quiz points
func (m ActiveModifiers) PointsFactor() int64 {
	if m.DoublePoints {
		return 2
	}
	return 1
}

// GoldFactor returns the factor applied to the golden event base reward
func (m ActiveModifiers) GoldFactor() int64 {
	if m.TripleGold {
		return 3
	}
	return 1
}
