package events

import (
	"time"

	"quizbot/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeAccountCreated      EventType = "account_created"
	EventTypeGoldenEventStarted  EventType = "golden_event_started"
	EventTypeGoldenEventWon      EventType = "golden_event_won"
	EventTypeGoldenEventExpired  EventType = "golden_event_expired"
	EventTypeRobberyResolved     EventType = "robbery_resolved"
	EventTypeRoleGranted         EventType = "role_granted"
	EventTypeRoleRevoked         EventType = "role_revoked"
	EventTypeSpecialEventStarted EventType = "special_event_started"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GuildScoped is implemented by every event that belongs to one guild
type GuildScoped interface {
	Event
	Guild() int64
}

// BalanceChangeEvent represents a ledger entry that was applied to an account
type BalanceChangeEvent struct {
	GuildID         int64
	PlayerID        int64
	OldPoints       int64
	NewPoints       int64
	OldMoney        int64
	NewMoney        int64
	TransactionType entities.TransactionType
	TransactionID   int64
}

func (e BalanceChangeEvent) Type() EventType { return EventTypeBalanceChange }
func (e BalanceChangeEvent) Guild() int64    { return e.GuildID }

// AccountCreatedEvent is emitted on a player's first interaction in a guild
type AccountCreatedEvent struct {
	GuildID     int64
	PlayerID    int64
	DisplayName string
}

func (e AccountCreatedEvent) Type() EventType { return EventTypeAccountCreated }
func (e AccountCreatedEvent) Guild() int64    { return e.GuildID }

// GoldenEventStartedEvent announces a new golden question
type GoldenEventStartedEvent struct {
	GuildID      int64
	EventID      int64
	QuestionID   int64
	RewardPoints int64
	Jackpot      int64
	ExpiresAt    time.Time
}

func (e GoldenEventStartedEvent) Type() EventType { return EventTypeGoldenEventStarted }
func (e GoldenEventStartedEvent) Guild() int64    { return e.GuildID }

// GoldenEventWonEvent reports the single winner of a golden question
type GoldenEventWonEvent struct {
	GuildID      int64
	EventID      int64
	WinnerID     int64
	RewardPoints int64
}

func (e GoldenEventWonEvent) Type() EventType { return EventTypeGoldenEventWon }
func (e GoldenEventWonEvent) Guild() int64    { return e.GuildID }

// GoldenEventExpiredEvent reports an unanswered golden question and the jackpot it carries forward
type GoldenEventExpiredEvent struct {
	GuildID        int64
	EventID        int64
	CarriedJackpot int64
}

func (e GoldenEventExpiredEvent) Type() EventType { return EventTypeGoldenEventExpired }
func (e GoldenEventExpiredEvent) Guild() int64    { return e.GuildID }

// RobberyResolvedEvent reports the outcome of a robbery attempt
type RobberyResolvedEvent struct {
	GuildID     int64
	RobberyID   int64
	AttackerID  int64
	VictimID    int64
	Success     bool
	MoneyStolen int64
}

func (e RobberyResolvedEvent) Type() EventType { return EventTypeRobberyResolved }
func (e RobberyResolvedEvent) Guild() int64    { return e.GuildID }

// RoleGrantedEvent instructs the chat platform to add a role
type RoleGrantedEvent struct {
	GuildID   int64
	PlayerID  int64
	GrantID   int64
	RoleID    int64
	RoleType  entities.GrantRoleType
	ExpiresAt time.Time
}

func (e RoleGrantedEvent) Type() EventType { return EventTypeRoleGranted }
func (e RoleGrantedEvent) Guild() int64    { return e.GuildID }

// RoleRevokedEvent instructs the chat platform to remove a role
type RoleRevokedEvent struct {
	GuildID  int64
	PlayerID int64
	GrantID  int64
	RoleID   int64
	RoleType entities.GrantRoleType
	Reason   entities.RemovalReason
}

func (e RoleRevokedEvent) Type() EventType { return EventTypeRoleRevoked }
func (e RoleRevokedEvent) Guild() int64    { return e.GuildID }

// SpecialEventStartedEvent announces a guild-wide modifier
type SpecialEventStartedEvent struct {
	GuildID   int64
	EventID   int64
	EventType entities.SpecialEventType
	EndsAt    time.Time
}

func (e SpecialEventStartedEvent) Type() EventType { return EventTypeSpecialEventStarted }
func (e SpecialEventStartedEvent) Guild() int64    { return e.GuildID }
