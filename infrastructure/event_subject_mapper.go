package infrastructure

import (
	"fmt"

	"quizbot/domain/events"
)

// EconomyStream is the JetStream stream every economy subject belongs to
const EconomyStream = "economy_events"

var subjectsByType = map[events.EventType]string{
	events.EventTypeBalanceChange:       "economy.ledger.balance_changed",
	events.EventTypeAccountCreated:      "economy.accounts.created",
	events.EventTypeGoldenEventStarted:  "economy.golden.started",
	events.EventTypeGoldenEventWon:      "economy.golden.won",
	events.EventTypeGoldenEventExpired:  "economy.golden.expired",
	events.EventTypeRobberyResolved:     "economy.robbery.resolved",
	events.EventTypeRoleGranted:         "economy.grants.granted",
	events.EventTypeRoleRevoked:         "economy.grants.revoked",
	events.EventTypeSpecialEventStarted: "economy.specials.started",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("economy.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns the subjects the economy stream captures
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"economy.>"}
}
