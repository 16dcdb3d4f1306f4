package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quizbot/domain/events"
	"quizbot/domain/interfaces"
	"quizbot/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	GuildID       int64           `json:"guild_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher runs local handlers and then publishes the event to NATS.
// Without a client it only runs the local handlers.
type NATSEventPublisher struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
	mu            sync.RWMutex
	localHandlers map[events.EventType][]interfaces.EventHandler
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		localHandlers: make(map[events.EventType][]interfaces.EventHandler),
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	eventType := event.Type()

	p.mu.RLock()
	handlers := p.localHandlers[eventType]
	p.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			// Local handler errors never stop other handlers or the NATS publish
			log.WithFields(log.Fields{
				"eventType": eventType,
				"error":     err,
			}).Error("Local event handler failed")
		}
	}

	if p.natsClient == nil {
		return nil
	}

	envelopeData, err := NewEnvelope(event)
	if err != nil {
		return err
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.natsClient.Publish(ctx, subject, envelopeData); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}
	observability.GetMetrics().RecordNATSMessagePublished(string(eventType))

	log.WithFields(log.Fields{
		"eventType": eventType,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// NewEnvelope serializes an event inside an EventEnvelope
func NewEnvelope(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "quizbot",
		Payload:       payload,
	}
	if scoped, ok := event.(events.GuildScoped); ok {
		envelope.GuildID = scoped.Guild()
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}

// Subscribe registers a handler that is invoked in-process for every event of the type
func (p *NATSEventPublisher) Subscribe(eventType events.EventType, handler interfaces.EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(p.localHandlers[eventType]),
	}).Info("Registered local event handler")
}

// EnsureDomainEventStream ensures the economy stream exists
func (p *NATSEventPublisher) EnsureDomainEventStream() error {
	if p.natsClient == nil {
		return nil
	}
	return p.natsClient.EnsureStream(EconomyStream, p.subjectMapper.GetAllSubjects())
}
