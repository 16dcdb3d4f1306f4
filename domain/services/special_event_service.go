package services

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type specialEventService struct {
	specialEventRepo interfaces.SpecialEventRepository
	guildID          int64
}

// NewSpecialEventService creates a new special event service for a guild
func NewSpecialEventService(specialEventRepo interfaces.SpecialEventRepository, guildID int64) interfaces.SpecialEventService {
	return &specialEventService{
		specialEventRepo: specialEventRepo,
		guildID:          guildID,
	}
}

func (s *specialEventService) Schedule(ctx context.Context, eventType entities.SpecialEventType, startsAt, endsAt time.Time, createdBy *int64) (*entities.SpecialEvent, error) {
	event := &entities.SpecialEvent{
		GuildID:   s.guildID,
		EventType: eventType,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedBy: createdBy,
	}
	if err := event.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.specialEventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create special event: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID":   s.guildID,
		"eventID":   event.ID,
		"eventType": eventType,
		"startsAt":  startsAt,
		"endsAt":    endsAt,
	}).Info("Scheduled special event")
	return event, nil
}

func (s *specialEventService) Cancel(ctx context.Context, eventID int64) error {
	ended, err := s.specialEventRepo.EndEarly(ctx, eventID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to end special event: %w", err)
	}
	if !ended {
		return ErrAlreadyResolved
	}
	return nil
}

func (s *specialEventService) Modifiers(ctx context.Context, now time.Time) (entities.ActiveModifiers, error) {
	return loadModifiers(ctx, s.specialEventRepo, now)
}

func (s *specialEventService) Upcoming(ctx context.Context) ([]*entities.SpecialEvent, error) {
	upcoming, err := s.specialEventRepo.ListUpcoming(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list special events: %w", err)
	}
	return upcoming, nil
}

func (s *specialEventService) AnnounceDue(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	due, err := s.specialEventRepo.MarkAnnouncedDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark special events announced: %w", err)
	}
	return due, nil
}

func loadModifiers(ctx context.Context, repo interfaces.SpecialEventRepository, now time.Time) (entities.ActiveModifiers, error) {
	active, err := repo.ListActive(ctx, now)
	if err != nil {
		return entities.ActiveModifiers{}, fmt.Errorf("failed to get active special events: %w", err)
	}
	return entities.ModifiersFrom(active, now), nil
}
