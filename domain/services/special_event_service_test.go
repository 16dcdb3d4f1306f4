package services

import (
	"context"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSpecialEventService_Schedule(t *testing.T) {
	t.Parallel()

	start := time.Now().Add(time.Hour)
	tests := []struct {
		name      string
		eventType entities.SpecialEventType
		endsAt    time.Time
		wantErr   bool
	}{
		{name: "valid window", eventType: entities.SpecialEventDoublePoints, endsAt: start.Add(time.Hour)},
		{name: "unknown type", eventType: "free_money", endsAt: start.Add(time.Hour), wantErr: true},
		{name: "empty window", eventType: entities.SpecialEventSpeedQuiz, endsAt: start, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := new(testhelpers.MockSpecialEventRepository)
			repo.On("Create", mock.Anything, mock.AnythingOfType("*entities.SpecialEvent")).
				Run(func(args mock.Arguments) {
					args.Get(1).(*entities.SpecialEvent).ID = 12
				}).Return(nil).Maybe()

			creator := int64(99)
			event, err := NewSpecialEventService(repo, 3).Schedule(context.Background(), tt.eventType, start, tt.endsAt, &creator)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(12), event.ID)
			assert.Equal(t, int64(3), event.GuildID)
			assert.Equal(t, &creator, event.CreatedBy)
			assert.False(t, event.Announced)
		})
	}
}

func TestSpecialEventService_Cancel(t *testing.T) {
	t.Parallel()

	repo := new(testhelpers.MockSpecialEventRepository)
	repo.On("EndEarly", mock.Anything, int64(1), mock.Anything).Return(true, nil).Once()
	repo.On("EndEarly", mock.Anything, int64(2), mock.Anything).Return(false, nil).Once()

	service := NewSpecialEventService(repo, 3)
	require.NoError(t, service.Cancel(context.Background(), 1))
	assert.ErrorIs(t, service.Cancel(context.Background(), 2), ErrAlreadyResolved)
}

func TestSpecialEventService_Modifiers(t *testing.T) {
	t.Parallel()

	now := time.Now()
	repo := new(testhelpers.MockSpecialEventRepository)
	repo.On("ListActive", mock.Anything, now).Return([]*entities.SpecialEvent{
		{EventType: entities.SpecialEventTripleGold, StartsAt: now.Add(-time.Minute), EndsAt: now.Add(time.Minute)},
		{EventType: entities.SpecialEventFreeRobbery, StartsAt: now.Add(-time.Minute), EndsAt: now.Add(time.Minute)},
		// Ended exactly now, so it no longer applies
		{EventType: entities.SpecialEventDoublePoints, StartsAt: now.Add(-time.Hour), EndsAt: now},
	}, nil)

	mods, err := NewSpecialEventService(repo, 3).Modifiers(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, entities.ActiveModifiers{TripleGold: true, FreeRobbery: true}, mods)
}

func TestSpecialEventService_AnnounceDue(t *testing.T) {
	t.Parallel()

	now := time.Now()
	repo := new(testhelpers.MockSpecialEventRepository)
	due := []*entities.SpecialEvent{{ID: 4, EventType: entities.SpecialEventMysteryBox, Announced: true}}
	repo.On("MarkAnnouncedDue", mock.Anything, now).Return(due, nil).Once()
	repo.On("MarkAnnouncedDue", mock.Anything, now).Return(nil, nil).Once()

	service := NewSpecialEventService(repo, 3)
	first, err := service.AnnounceDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, due, first)

	second, err := service.AnnounceDue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, second)
}
