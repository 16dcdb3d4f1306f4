package testutil

import (
	"fmt"
	"time"

	"quizbot/domain/entities"
)

// CreateTestQuestion creates a valid question whose first option is correct
func CreateTestQuestion(text string) *entities.Question {
	return &entities.Question{
		Text:         text,
		Options:      []string{"right", "wrong a", "wrong b", "wrong c"},
		CorrectIndex: 0,
		Difficulty:   entities.DifficultyEasy,
		Category:     "general",
		Source:       "test",
	}
}

// CreateTestQuestions creates n distinct questions
func CreateTestQuestions(n int) []*entities.Question {
	questions := make([]*entities.Question, n)
	for i := range questions {
		questions[i] = CreateTestQuestion(fmt.Sprintf("question %d", i+1))
	}
	return questions
}

// CreateTestGrant creates an active grant starting now
func CreateTestGrant(playerID int64, roleType entities.GrantRoleType, duration time.Duration) *entities.TemporaryGrant {
	now := time.Now()
	return &entities.TemporaryGrant{
		PlayerID:   playerID,
		RoleType:   roleType,
		Multiplier: 1,
		GrantedAt:  now,
		ExpiresAt:  now.Add(duration),
	}
}

// CreateTestRoleGrant creates an active grant bound to a chat platform role
func CreateTestRoleGrant(playerID, roleID int64, roleType entities.GrantRoleType, duration time.Duration) *entities.TemporaryGrant {
	grant := CreateTestGrant(playerID, roleType, duration)
	grant.RoleID = &roleID
	return grant
}

// CreateTestSpecialEvent creates an event window relative to now
func CreateTestSpecialEvent(eventType entities.SpecialEventType, startOffset, length time.Duration) *entities.SpecialEvent {
	start := time.Now().Add(startOffset)
	return &entities.SpecialEvent{
		EventType: eventType,
		StartsAt:  start,
		EndsAt:    start.Add(length),
	}
}
