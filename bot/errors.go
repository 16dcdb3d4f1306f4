package bot

import (
	"errors"
	"strings"

	"quizbot/bot/common"
	"quizbot/domain/entities"
	"quizbot/domain/services"

	log "github.com/sirupsen/logrus"
)

var reasonMessages = map[entities.IneligibleReason]string{
	entities.ReasonDailyCooldown:     "You already claimed your daily reward",
	entities.ReasonQuizCooldown:      "You answered a quiz recently",
	entities.ReasonRobberyCooldown:   "You robbed someone recently",
	entities.ReasonDailyRobberyLimit: "You reached today's robbery limit",
	entities.ReasonVictimTooPoor:     "That player does not have enough coins to be worth robbing",
	entities.ReasonVictimShielded:    "That player is protected by a shield",
	entities.ReasonVictimTooNew:      "That player is too new to be robbed",
	entities.ReasonSelfTarget:        "You cannot rob yourself",
	entities.ReasonUnknownAccount:    "That player has no account here yet",
	entities.ReasonNoActiveEvent:     "There is no active golden question",
	entities.ReasonAlreadyAttempted:  "You already answered this golden question",
	entities.ReasonShieldActive:      "You already have an active shield",
	entities.ReasonAnswerWindowOver:  "The answer window is over",
	entities.ReasonInsufficientFunds: "You do not have enough points",
}

// userMessage turns a service error into something a player can read
func userMessage(err error) string {
	if eligibility, ok := services.AsIneligible(err); ok {
		msg, known := reasonMessages[eligibility.Reason]
		if !known {
			msg = "You cannot do that right now"
		}
		if eligibility.RemainingWait > 0 {
			msg += " (try again in " + common.FormatWait(eligibility.RemainingWait) + ")"
		}
		return msg
	}

	switch {
	case errors.Is(err, services.ErrAlreadyResolved):
		return "Someone else got there first"
	case errors.Is(err, services.ErrConcurrencyConflict):
		return "The server is busy, please try again"
	case errors.Is(err, services.ErrNoQuestions):
		return "There are no questions available yet"
	case errors.Is(err, services.ErrInvalidInput):
		return strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
	}

	log.WithError(err).Error("Unexpected error handling interaction")
	return "Something went wrong, please try again later"
}
