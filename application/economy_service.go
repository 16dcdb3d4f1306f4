package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/application/dto"
	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/services"

	log "github.com/sirupsen/logrus"
)

const defaultRobberyHistory = 10

// EconomyService is the inbound surface of the economy. Every call runs in one guild-scoped
// unit of work and is retried on lock and serialization conflicts.
type EconomyService struct {
	uowFactory  UnitOfWorkFactory
	configCache GuildConfigCache
	random      interfaces.RandomSource
	maxRetries  uint64
}

// NewEconomyService creates the economy service. configCache may be nil.
func NewEconomyService(uowFactory UnitOfWorkFactory, configCache GuildConfigCache, random interfaces.RandomSource, maxRetries uint64) *EconomyService {
	return &EconomyService{
		uowFactory:  uowFactory,
		configCache: configCache,
		random:      random,
		maxRetries:  maxRetries,
	}
}

// inGuild runs fn inside a fresh unit of work and commits when fn succeeds
func (s *EconomyService) inGuild(ctx context.Context, guildID int64, operation string, fn func(svc *guildServices) error) error {
	if guildID == 0 {
		return errors.New("guild id is required")
	}
	return runInGuild(ctx, s.uowFactory, s.configCache, s.random, s.maxRetries, guildID, operation, fn)
}

func runInGuild(
	ctx context.Context,
	uowFactory UnitOfWorkFactory,
	configCache GuildConfigCache,
	random interfaces.RandomSource,
	maxRetries uint64,
	guildID int64,
	operation string,
	fn func(svc *guildServices) error,
) error {
	return withRetry(ctx, operation, maxRetries, func() error {
		uow := uowFactory.CreateForGuild(guildID)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		if err := fn(newGuildServices(uow, configCache, random)); err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// ClaimDaily answers the daily question opened by DailyQuestion
func (s *EconomyService) ClaimDaily(ctx context.Context, guildID, playerID int64, displayName string, answer dto.DailyAnswer) (*interfaces.DailyResult, error) {
	qa := interfaces.QuestionAnswer{QuestionID: answer.QuestionID, Choice: answer.Choice, ResponseTime: answer.Latency}

	var result *interfaces.DailyResult
	err := s.inGuild(ctx, guildID, "claim_daily", func(svc *guildServices) error {
		var err error
		result, err = svc.Daily().Claim(ctx, playerID, displayName, qa)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DailyQuestion opens the daily question every claim has to answer
func (s *EconomyService) DailyQuestion(ctx context.Context, guildID, playerID int64, displayName string) (*dto.DailyChallenge, error) {
	var challenge *dto.DailyChallenge
	err := s.inGuild(ctx, guildID, "daily_question", func(svc *guildServices) error {
		issued, err := svc.Daily().Issue(ctx, playerID, displayName)
		if err != nil {
			return err
		}
		challenge = &dto.DailyChallenge{GuildID: guildID, PlayerID: playerID, Forfeited: issued.Forfeited}
		if issued.Question != nil {
			challenge.Question = dto.NewQuestionDTO(issued.Question)
			challenge.ExpiresAt = issued.ExpiresAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// NextQuizQuestion checks the quiz cooldown and picks a question
func (s *EconomyService) NextQuizQuestion(ctx context.Context, guildID, playerID int64, displayName string) (*dto.QuizChallenge, error) {
	var challenge *dto.QuizChallenge
	err := s.inGuild(ctx, guildID, "next_quiz_question", func(svc *guildServices) error {
		question, err := svc.Quiz().NextQuestion(ctx, playerID, displayName)
		if err != nil {
			return err
		}
		challenge = &dto.QuizChallenge{GuildID: guildID, PlayerID: playerID, Question: dto.NewQuestionDTO(question)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// AnswerQuiz resolves a quiz answer. A negative choice is a timeout.
func (s *EconomyService) AnswerQuiz(ctx context.Context, guildID, playerID int64, displayName string, questionID int64, choice int, latency time.Duration) (*interfaces.QuizResult, error) {
	var result *interfaces.QuizResult
	err := s.inGuild(ctx, guildID, "answer_quiz", func(svc *guildServices) error {
		var err error
		result, err = svc.Quiz().Answer(ctx, playerID, displayName, interfaces.QuestionAnswer{
			QuestionID:   questionID,
			Choice:       choice,
			ResponseTime: latency,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartRobbery pre-checks a robbery and picks the question the attacker must answer
func (s *EconomyService) StartRobbery(ctx context.Context, guildID, attackerID, victimID int64) (*dto.RobberyChallenge, error) {
	var challenge *dto.RobberyChallenge
	err := s.inGuild(ctx, guildID, "start_robbery", func(svc *guildServices) error {
		question, err := svc.Robbery().Start(ctx, attackerID, victimID)
		if err != nil {
			return err
		}
		challenge = &dto.RobberyChallenge{
			GuildID:    guildID,
			AttackerID: attackerID,
			VictimID:   victimID,
			Question:   dto.NewQuestionDTO(question),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// AttemptRobbery resolves a robbery on locked accounts. A negative choice is a timeout and fails.
func (s *EconomyService) AttemptRobbery(ctx context.Context, guildID, attackerID, victimID, questionID int64, choice int, latency time.Duration) (*interfaces.RobberyResult, error) {
	var result *interfaces.RobberyResult
	err := s.inGuild(ctx, guildID, "attempt_robbery", func(svc *guildServices) error {
		var err error
		result, err = svc.Robbery().Attempt(ctx, interfaces.RobberyAttempt{
			AttackerID: attackerID,
			VictimID:   victimID,
			Answer: interfaces.QuestionAnswer{
				QuestionID:   questionID,
				Choice:       choice,
				ResponseTime: latency,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CurrentGoldenEvent returns the open golden event of the guild, nil when there is none
func (s *EconomyService) CurrentGoldenEvent(ctx context.Context, guildID int64) (*entities.GoldenEvent, error) {
	var event *entities.GoldenEvent
	err := s.inGuild(ctx, guildID, "current_golden_event", func(svc *guildServices) error {
		var err error
		event, err = svc.Golden().Current(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// GoldenChallenge returns the active golden question, nil when no event is active
func (s *EconomyService) GoldenChallenge(ctx context.Context, guildID int64) (*dto.GoldenChallenge, error) {
	var challenge *dto.GoldenChallenge
	err := s.inGuild(ctx, guildID, "golden_challenge", func(svc *guildServices) error {
		event, err := svc.Golden().Current(ctx)
		if err != nil {
			return err
		}
		if event == nil || event.Status != entities.GoldenEventStatusActive || event.QuestionID == nil || event.ExpiresAt == nil {
			return nil
		}
		question, err := svc.uow.QuestionRepository().GetByID(ctx, *event.QuestionID)
		if err != nil {
			return fmt.Errorf("failed to get golden question: %w", err)
		}
		if question == nil {
			return fmt.Errorf("%w: golden event %d references missing question %d", services.ErrInvariantViolation, event.ID, *event.QuestionID)
		}
		challenge = &dto.GoldenChallenge{
			GuildID:      guildID,
			EventID:      event.ID,
			RewardPoints: event.RewardPoints,
			ExpiresAt:    *event.ExpiresAt,
			Question:     dto.NewQuestionDTO(question),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// AnswerGolden submits an answer to the active golden event
func (s *EconomyService) AnswerGolden(ctx context.Context, guildID, playerID int64, displayName string, choice int, latency time.Duration) (*interfaces.GoldenAnswerResult, error) {
	var result *interfaces.GoldenAnswerResult
	err := s.inGuild(ctx, guildID, "answer_golden", func(svc *guildServices) error {
		var err error
		result, err = svc.Golden().Answer(ctx, playerID, displayName, choice, latency)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GrantTemporary creates or extends a temporary role grant
func (s *EconomyService) GrantTemporary(ctx context.Context, guildID, playerID int64, roleType entities.GrantRoleType, roleID *int64, duration time.Duration, multiplier float64) (*interfaces.GrantResult, error) {
	var result *interfaces.GrantResult
	err := s.inGuild(ctx, guildID, "grant_temporary", func(svc *guildServices) error {
		var err error
		result, err = svc.Grants().Grant(ctx, interfaces.GrantRequest{
			PlayerID:   playerID,
			RoleType:   roleType,
			RoleID:     roleID,
			Multiplier: multiplier,
			Duration:   duration,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeGrant removes a grant before it expires
func (s *EconomyService) RevokeGrant(ctx context.Context, guildID, grantID int64) (*interfaces.GrantResult, error) {
	var result *interfaces.GrantResult
	err := s.inGuild(ctx, guildID, "revoke_grant", func(svc *guildServices) error {
		grant, err := svc.Grants().Revoke(ctx, grantID)
		if err != nil {
			return err
		}
		result = &interfaces.GrantResult{Grant: grant}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PurchaseShield buys a robbery shield with points
func (s *EconomyService) PurchaseShield(ctx context.Context, guildID, playerID int64, hours int64) (*interfaces.GrantResult, error) {
	var result *interfaces.GrantResult
	err := s.inGuild(ctx, guildID, "purchase_shield", func(svc *guildServices) error {
		var err error
		result, err = svc.Grants().PurchaseShield(ctx, playerID, hours)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyAdminDelta adjusts one currency of a player by amount and returns the ledger entry
func (s *EconomyService) ApplyAdminDelta(ctx context.Context, guildID, playerID int64, currency dto.Currency, amount int64, actorID int64) (*entities.Transaction, error) {
	if !currency.IsValid() {
		return nil, fmt.Errorf("%w: unknown currency %q", services.ErrInvalidInput, currency)
	}
	delta := entities.Delta{Points: amount}
	if currency == dto.CurrencyMoney {
		delta = entities.Delta{Money: amount}
	}

	var tx *entities.Transaction
	err := s.inGuild(ctx, guildID, "admin_delta", func(svc *guildServices) error {
		change, err := svc.Admin().Give(ctx, playerID, delta, actorID)
		if err != nil {
			return err
		}
		tx = change.Transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ResetPlayer zeroes a player's balances through the ledger and clears their progress
func (s *EconomyService) ResetPlayer(ctx context.Context, guildID, playerID, actorID int64) (*interfaces.BalanceChange, error) {
	var change *interfaces.BalanceChange
	err := s.inGuild(ctx, guildID, "reset_player", func(svc *guildServices) error {
		var err error
		change, err = svc.Admin().ResetPlayer(ctx, playerID, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// ResetGuild deletes every account of the guild and returns how many were removed
func (s *EconomyService) ResetGuild(ctx context.Context, guildID int64) (int64, error) {
	var deleted int64
	err := s.inGuild(ctx, guildID, "reset_guild", func(svc *guildServices) error {
		var err error
		deleted, err = svc.Admin().ResetGuild(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"accounts": deleted,
	}).Warn("Guild economy reset")
	return deleted, nil
}

// RemoveGuild deletes a guild with all of its data, for when the bot leaves it
func (s *EconomyService) RemoveGuild(ctx context.Context, guildID int64) error {
	err := s.inGuild(ctx, guildID, "remove_guild", func(svc *guildServices) error {
		return svc.uow.GuildRepository().Delete(ctx, guildID)
	})
	if err != nil {
		return err
	}
	s.invalidateConfig(ctx, guildID)
	return nil
}

// RegisterGuild records a guild the bot has joined
func (s *EconomyService) RegisterGuild(ctx context.Context, guildID int64, name string) error {
	return s.inGuild(ctx, guildID, "register_guild", func(svc *guildServices) error {
		return svc.uow.GuildRepository().Ensure(ctx, guildID, name)
	})
}

// ScheduleSpecialEvent schedules a guild-wide modifier
func (s *EconomyService) ScheduleSpecialEvent(ctx context.Context, guildID int64, eventType entities.SpecialEventType, startsAt, endsAt time.Time, createdBy *int64) (*entities.SpecialEvent, error) {
	var event *entities.SpecialEvent
	err := s.inGuild(ctx, guildID, "schedule_special_event", func(svc *guildServices) error {
		var err error
		event, err = svc.SpecialEvents().Schedule(ctx, eventType, startsAt, endsAt, createdBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// CancelSpecialEvent ends a special event now
func (s *EconomyService) CancelSpecialEvent(ctx context.Context, guildID, eventID int64) error {
	return s.inGuild(ctx, guildID, "cancel_special_event", func(svc *guildServices) error {
		return svc.SpecialEvents().Cancel(ctx, eventID)
	})
}

// SpecialEvents lists the guild's events that have not ended
func (s *EconomyService) SpecialEvents(ctx context.Context, guildID int64) ([]*entities.SpecialEvent, error) {
	var upcoming []*entities.SpecialEvent
	err := s.inGuild(ctx, guildID, "list_special_events", func(svc *guildServices) error {
		var err error
		upcoming, err = svc.SpecialEvents().Upcoming(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return upcoming, nil
}

// SetGuildParam validates and stores one numeric parameter, returning its display form
func (s *EconomyService) SetGuildParam(ctx context.Context, guildID int64, name, value string) (string, error) {
	var display string
	err := s.inGuild(ctx, guildID, "set_guild_param", func(svc *guildServices) error {
		var err error
		display, err = svc.GuildConfig().SetParam(ctx, name, value)
		return err
	})
	if err != nil {
		return "", err
	}
	s.invalidateConfig(ctx, guildID)

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"param":    name,
		"value":    display,
	}).Info("Guild parameter changed")
	return display, nil
}

// SetChannels updates the channel routing of a guild
func (s *EconomyService) SetChannels(ctx context.Context, guildID int64, routing dto.ChannelRouting) error {
	bindings := []struct {
		kind      entities.ChannelKind
		channelID *int64
	}{
		{entities.ChannelKindQuiz, routing.Quiz},
		{entities.ChannelKindGold, routing.Gold},
		{entities.ChannelKindLog, routing.Log},
		{entities.ChannelKindAnnounce, routing.Announce},
	}

	err := s.inGuild(ctx, guildID, "set_channels", func(svc *guildServices) error {
		configService := svc.GuildConfig()
		for _, b := range bindings {
			if b.channelID == nil {
				continue
			}
			channelID := b.channelID
			if *channelID == 0 {
				channelID = nil
			}
			if err := configService.SetChannel(ctx, b.kind, channelID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateConfig(ctx, guildID)
	return nil
}

// SetTopRoles binds the roles handed to the top ranked players
func (s *EconomyService) SetTopRoles(ctx context.Context, guildID int64, roleIDs []int64) error {
	err := s.inGuild(ctx, guildID, "set_top_roles", func(svc *guildServices) error {
		return svc.GuildConfig().SetTopRoles(ctx, roleIDs)
	})
	if err != nil {
		return err
	}
	s.invalidateConfig(ctx, guildID)
	return nil
}

// SetLocale changes the locale of a guild
func (s *EconomyService) SetLocale(ctx context.Context, guildID int64, locale string) error {
	err := s.inGuild(ctx, guildID, "set_locale", func(svc *guildServices) error {
		return svc.GuildConfig().SetLocale(ctx, locale)
	})
	if err != nil {
		return err
	}
	s.invalidateConfig(ctx, guildID)
	return nil
}

// GuildConfig returns the configuration of a guild
func (s *EconomyService) GuildConfig(ctx context.Context, guildID int64) (*entities.GuildConfig, error) {
	var cfg *entities.GuildConfig
	err := s.inGuild(ctx, guildID, "guild_config", func(svc *guildServices) error {
		var err error
		cfg, err = svc.GuildConfig().Get(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Leaderboard returns ranked accounts for a metric
func (s *EconomyService) Leaderboard(ctx context.Context, guildID int64, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.LeaderboardEntry, error) {
	var entries []*entities.LeaderboardEntry
	err := s.inGuild(ctx, guildID, "leaderboard", func(svc *guildServices) error {
		var err error
		entries, err = svc.Ranking().Leaderboard(ctx, metric, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PlayerProfile returns a player's account with grants and recent ledger entries
func (s *EconomyService) PlayerProfile(ctx context.Context, guildID, playerID int64) (*interfaces.PlayerProfile, error) {
	var profile *interfaces.PlayerProfile
	err := s.inGuild(ctx, guildID, "player_profile", func(svc *guildServices) error {
		var err error
		profile, err = svc.Account().Profile(ctx, playerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// RobberyHistory returns the player's most recent robberies
func (s *EconomyService) RobberyHistory(ctx context.Context, guildID, playerID int64, limit int) ([]*entities.Robbery, error) {
	if limit <= 0 {
		limit = defaultRobberyHistory
	}
	var history []*entities.Robbery
	err := s.inGuild(ctx, guildID, "robbery_history", func(svc *guildServices) error {
		var err error
		history, err = svc.Robbery().History(ctx, playerID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Reconcile compares a player's balances with the ledger
func (s *EconomyService) Reconcile(ctx context.Context, guildID, playerID int64) (*entities.Reconciliation, error) {
	var rec *entities.Reconciliation
	err := s.inGuild(ctx, guildID, "reconcile", func(svc *guildServices) error {
		var err error
		rec, err = svc.Ledger().Reconcile(ctx, playerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GuildStatus summarises the guild's economy
func (s *EconomyService) GuildStatus(ctx context.Context, guildID int64) (*entities.GuildStatus, error) {
	var status *entities.GuildStatus
	err := s.inGuild(ctx, guildID, "guild_status", func(svc *guildServices) error {
		var err error
		status, err = svc.Admin().Status(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (s *EconomyService) invalidateConfig(ctx context.Context, guildID int64) {
	if s.configCache == nil {
		return
	}
	if err := s.configCache.Invalidate(ctx, guildID); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Warn("Failed to invalidate cached guild config")
	}
}
