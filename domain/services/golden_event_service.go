package services

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"
	"quizbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

// firstEventChance is the per-minute start probability for a guild that never had an event
const firstEventChance = 0.10

type goldenEventService struct {
	goldenRepo       interfaces.GoldenEventRepository
	questionRepo     interfaces.QuestionRepository
	answerRepo       interfaces.AnswerRecordRepository
	accountRepo      interfaces.AccountRepository
	transactionRepo  interfaces.TransactionRepository
	specialEventRepo interfaces.SpecialEventRepository
	guildConfigRepo  interfaces.GuildConfigRepository
	eventPublisher   interfaces.EventPublisher
	random           interfaces.RandomSource
	guildID          int64
}

// NewGoldenEventService creates the golden event state machine for a guild
func NewGoldenEventService(
	goldenRepo interfaces.GoldenEventRepository,
	questionRepo interfaces.QuestionRepository,
	answerRepo interfaces.AnswerRecordRepository,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	specialEventRepo interfaces.SpecialEventRepository,
	guildConfigRepo interfaces.GuildConfigRepository,
	eventPublisher interfaces.EventPublisher,
	random interfaces.RandomSource,
	guildID int64,
) interfaces.GoldenEventService {
	return &goldenEventService{
		goldenRepo:       goldenRepo,
		questionRepo:     questionRepo,
		answerRepo:       answerRepo,
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		specialEventRepo: specialEventRepo,
		guildConfigRepo:  guildConfigRepo,
		eventPublisher:   eventPublisher,
		random:           random,
		guildID:          guildID,
	}
}

func (s *goldenEventService) Current(ctx context.Context) (*entities.GoldenEvent, error) {
	if err := s.checkSingleActive(ctx); err != nil {
		return nil, err
	}
	event, err := s.goldenRepo.GetOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open golden event: %w", err)
	}
	return event, nil
}

func (s *goldenEventService) Propose(ctx context.Context) (*entities.GoldenEvent, error) {
	latest, err := s.goldenRepo.GetLatestEnded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest golden event: %w", err)
	}

	var jackpot int64
	if latest != nil {
		jackpot = latest.CarryOver()
	}

	event, err := s.goldenRepo.CreatePending(ctx, jackpot)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending golden event: %w", err)
	}
	if event == nil {
		return nil, nil
	}

	log.WithFields(log.Fields{
		"guildID": s.guildID,
		"eventID": event.ID,
		"jackpot": jackpot,
	}).Debug("Proposed golden event")
	return event, nil
}

func (s *goldenEventService) Activate(ctx context.Context, eventID int64, now time.Time) (*entities.GoldenEvent, error) {
	event, err := s.goldenRepo.GetOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open golden event: %w", err)
	}
	if event == nil || event.ID != eventID || event.Status != entities.GoldenEventStatusPending {
		return nil, nil
	}

	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	mods, err := loadModifiers(ctx, s.specialEventRepo, now)
	if err != nil {
		return nil, err
	}
	question, err := pickQuestion(ctx, s.questionRepo)
	if err != nil {
		return nil, err
	}

	reward := GoldenReward(s.random, cfg, mods, event.Jackpot)
	expiresAt := now.Add(cfg.GoldAnswerWindow())

	activated, err := s.goldenRepo.Activate(ctx, event.ID, question.ID, reward, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to activate golden event: %w", err)
	}
	if err := s.checkSingleActive(ctx); err != nil {
		return nil, err
	}
	if !activated {
		return nil, nil
	}

	event.Status = entities.GoldenEventStatusActive
	event.IsActive = true
	event.QuestionID = &question.ID
	event.RewardPoints = reward
	event.StartedAt = &now
	event.ExpiresAt = &expiresAt

	log.WithFields(log.Fields{
		"guildID":      s.guildID,
		"eventID":      event.ID,
		"rewardPoints": reward,
		"jackpot":      event.Jackpot,
		"expiresAt":    expiresAt,
	}).Info("Golden event started")

	if err := s.eventPublisher.Publish(events.GoldenEventStartedEvent{
		GuildID:      s.guildID,
		EventID:      event.ID,
		QuestionID:   question.ID,
		RewardPoints: reward,
		Jackpot:      event.Jackpot,
		ExpiresAt:    expiresAt,
	}); err != nil {
		log.WithError(err).Error("Failed to publish golden event started event")
	}
	return event, nil
}

func (s *goldenEventService) MaybeStart(ctx context.Context, now time.Time) (*entities.GoldenEvent, error) {
	open, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if open.Status == entities.GoldenEventStatusPending {
			return s.Activate(ctx, open.ID, now)
		}
		return nil, nil
	}

	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	latest, err := s.goldenRepo.GetLatestEnded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest golden event: %w", err)
	}

	chance := firstEventChance
	if latest != nil && latest.EndedAt != nil {
		chance = ScheduleChance(now.Sub(*latest.EndedAt), cfg)
	}
	if s.random.Float64() >= chance {
		return nil, nil
	}
	return s.start(ctx, now)
}

func (s *goldenEventService) TryTriggerFromQuiz(ctx context.Context, now time.Time) (*entities.GoldenEvent, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	if s.random.Float64() >= cfg.GoldQuizChance {
		return nil, nil
	}
	open, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, nil
	}
	return s.start(ctx, now)
}

func (s *goldenEventService) start(ctx context.Context, now time.Time) (*entities.GoldenEvent, error) {
	pending, err := s.Propose(ctx)
	if err != nil || pending == nil {
		return nil, err
	}
	return s.Activate(ctx, pending.ID, now)
}

func (s *goldenEventService) Answer(ctx context.Context, playerID int64, displayName string, choice int, responseTime time.Duration) (*interfaces.GoldenAnswerResult, error) {
	now := time.Now()

	event, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if event == nil || event.Status != entities.GoldenEventStatusActive {
		return nil, s.noActiveEventError(ctx)
	}
	if event.IsExpiredAt(now) {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonAnswerWindowOver))
	}

	account, err := ensureAccount(ctx, s.accountRepo, s.eventPublisher, playerID, displayName)
	if err != nil {
		return nil, err
	}
	attempted, err := s.answerRepo.HasGoldenAttempt(ctx, event.ID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check golden attempt: %w", err)
	}
	if attempted {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonAlreadyAttempted))
	}

	question, err := loadQuestion(ctx, s.questionRepo, *event.QuestionID)
	if err != nil {
		return nil, err
	}
	answer := interfaces.QuestionAnswer{QuestionID: question.ID, Choice: choice, ResponseTime: responseTime}
	result := &interfaces.GoldenAnswerResult{Event: event, Correct: question.IsCorrect(choice)}

	if !result.Correct {
		if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, account, question, answer, entities.AnswerContextGold, &event.ID, entities.Delta{}, now); err != nil {
			return nil, err
		}
		return result, nil
	}

	claimed, err := s.goldenRepo.Claim(ctx, event.ID, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to claim golden event: %w", err)
	}
	if claimed == nil {
		return nil, ErrAlreadyResolved
	}

	locked, err := s.accountRepo.GetForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	reward := claimed.RewardPoints
	change, err := utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, locked,
		entities.TransactionTypeGold, entities.Delta{Points: reward, Money: reward},
		fmt.Sprintf("Golden question #%d", claimed.ID))
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.IncrementGoldWins(ctx, playerID); err != nil {
		return nil, fmt.Errorf("failed to increment gold wins: %w", err)
	}
	locked.GoldWins++
	if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, locked, question, answer, entities.AnswerContextGold, &event.ID, change.Applied, now); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"guildID":      s.guildID,
		"eventID":      claimed.ID,
		"winnerID":     playerID,
		"rewardPoints": reward,
	}).Info("Golden event won")

	if err := s.eventPublisher.Publish(events.GoldenEventWonEvent{
		GuildID:      s.guildID,
		EventID:      claimed.ID,
		WinnerID:     playerID,
		RewardPoints: reward,
	}); err != nil {
		log.WithError(err).Error("Failed to publish golden event won event")
	}

	result.Event = claimed
	result.Won = true
	result.Change = change
	return result, nil
}

func (s *goldenEventService) ExpireDue(ctx context.Context, now time.Time) ([]*entities.GoldenEvent, error) {
	expired, err := s.goldenRepo.ExpireDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire golden events: %w", err)
	}
	for _, event := range expired {
		log.WithFields(log.Fields{
			"guildID":        s.guildID,
			"eventID":        event.ID,
			"carriedJackpot": event.CarryOver(),
		}).Info("Golden event expired")
		if err := s.eventPublisher.Publish(events.GoldenEventExpiredEvent{
			GuildID:        s.guildID,
			EventID:        event.ID,
			CarriedJackpot: event.CarryOver(),
		}); err != nil {
			log.WithError(err).Error("Failed to publish golden event expired event")
		}
	}
	return expired, nil
}

// noActiveEventError tells a late answer apart from an answer with nothing to answer
func (s *goldenEventService) noActiveEventError(ctx context.Context) error {
	latest, err := s.goldenRepo.GetLatestEnded(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest golden event: %w", err)
	}
	if latest != nil && latest.Status == entities.GoldenEventStatusWon {
		return ErrAlreadyResolved
	}
	return NewIneligibleError(entities.Ineligible(entities.ReasonNoActiveEvent))
}

func (s *goldenEventService) checkSingleActive(ctx context.Context) error {
	active, err := s.goldenRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active golden events: %w", err)
	}
	if len(active) > 1 {
		ids := make([]int64, 0, len(active))
		for _, e := range active {
			ids = append(ids, e.ID)
		}
		log.WithFields(log.Fields{
			"guildID":  s.guildID,
			"eventIDs": ids,
		}).Error("Multiple active golden events detected")
		return fmt.Errorf("%w: guild %d has %d active golden events", ErrInvariantViolation, s.guildID, len(active))
	}
	return nil
}

// GoldenReward rolls the base reward, applies triple gold and adds the carried jackpot
func GoldenReward(random interfaces.RandomSource, cfg *entities.GuildConfig, mods entities.ActiveModifiers, jackpot int64) int64 {
	return utils.UniformInt(random, cfg.GoldMinPoints, cfg.GoldMaxPoints)*mods.GoldFactor() + jackpot
}

// ScheduleChance returns the per-minute start probability after the given time without an event.
// It grows linearly from 0 at gold_interval_min to 1 at gold_interval_max.
func ScheduleChance(sinceLastEnd time.Duration, cfg *entities.GuildConfig) float64 {
	minWait := time.Duration(cfg.GoldIntervalMin) * time.Minute
	maxWait := time.Duration(cfg.GoldIntervalMax) * time.Minute
	switch {
	case sinceLastEnd < minWait:
		return 0
	case sinceLastEnd >= maxWait || maxWait <= minWait:
		return 1
	}
	return float64(sinceLastEnd-minWait) / float64(maxWait-minWait)
}
