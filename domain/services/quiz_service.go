package services

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

type quizService struct {
	accountRepo      interfaces.AccountRepository
	transactionRepo  interfaces.TransactionRepository
	questionRepo     interfaces.QuestionRepository
	answerRepo       interfaces.AnswerRecordRepository
	grantRepo        interfaces.TemporaryGrantRepository
	specialEventRepo interfaces.SpecialEventRepository
	guildConfigRepo  interfaces.GuildConfigRepository
	goldenService    interfaces.GoldenEventService
	eventPublisher   interfaces.EventPublisher
	random           interfaces.RandomSource
}

// NewQuizService creates a new quiz service
func NewQuizService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	questionRepo interfaces.QuestionRepository,
	answerRepo interfaces.AnswerRecordRepository,
	grantRepo interfaces.TemporaryGrantRepository,
	specialEventRepo interfaces.SpecialEventRepository,
	guildConfigRepo interfaces.GuildConfigRepository,
	goldenService interfaces.GoldenEventService,
	eventPublisher interfaces.EventPublisher,
	random interfaces.RandomSource,
) interfaces.QuizService {
	return &quizService{
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		questionRepo:     questionRepo,
		answerRepo:       answerRepo,
		grantRepo:        grantRepo,
		specialEventRepo: specialEventRepo,
		guildConfigRepo:  guildConfigRepo,
		goldenService:    goldenService,
		eventPublisher:   eventPublisher,
		random:           random,
	}
}

func (s *quizService) NextQuestion(ctx context.Context, playerID int64, displayName string) (*entities.Question, error) {
	if _, err := ensureAccount(ctx, s.accountRepo, s.eventPublisher, playerID, displayName); err != nil {
		return nil, err
	}
	if err := s.checkCooldown(ctx, playerID, time.Now()); err != nil {
		return nil, err
	}
	return pickQuestion(ctx, s.questionRepo)
}

func (s *quizService) Answer(ctx context.Context, playerID int64, displayName string, answer interfaces.QuestionAnswer) (*interfaces.QuizResult, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	// The row lock serializes answers of the same player so the cooldown is checked once per answer
	account, err := lockAccount(ctx, s.accountRepo, s.eventPublisher, playerID, displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.checkCooldown(ctx, playerID, now); err != nil {
		return nil, err
	}

	question, err := loadQuestion(ctx, s.questionRepo, answer.QuestionID)
	if err != nil {
		return nil, err
	}

	result := &interfaces.QuizResult{
		Correct:      question.IsCorrect(answer.Choice),
		CorrectIndex: question.CorrectIndex,
	}
	if err := s.accountRepo.RecordQuizAnswer(ctx, playerID, result.Correct); err != nil {
		return nil, fmt.Errorf("failed to record quiz answer: %w", err)
	}
	account.TotalQuizzes++

	if !result.Correct {
		if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, account, question, answer, entities.AnswerContextQuiz, nil, entities.Delta{}, now); err != nil {
			return nil, err
		}
		return result, nil
	}
	account.CorrectAnswers++

	multiplier, err := s.grantRepo.GetMultiplier(ctx, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get multiplier: %w", err)
	}
	mods, err := loadModifiers(ctx, s.specialEventRepo, now)
	if err != nil {
		return nil, err
	}

	reward := applyMultiplier(cfg.QuizPoints, multiplier) * mods.PointsFactor()
	if mods.MysteryBox {
		result.MysteryBonus = utils.UniformInt(s.random, 1, max(cfg.QuizPoints, 1))
	}

	description := "Quiz answer"
	if result.MysteryBonus > 0 {
		description = fmt.Sprintf("Quiz answer, mystery box +%d", result.MysteryBonus)
	}
	change, err := utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, account,
		entities.TransactionTypeQuiz, entities.Delta{Points: reward, Money: reward + result.MysteryBonus}, description)
	if err != nil {
		return nil, err
	}
	result.Change = change
	result.PointsEarned = change.Applied.Points
	result.MoneyEarned = change.Applied.Money

	if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, account, question, answer, entities.AnswerContextQuiz, nil, change.Applied, now); err != nil {
		return nil, err
	}

	golden, err := s.goldenService.TryTriggerFromQuiz(ctx, now)
	if err != nil {
		return nil, err
	}
	result.GoldenEvent = golden

	log.WithFields(log.Fields{
		"playerID":     playerID,
		"guildID":      account.GuildID,
		"questionID":   question.ID,
		"points":       result.PointsEarned,
		"mysteryBonus": result.MysteryBonus,
		"goldTrigger":  golden != nil,
	}).Debug("Quiz answered correctly")

	return result, nil
}

func (s *quizService) checkCooldown(ctx context.Context, playerID int64, now time.Time) error {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guild config: %w", err)
	}
	mods, err := loadModifiers(ctx, s.specialEventRepo, now)
	if err != nil {
		return err
	}
	last, err := s.answerRepo.LastAnswerAt(ctx, playerID, entities.AnswerContextQuiz)
	if err != nil {
		return fmt.Errorf("failed to get last quiz answer: %w", err)
	}
	if eligibility := CheckQuizEligibility(last, cfg, mods, now); !eligibility.Eligible {
		return NewIneligibleError(eligibility)
	}
	return nil
}
