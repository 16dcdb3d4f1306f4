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

const (
	// dailyStreakBonusStep is added per consecutive day after the first
	dailyStreakBonusStep int64 = 2

	// dailyStreakBonusCap bounds the streak bonus
	dailyStreakBonusCap int64 = 20

	// DailyAnswerWindow is how long an issued daily question stays answerable
	DailyAnswerWindow = 60 * time.Second
)

type dailyService struct {
	accountRepo      interfaces.AccountRepository
	transactionRepo  interfaces.TransactionRepository
	questionRepo     interfaces.QuestionRepository
	answerRepo       interfaces.AnswerRecordRepository
	grantRepo        interfaces.TemporaryGrantRepository
	specialEventRepo interfaces.SpecialEventRepository
	guildConfigRepo  interfaces.GuildConfigRepository
	eventPublisher   interfaces.EventPublisher
}

// NewDailyService creates a new daily claim service
func NewDailyService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	questionRepo interfaces.QuestionRepository,
	answerRepo interfaces.AnswerRecordRepository,
	grantRepo interfaces.TemporaryGrantRepository,
	specialEventRepo interfaces.SpecialEventRepository,
	guildConfigRepo interfaces.GuildConfigRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.DailyService {
	return &dailyService{
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		questionRepo:     questionRepo,
		answerRepo:       answerRepo,
		grantRepo:        grantRepo,
		specialEventRepo: specialEventRepo,
		guildConfigRepo:  guildConfigRepo,
		eventPublisher:   eventPublisher,
	}
}

func (s *dailyService) Check(ctx context.Context, playerID int64) (entities.Eligibility, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return entities.Eligibility{}, fmt.Errorf("failed to get guild config: %w", err)
	}
	account, err := s.accountRepo.Get(ctx, playerID)
	if err != nil {
		return entities.Eligibility{}, fmt.Errorf("failed to get account: %w", err)
	}
	return CheckDailyEligibility(account, cfg, time.Now()), nil
}

// Issue opens the daily question. A question still inside its window is shown again,
// so asking twice never rerolls it.
func (s *dailyService) Issue(ctx context.Context, playerID int64, displayName string) (*interfaces.DailyChallenge, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	account, err := lockAccount(ctx, s.accountRepo, s.eventPublisher, playerID, displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if eligibility := CheckDailyEligibility(account, cfg, now); !eligibility.Eligible {
		return nil, NewIneligibleError(eligibility)
	}

	if account.DailyQuestion != nil {
		question, err := loadQuestion(ctx, s.questionRepo, *account.DailyQuestion)
		if err != nil {
			return nil, err
		}
		if !account.DailyExpired(now, DailyAnswerWindow) {
			return &interfaces.DailyChallenge{
				Question:  question,
				ExpiresAt: account.DailyIssuedAt.Add(DailyAnswerWindow),
			}, nil
		}
		result, err := s.forfeit(ctx, account, question, timeoutAnswer(question.ID), now)
		if err != nil {
			return nil, err
		}
		return &interfaces.DailyChallenge{Forfeited: result}, nil
	}

	question, err := pickQuestion(ctx, s.questionRepo)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.IssueDailyQuestion(ctx, playerID, question.ID, now); err != nil {
		return nil, fmt.Errorf("failed to issue daily question: %w", err)
	}

	return &interfaces.DailyChallenge{
		Question:  question,
		ExpiresAt: now.Add(DailyAnswerWindow),
	}, nil
}

func (s *dailyService) Claim(ctx context.Context, playerID int64, displayName string, answer interfaces.QuestionAnswer) (*interfaces.DailyResult, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	account, err := lockAccount(ctx, s.accountRepo, s.eventPublisher, playerID, displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if eligibility := CheckDailyEligibility(account, cfg, now); !eligibility.Eligible {
		return nil, NewIneligibleError(eligibility)
	}
	if account.DailyQuestion == nil || *account.DailyQuestion != answer.QuestionID {
		return nil, invalidInput(fmt.Errorf("daily question %d is not open, run /daily again", answer.QuestionID))
	}

	question, err := loadQuestion(ctx, s.questionRepo, answer.QuestionID)
	if err != nil {
		return nil, err
	}
	if account.DailyExpired(now, DailyAnswerWindow) || answer.Choice < 0 {
		return s.forfeit(ctx, account, question, timeoutAnswer(question.ID), now)
	}
	if !question.IsCorrect(answer.Choice) {
		return s.forfeit(ctx, account, question, answer, now)
	}

	streak := NextStreak(account, now)
	multiplier, err := s.grantRepo.GetMultiplier(ctx, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get multiplier: %w", err)
	}
	mods, err := loadModifiers(ctx, s.specialEventRepo, now)
	if err != nil {
		return nil, err
	}
	reward := DailyReward(cfg.DailyPoints, streak, multiplier, mods)

	if err := s.accountRepo.RecordDailyClaim(ctx, playerID, streak, now); err != nil {
		return nil, fmt.Errorf("failed to record daily claim: %w", err)
	}
	account.DailyStreak = streak
	account.LastDaily = &now
	account.DailyQuestion = nil
	account.DailyIssuedAt = nil

	change, err := utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, account,
		entities.TransactionTypeDaily, entities.Delta{Points: reward, Money: reward},
		fmt.Sprintf("Daily reward, streak %d", streak))
	if err != nil {
		return nil, err
	}

	if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, account, question, answer, entities.AnswerContextDaily, nil, change.Applied, now); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"playerID":   playerID,
		"guildID":    account.GuildID,
		"streak":     streak,
		"reward":     reward,
		"multiplier": multiplier,
	}).Info("Daily reward claimed")

	return &interfaces.DailyResult{
		Correct:    true,
		Reward:     reward,
		Streak:     streak,
		Multiplier: multiplier,
		Change:     change,
	}, nil
}

// forfeit consumes the claim without a reward and breaks the streak
func (s *dailyService) forfeit(ctx context.Context, account *entities.Account, question *entities.Question, answer interfaces.QuestionAnswer, now time.Time) (*interfaces.DailyResult, error) {
	if err := s.accountRepo.RecordDailyClaim(ctx, account.PlayerID, 0, now); err != nil {
		return nil, fmt.Errorf("failed to record daily claim: %w", err)
	}
	account.DailyStreak = 0
	account.LastDaily = &now
	account.DailyQuestion = nil
	account.DailyIssuedAt = nil

	if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, account, question, answer, entities.AnswerContextDaily, nil, entities.Delta{}, now); err != nil {
		return nil, err
	}

	timedOut := answer.Choice < 0
	log.WithFields(log.Fields{
		"playerID": account.PlayerID,
		"guildID":  account.GuildID,
		"timedOut": timedOut,
	}).Info("Daily question missed")

	return &interfaces.DailyResult{Correct: false, TimedOut: timedOut}, nil
}

func timeoutAnswer(questionID int64) interfaces.QuestionAnswer {
	return interfaces.QuestionAnswer{QuestionID: questionID, Choice: -1, ResponseTime: DailyAnswerWindow}
}

// DailyReward computes the daily payout for a streak
func DailyReward(base, streak int64, multiplier float64, mods entities.ActiveModifiers) int64 {
	bonus := min((streak-1)*dailyStreakBonusStep, dailyStreakBonusCap)
	if bonus < 0 {
		bonus = 0
	}
	return applyMultiplier(base+bonus, multiplier) * mods.PointsFactor()
}

func applyMultiplier(amount int64, multiplier float64) int64 {
	if multiplier <= 1 {
		return amount
	}
	return int64(float64(amount) * multiplier)
}

func recordAnswer(
	ctx context.Context,
	answerRepo interfaces.AnswerRecordRepository,
	questionRepo interfaces.QuestionRepository,
	account *entities.Account,
	question *entities.Question,
	answer interfaces.QuestionAnswer,
	answerContext entities.AnswerContext,
	goldenEventID *int64,
	earned entities.Delta,
	now time.Time,
) error {
	correct := question.IsCorrect(answer.Choice)
	record := &entities.AnswerRecord{
		PlayerID:      account.PlayerID,
		GuildID:       account.GuildID,
		QuestionID:    question.ID,
		GoldenEventID: goldenEventID,
		ChosenIndex:   answer.Choice,
		IsCorrect:     correct,
		PointsEarned:  earned.Points,
		MoneyEarned:   earned.Money,
		Context:       answerContext,
		ResponseTime:  answer.ResponseTime,
		AnsweredAt:    now,
	}
	inserted, err := answerRepo.Record(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	if !inserted {
		return NewIneligibleError(entities.Ineligible(entities.ReasonAlreadyAttempted))
	}
	if err := questionRepo.RecordUsage(ctx, question.ID, correct); err != nil {
		return fmt.Errorf("failed to record question usage: %w", err)
	}
	return nil
}

func loadQuestion(ctx context.Context, repo interfaces.QuestionRepository, id int64) (*entities.Question, error) {
	question, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, fmt.Errorf("question %d not found", id)
	}
	return question, nil
}

func pickQuestion(ctx context.Context, repo interfaces.QuestionRepository) (*entities.Question, error) {
	question, err := repo.PickLeastUsed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pick question: %w", err)
	}
	if question == nil {
		return nil, ErrNoQuestions
	}
	return question, nil
}
