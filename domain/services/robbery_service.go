package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"
	"quizbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

type robberyService struct {
	accountRepo      interfaces.AccountRepository
	transactionRepo  interfaces.TransactionRepository
	robberyRepo      interfaces.RobberyRepository
	questionRepo     interfaces.QuestionRepository
	answerRepo       interfaces.AnswerRecordRepository
	specialEventRepo interfaces.SpecialEventRepository
	guildConfigRepo  interfaces.GuildConfigRepository
	eventPublisher   interfaces.EventPublisher
	random           interfaces.RandomSource
	guildID          int64
}

// NewRobberyService creates the robbery resolution engine for a guild
func NewRobberyService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	robberyRepo interfaces.RobberyRepository,
	questionRepo interfaces.QuestionRepository,
	answerRepo interfaces.AnswerRecordRepository,
	specialEventRepo interfaces.SpecialEventRepository,
	guildConfigRepo interfaces.GuildConfigRepository,
	eventPublisher interfaces.EventPublisher,
	random interfaces.RandomSource,
	guildID int64,
) interfaces.RobberyService {
	return &robberyService{
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		robberyRepo:      robberyRepo,
		questionRepo:     questionRepo,
		answerRepo:       answerRepo,
		specialEventRepo: specialEventRepo,
		guildConfigRepo:  guildConfigRepo,
		eventPublisher:   eventPublisher,
		random:           random,
		guildID:          guildID,
	}
}

func (s *robberyService) Check(ctx context.Context, attackerID, victimID int64) (entities.Eligibility, error) {
	if attackerID == victimID {
		return entities.Ineligible(entities.ReasonSelfTarget), nil
	}

	now := time.Now()
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return entities.Eligibility{}, fmt.Errorf("failed to get guild config: %w", err)
	}
	mods, err := loadModifiers(ctx, s.specialEventRepo, now)
	if err != nil {
		return entities.Eligibility{}, err
	}

	attacker, err := s.accountRepo.Get(ctx, attackerID)
	if err != nil {
		return entities.Eligibility{}, fmt.Errorf("failed to get attacker: %w", err)
	}
	if attacker == nil {
		// A first-time attacker has no history that could block it
		attacker = &entities.Account{PlayerID: attackerID, GuildID: s.guildID}
	}
	victim, err := s.accountRepo.Get(ctx, victimID)
	if err != nil {
		return entities.Eligibility{}, fmt.Errorf("failed to get victim: %w", err)
	}

	return CheckRobberyEligibility(attacker, victim, cfg, mods, now), nil
}

func (s *robberyService) Start(ctx context.Context, attackerID, victimID int64) (*entities.Question, error) {
	eligibility, err := s.Check(ctx, attackerID, victimID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, NewIneligibleError(eligibility)
	}
	return pickQuestion(ctx, s.questionRepo)
}

func (s *robberyService) Attempt(ctx context.Context, attempt interfaces.RobberyAttempt) (*interfaces.RobberyResult, error) {
	if attempt.AttackerID == attempt.VictimID {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonSelfTarget))
	}

	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	// A first-time attacker passed Check without a row
	if _, err := ensureAccount(ctx, s.accountRepo, s.eventPublisher, attempt.AttackerID, ""); err != nil {
		return nil, err
	}
	attacker, victim, err := s.lockParticipants(ctx, attempt.AttackerID, attempt.VictimID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	mods, err := loadModifiers(ctx, s.specialEventRepo, now)
	if err != nil {
		return nil, err
	}

	// Gates are re-evaluated on the locked rows. The victim's balance threshold was a pre-check;
	// here the amount is re-clamped to whatever the victim holds now.
	if eligibility := CheckAttackerEligibility(attacker, cfg, mods, now); !eligibility.Eligible {
		return nil, NewIneligibleError(eligibility)
	}
	if eligibility := CheckVictimEligibility(victim, cfg, now, false); !eligibility.Eligible {
		return nil, NewIneligibleError(eligibility)
	}

	question, err := loadQuestion(ctx, s.questionRepo, attempt.Answer.QuestionID)
	if err != nil {
		return nil, err
	}
	success := question.IsCorrect(attempt.Answer.Choice)

	if err := s.accountRepo.RecordRobberyAttempt(ctx, attacker.PlayerID, now); err != nil {
		return nil, fmt.Errorf("failed to record robbery attempt: %w", err)
	}

	result := &interfaces.RobberyResult{}
	robbery := &entities.Robbery{
		GuildID:    s.guildID,
		AttackerID: attacker.PlayerID,
		VictimID:   victim.PlayerID,
		QuestionID: &question.ID,
		Success:    success,
	}

	if success {
		pct := utils.UniformFloat(s.random, cfg.RobberyMinPct, cfg.RobberyMaxPct)
		amount := StolenAmount(victim.Money, pct)

		victimChange, err := utils.ApplyOutcome(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, victim,
			entities.TransactionTypeRobLose, entities.Delta{Money: -amount},
			fmt.Sprintf("Robbed by %d", attacker.PlayerID))
		if err != nil {
			return nil, err
		}
		stolen := -victimChange.Applied.Money

		attackerChange, err := utils.ApplyOutcome(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, attacker,
			entities.TransactionTypeRobWin, entities.Delta{Money: stolen},
			fmt.Sprintf("Robbed %d", victim.PlayerID))
		if err != nil {
			return nil, err
		}

		robbery.MoneyStolen = stolen
		robbery.EloChange = cfg.RobberyEloDelta
		result.AttackerChange = attackerChange
		result.VictimChange = victimChange
	} else {
		penalty := FailurePenalty(attacker.Money, cfg.RobberyFailPct)
		attackerChange, err := utils.ApplyOutcome(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, attacker,
			entities.TransactionTypeRobLose, entities.Delta{Money: -penalty},
			fmt.Sprintf("Failed robbery on %d", victim.PlayerID))
		if err != nil {
			return nil, err
		}

		robbery.MoneyStolen = attackerChange.Applied.Money
		robbery.EloChange = -cfg.RobberyEloDelta
		result.AttackerChange = attackerChange
	}

	if err := s.adjustElo(ctx, attacker, victim, robbery); err != nil {
		return nil, err
	}
	if err := s.robberyRepo.Create(ctx, robbery); err != nil {
		return nil, fmt.Errorf("failed to record robbery: %w", err)
	}
	if err := recordAnswer(ctx, s.answerRepo, s.questionRepo, attacker, question, attempt.Answer,
		entities.AnswerContextRobbery, nil, entities.Delta{Money: robbery.MoneyStolen}, now); err != nil {
		return nil, err
	}
	result.Robbery = robbery

	log.WithFields(log.Fields{
		"guildID":     s.guildID,
		"robberyID":   robbery.ID,
		"attackerID":  attacker.PlayerID,
		"victimID":    victim.PlayerID,
		"success":     success,
		"moneyStolen": robbery.MoneyStolen,
	}).Info("Robbery resolved")

	if err := s.eventPublisher.Publish(events.RobberyResolvedEvent{
		GuildID:     s.guildID,
		RobberyID:   robbery.ID,
		AttackerID:  attacker.PlayerID,
		VictimID:    victim.PlayerID,
		Success:     success,
		MoneyStolen: robbery.MoneyStolen,
	}); err != nil {
		log.WithError(err).Error("Failed to publish robbery resolved event")
	}

	return result, nil
}

func (s *robberyService) History(ctx context.Context, playerID int64, limit int) ([]*entities.Robbery, error) {
	robberies, err := s.robberyRepo.GetByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get robbery history: %w", err)
	}
	return robberies, nil
}

// lockParticipants locks both accounts in ascending id order
func (s *robberyService) lockParticipants(ctx context.Context, attackerID, victimID int64) (*entities.Account, *entities.Account, error) {
	accounts, err := s.accountRepo.GetManyForUpdate(ctx, []int64{attackerID, victimID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock robbery participants: %w", err)
	}

	var attacker, victim *entities.Account
	for _, a := range accounts {
		switch a.PlayerID {
		case attackerID:
			attacker = a
		case victimID:
			victim = a
		}
	}
	if attacker == nil || victim == nil {
		return nil, nil, NewIneligibleError(entities.Ineligible(entities.ReasonUnknownAccount))
	}
	return attacker, victim, nil
}

func (s *robberyService) adjustElo(ctx context.Context, attacker, victim *entities.Account, robbery *entities.Robbery) error {
	if robbery.EloChange == 0 {
		return nil
	}
	if err := s.accountRepo.AdjustElo(ctx, attacker.PlayerID, robbery.EloChange); err != nil {
		return fmt.Errorf("failed to adjust attacker elo: %w", err)
	}
	if robbery.Success {
		if err := s.accountRepo.AdjustElo(ctx, victim.PlayerID, -robbery.EloChange); err != nil {
			return fmt.Errorf("failed to adjust victim elo: %w", err)
		}
	}
	return nil
}

// StolenAmount is floor(balance * pct)
func StolenAmount(victimMoney int64, pct float64) int64 {
	return int64(math.Floor(float64(victimMoney) * pct))
}

// FailurePenalty is floor(balance * failPct)
func FailurePenalty(attackerMoney int64, failPct float64) int64 {
	return int64(math.Floor(float64(attackerMoney) * failPct))
}
