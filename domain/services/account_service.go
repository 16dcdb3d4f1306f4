package services

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const profileTransactionLimit = 10

type accountService struct {
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	grantRepo       interfaces.TemporaryGrantRepository
	eventPublisher  interfaces.EventPublisher
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	grantRepo interfaces.TemporaryGrantRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.AccountService {
	return &accountService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		grantRepo:       grantRepo,
		eventPublisher:  eventPublisher,
	}
}

func (s *accountService) GetOrCreate(ctx context.Context, playerID int64, displayName string) (*entities.Account, error) {
	return ensureAccount(ctx, s.accountRepo, s.eventPublisher, playerID, displayName)
}

func (s *accountService) Profile(ctx context.Context, playerID int64) (*interfaces.PlayerProfile, error) {
	account, err := s.accountRepo.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonUnknownAccount))
	}

	now := time.Now()
	grants, err := s.grantRepo.ListActiveByPlayer(ctx, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active grants: %w", err)
	}
	multiplier, err := s.grantRepo.GetMultiplier(ctx, playerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get multiplier: %w", err)
	}
	recent, err := s.transactionRepo.GetByPlayer(ctx, playerID, profileTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}

	return &interfaces.PlayerProfile{
		Account:            account,
		ActiveGrants:       grants,
		RecentTransactions: recent,
		Multiplier:         multiplier,
	}, nil
}

// ensureAccount creates the account on first interaction and announces it
func ensureAccount(ctx context.Context, accountRepo interfaces.AccountRepository, publisher interfaces.EventPublisher, playerID int64, displayName string) (*entities.Account, error) {
	account, created, err := accountRepo.GetOrCreate(ctx, playerID, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}
	if created {
		log.WithFields(log.Fields{
			"playerID": playerID,
			"guildID":  account.GuildID,
		}).Info("Created account")
		if err := publisher.Publish(events.AccountCreatedEvent{
			GuildID:     account.GuildID,
			PlayerID:    playerID,
			DisplayName: displayName,
		}); err != nil {
			log.WithError(err).Error("Failed to publish account created event")
		}
	}
	return account, nil
}

// lockAccount creates the account if needed and then row-locks it
func lockAccount(ctx context.Context, accountRepo interfaces.AccountRepository, publisher interfaces.EventPublisher, playerID int64, displayName string) (*entities.Account, error) {
	if _, err := ensureAccount(ctx, accountRepo, publisher, playerID, displayName); err != nil {
		return nil, err
	}
	account, err := accountRepo.GetForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d disappeared after creation", playerID)
	}
	return account, nil
}
