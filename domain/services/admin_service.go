package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

type adminService struct {
	accountRepo      interfaces.AccountRepository
	transactionRepo  interfaces.TransactionRepository
	grantRepo        interfaces.TemporaryGrantRepository
	goldenRepo       interfaces.GoldenEventRepository
	specialEventRepo interfaces.SpecialEventRepository
	eventPublisher   interfaces.EventPublisher
	guildID          int64
}

// NewAdminService creates a new admin service
func NewAdminService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	grantRepo interfaces.TemporaryGrantRepository,
	goldenRepo interfaces.GoldenEventRepository,
	specialEventRepo interfaces.SpecialEventRepository,
	eventPublisher interfaces.EventPublisher,
	guildID int64,
) interfaces.AdminService {
	return &adminService{
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		grantRepo:        grantRepo,
		goldenRepo:       goldenRepo,
		specialEventRepo: specialEventRepo,
		eventPublisher:   eventPublisher,
		guildID:          guildID,
	}
}

func (s *adminService) Give(ctx context.Context, playerID int64, delta entities.Delta, actorID int64) (*interfaces.BalanceChange, error) {
	if delta.IsZero() {
		return nil, invalidInput(errors.New("admin adjustment must change a balance"))
	}
	account, err := lockAccount(ctx, s.accountRepo, s.eventPublisher, playerID, "")
	if err != nil {
		return nil, err
	}

	change, err := utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, account,
		entities.TransactionTypeAdmin, delta, fmt.Sprintf("Admin adjustment by %d", actorID))
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"guildID":  s.guildID,
		"playerID": playerID,
		"actorID":  actorID,
		"applied":  change.Applied,
	}).Info("Admin balance adjustment")
	return change, nil
}

// ResetPlayer reverses the current balances through one admin entry so the ledger still reconciles
func (s *adminService) ResetPlayer(ctx context.Context, playerID int64, actorID int64) (*interfaces.BalanceChange, error) {
	account, err := s.accountRepo.GetForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonUnknownAccount))
	}

	change, err := utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, account,
		entities.TransactionTypeAdmin, entities.Delta{Points: -account.Points, Money: -account.Money},
		fmt.Sprintf("Reset by %d", actorID))
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.ResetProgress(ctx, playerID); err != nil {
		return nil, fmt.Errorf("failed to reset progress: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID":  s.guildID,
		"playerID": playerID,
		"actorID":  actorID,
	}).Warn("Player reset")
	return change, nil
}

func (s *adminService) ResetGuild(ctx context.Context) (int64, error) {
	deleted, err := s.accountRepo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts: %w", err)
	}
	log.WithFields(log.Fields{
		"guildID":  s.guildID,
		"accounts": deleted,
	}).Warn("Guild economy reset")
	return deleted, nil
}

func (s *adminService) Status(ctx context.Context) (*entities.GuildStatus, error) {
	now := time.Now()
	status := &entities.GuildStatus{GuildID: s.guildID}

	accounts, points, money, err := s.accountRepo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise accounts: %w", err)
	}
	status.Accounts = accounts
	status.TotalPoints = points
	status.TotalMoney = money

	if status.ActiveGrants, err = s.grantRepo.CountActive(ctx, now); err != nil {
		return nil, fmt.Errorf("failed to count active grants: %w", err)
	}
	if status.ActiveGoldenEvent, err = s.goldenRepo.GetOpen(ctx); err != nil {
		return nil, fmt.Errorf("failed to get open golden event: %w", err)
	}
	specials, err := s.specialEventRepo.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active special events: %w", err)
	}
	status.ActiveSpecials = int64(len(specials))
	if status.TransactionsLogged, err = s.transactionRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	return status, nil
}
