package services

import (
	"context"
	"fmt"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

type ledgerService struct {
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
	}
}

// Apply locks the account and applies the delta through the ledger
func (s *ledgerService) Apply(ctx context.Context, playerID int64, txType entities.TransactionType, requested entities.Delta, description string) (*interfaces.BalanceChange, error) {
	account, err := s.accountRepo.GetForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonUnknownAccount))
	}
	return utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, account, txType, requested, description)
}

func (s *ledgerService) Reconcile(ctx context.Context, playerID int64) (*entities.Reconciliation, error) {
	r, err := s.transactionRepo.Reconcile(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile account: %w", err)
	}
	if r == nil {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonUnknownAccount))
	}
	return r, nil
}

// Audit reports drifted accounts. Drift is logged and returned, never repaired here.
func (s *ledgerService) Audit(ctx context.Context) ([]*entities.Reconciliation, error) {
	drift, err := s.transactionRepo.FindDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to audit ledger: %w", err)
	}
	for _, r := range drift {
		log.WithFields(log.Fields{
			"playerID":     r.PlayerID,
			"guildID":      r.GuildID,
			"points":       r.Points,
			"ledgerPoints": r.LedgerPoints,
			"money":        r.Money,
			"ledgerMoney":  r.LedgerMoney,
		}).Error("Ledger drift detected")
	}
	return drift, nil
}
