package utils

import (
	"context"
	"fmt"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ApplyDelta is the single entry point for every balance change in the system.
// The account must have been loaded with GetForUpdate in the current transaction. The requested
// delta is clamped so no balance goes negative, the balances are written, and exactly one ledger
// entry holding the applied amounts is appended. The account struct is updated in place.
// A zero request changes nothing and writes no entry.
func ApplyDelta(
	ctx context.Context,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	account *entities.Account,
	txType entities.TransactionType,
	requested entities.Delta,
	description string,
) (*interfaces.BalanceChange, error) {
	return applyDelta(ctx, accountRepo, transactionRepo, eventPublisher, account, txType, requested, description, false)
}

// ApplyOutcome works like ApplyDelta but always appends the ledger entry, so an outcome
// whose amount computed to zero (a robbery of an empty wallet) is still on record.
func ApplyOutcome(
	ctx context.Context,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	account *entities.Account,
	txType entities.TransactionType,
	requested entities.Delta,
	description string,
) (*interfaces.BalanceChange, error) {
	return applyDelta(ctx, accountRepo, transactionRepo, eventPublisher, account, txType, requested, description, true)
}

func applyDelta(
	ctx context.Context,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	account *entities.Account,
	txType entities.TransactionType,
	requested entities.Delta,
	description string,
	recordZero bool,
) (*interfaces.BalanceChange, error) {
	if !txType.IsValid() {
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}

	change := &interfaces.BalanceChange{
		Account:   account,
		Requested: requested,
	}
	if requested.IsZero() && !recordZero {
		return change, nil
	}

	before := account.Balance()
	applied := entities.ClampDelta(before, requested)
	change.Applied = applied

	if !applied.IsZero() {
		if err := accountRepo.UpdateBalances(ctx, account.PlayerID, before.Points+applied.Points, before.Money+applied.Money); err != nil {
			return nil, fmt.Errorf("failed to update balances: %w", err)
		}
		account.Points = before.Points + applied.Points
		account.Money = before.Money + applied.Money
	}

	tx := &entities.Transaction{
		PlayerID:    account.PlayerID,
		GuildID:     account.GuildID,
		Type:        txType,
		PointsDelta: applied.Points,
		MoneyDelta:  applied.Money,
		Description: description,
	}
	if err := transactionRepo.Record(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	change.Transaction = tx

	if applied != requested {
		log.WithFields(log.Fields{
			"playerID":  account.PlayerID,
			"guildID":   account.GuildID,
			"txType":    txType,
			"requested": requested,
			"applied":   applied,
		}).Debug("Balance delta clamped at zero")
	}

	event := events.BalanceChangeEvent{
		GuildID:         account.GuildID,
		PlayerID:        account.PlayerID,
		OldPoints:       before.Points,
		NewPoints:       account.Points,
		OldMoney:        before.Money,
		NewMoney:        account.Money,
		TransactionType: txType,
		TransactionID:   tx.ID,
	}
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return change, nil
}
