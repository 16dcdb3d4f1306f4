package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"
	"quizbot/domain/utils"

	log "github.com/sirupsen/logrus"
)

const (
	// ShieldPointsPerHour is the price of one hour of robbery immunity
	ShieldPointsPerHour int64 = 5
)

// ShieldPresetHours are the shield durations players can buy
var ShieldPresetHours = []int64{1, 6, 24}

type grantService struct {
	grantRepo       interfaces.TemporaryGrantRepository
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	guildID         int64
}

// NewGrantService creates the temporary grant lifecycle manager for a guild
func NewGrantService(
	grantRepo interfaces.TemporaryGrantRepository,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	guildID int64,
) interfaces.GrantService {
	return &grantService{
		grantRepo:       grantRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		guildID:         guildID,
	}
}

func (s *grantService) Grant(ctx context.Context, req interfaces.GrantRequest) (*interfaces.GrantResult, error) {
	if !req.RoleType.IsValid() {
		return nil, invalidInput(fmt.Errorf("unknown role type %q", req.RoleType))
	}
	if req.Duration <= 0 {
		return nil, invalidInput(errors.New("grant duration must be positive"))
	}
	if req.Multiplier <= 0 {
		req.Multiplier = 1
	}

	// Grants reference the account row
	if _, err := ensureAccount(ctx, s.accountRepo, s.eventPublisher, req.PlayerID, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	current, err := s.grantRepo.GetCurrentForUpdate(ctx, req.PlayerID, req.RoleType)
	if err != nil {
		return nil, fmt.Errorf("failed to get current grant: %w", err)
	}

	// A grant past its expiry that the sweep has not reached yet is expired here first
	if current != nil && current.IsDueForExpiry(now) {
		if _, err := s.remove(ctx, current, entities.RemovalReasonExpired, now); err != nil {
			return nil, err
		}
		current = nil
	}

	result := &interfaces.GrantResult{}
	if current != nil {
		if current.SameRole(req.RoleID) {
			expiresAt := current.ExpiresAt.Add(req.Duration)
			if req.Refresh {
				expiresAt = now.Add(req.Duration)
				if expiresAt.Before(current.ExpiresAt) {
					expiresAt = current.ExpiresAt
				}
			}
			multiplier := max(current.Multiplier, req.Multiplier)
			if err := s.grantRepo.Extend(ctx, current.ID, expiresAt, multiplier); err != nil {
				return nil, fmt.Errorf("failed to extend grant: %w", err)
			}
			current.ExpiresAt = expiresAt
			current.Multiplier = multiplier
			result.Grant = current
			result.Extended = true
			return result, nil
		}

		if _, err := s.remove(ctx, current, entities.RemovalReasonReplaced, now); err != nil {
			return nil, err
		}
		result.Replaced = current
	}

	grant := &entities.TemporaryGrant{
		PlayerID:   req.PlayerID,
		GuildID:    s.guildID,
		RoleType:   req.RoleType,
		RoleID:     req.RoleID,
		Multiplier: req.Multiplier,
		GrantedAt:  now,
		ExpiresAt:  now.Add(req.Duration),
	}
	if err := s.grantRepo.Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to create grant: %w", err)
	}
	result.Grant = grant

	log.WithFields(log.Fields{
		"guildID":   s.guildID,
		"playerID":  req.PlayerID,
		"grantID":   grant.ID,
		"roleType":  req.RoleType,
		"expiresAt": grant.ExpiresAt,
	}).Info("Granted temporary role")

	if err := s.eventPublisher.Publish(events.RoleGrantedEvent{
		GuildID:   s.guildID,
		PlayerID:  grant.PlayerID,
		GrantID:   grant.ID,
		RoleID:    roleIDOf(grant),
		RoleType:  grant.RoleType,
		ExpiresAt: grant.ExpiresAt,
	}); err != nil {
		log.WithError(err).Error("Failed to publish role granted event")
	}
	return result, nil
}

func (s *grantService) Revoke(ctx context.Context, grantID int64) (*entities.TemporaryGrant, error) {
	grant, err := s.grantRepo.GetByID(ctx, grantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	if grant == nil {
		return nil, fmt.Errorf("grant %d not found", grantID)
	}
	removed, err := s.remove(ctx, grant, entities.RemovalReasonRevoked, time.Now())
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, ErrAlreadyResolved
	}
	return grant, nil
}

func (s *grantService) ExpireDue(ctx context.Context, now time.Time) ([]*entities.TemporaryGrant, error) {
	expired, err := s.grantRepo.RemoveExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to remove expired grants: %w", err)
	}
	for _, grant := range expired {
		s.publishRevoked(grant, entities.RemovalReasonExpired)
	}
	if len(expired) > 0 {
		log.WithFields(log.Fields{
			"guildID": s.guildID,
			"count":   len(expired),
		}).Info("Expired temporary grants")
	}
	return expired, nil
}

func (s *grantService) PurchaseShield(ctx context.Context, playerID int64, hours int64) (*interfaces.GrantResult, error) {
	if !slices.Contains(ShieldPresetHours, hours) {
		return nil, invalidInput(fmt.Errorf("shield duration must be one of %v hours", ShieldPresetHours))
	}

	account, err := s.accountRepo.GetForUpdate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonUnknownAccount))
	}

	now := time.Now()
	if account.IsShielded(now) {
		return nil, NewIneligibleError(entities.IneligibleFor(entities.ReasonShieldActive, account.ShieldUntil.Sub(now)))
	}

	cost := ShieldPointsPerHour * hours
	if account.Points < cost {
		return nil, NewIneligibleError(entities.Ineligible(entities.ReasonInsufficientFunds))
	}

	change, err := utils.ApplyDelta(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, account,
		entities.TransactionTypeShieldBuy, entities.Delta{Points: -cost},
		fmt.Sprintf("Shield for %dh", hours))
	if err != nil {
		return nil, err
	}

	result, err := s.Grant(ctx, interfaces.GrantRequest{
		PlayerID: playerID,
		RoleType: entities.GrantRoleTypeShield,
		Duration: time.Duration(hours) * time.Hour,
	})
	if err != nil {
		return nil, err
	}
	result.Change = change
	return result, nil
}

func (s *grantService) Active(ctx context.Context, roleType entities.GrantRoleType) ([]*entities.TemporaryGrant, error) {
	grants, err := s.grantRepo.ListActive(ctx, roleType, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active grants: %w", err)
	}
	return grants, nil
}

// remove flips the grant to removed once and emits the platform instruction
func (s *grantService) remove(ctx context.Context, grant *entities.TemporaryGrant, reason entities.RemovalReason, now time.Time) (bool, error) {
	removed, err := s.grantRepo.MarkRemoved(ctx, grant.ID, reason, now)
	if err != nil {
		return false, fmt.Errorf("failed to remove grant: %w", err)
	}
	if !removed {
		return false, nil
	}
	grant.Removed = true
	grant.RemovedAt = &now
	grant.RemovalReason = &reason
	s.publishRevoked(grant, reason)
	return true, nil
}

func (s *grantService) publishRevoked(grant *entities.TemporaryGrant, reason entities.RemovalReason) {
	if err := s.eventPublisher.Publish(events.RoleRevokedEvent{
		GuildID:  s.guildID,
		PlayerID: grant.PlayerID,
		GrantID:  grant.ID,
		RoleID:   roleIDOf(grant),
		RoleType: grant.RoleType,
		Reason:   reason,
	}); err != nil {
		log.WithError(err).Error("Failed to publish role revoked event")
	}
}

func roleIDOf(grant *entities.TemporaryGrant) int64 {
	if grant.HasPlatformRole() {
		return *grant.RoleID
	}
	return 0
}
