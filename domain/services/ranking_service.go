package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TopRankGrantTTL keeps a top-rank role alive between two recomputations
const TopRankGrantTTL = 15 * time.Minute

const maxLeaderboardSize = 50

type rankingService struct {
	accountRepo     interfaces.AccountRepository
	grantRepo       interfaces.TemporaryGrantRepository
	guildConfigRepo interfaces.GuildConfigRepository
	grantService    interfaces.GrantService
	guildID         int64
}

// NewRankingService creates a new ranking service
func NewRankingService(
	accountRepo interfaces.AccountRepository,
	grantRepo interfaces.TemporaryGrantRepository,
	guildConfigRepo interfaces.GuildConfigRepository,
	grantService interfaces.GrantService,
	guildID int64,
) interfaces.RankingService {
	return &rankingService{
		accountRepo:     accountRepo,
		grantRepo:       grantRepo,
		guildConfigRepo: guildConfigRepo,
		grantService:    grantService,
		guildID:         guildID,
	}
}

func (s *rankingService) Leaderboard(ctx context.Context, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.LeaderboardEntry, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accountRepo.Top(ctx, metric, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	entries := make([]*entities.LeaderboardEntry, len(accounts))
	for i, account := range accounts {
		entries[i] = &entities.LeaderboardEntry{Rank: offset + i + 1, Account: account}
	}
	return entries, nil
}

// RefreshTopRoles hands top_role_ids[i] to the player ranked i+1 by points and revokes the
// top-rank grants of everyone who dropped out
func (s *rankingService) RefreshTopRoles(ctx context.Context, now time.Time) error {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get guild config: %w", err)
	}

	holders := make(map[int64]bool)
	if len(cfg.TopRoleIDs) > 0 {
		top, err := s.accountRepo.Top(ctx, entities.LeaderboardPoints, entities.MaxTopRoles, 0)
		if err != nil {
			return fmt.Errorf("failed to get top players: %w", err)
		}
		for i, account := range top {
			roleID, ok := cfg.TopRoleFor(i + 1)
			if !ok || account.Points == 0 {
				continue
			}
			if _, err := s.grantService.Grant(ctx, interfaces.GrantRequest{
				PlayerID: account.PlayerID,
				RoleType: entities.GrantRoleTypeTopRank,
				RoleID:   &roleID,
				Duration: TopRankGrantTTL,
				Refresh:  true,
			}); err != nil {
				return fmt.Errorf("failed to grant top role: %w", err)
			}
			holders[account.PlayerID] = true
		}
	}

	active, err := s.grantRepo.ListActive(ctx, entities.GrantRoleTypeTopRank, now)
	if err != nil {
		return fmt.Errorf("failed to list top rank grants: %w", err)
	}
	for _, grant := range active {
		if holders[grant.PlayerID] {
			continue
		}
		if _, err := s.grantService.Revoke(ctx, grant.ID); err != nil && !errors.Is(err, ErrAlreadyResolved) {
			return fmt.Errorf("failed to revoke top role: %w", err)
		}
		log.WithFields(log.Fields{
			"guildID":  s.guildID,
			"playerID": grant.PlayerID,
			"grantID":  grant.ID,
		}).Debug("Revoked displaced top role")
	}
	return nil
}
