package services

import (
	"context"
	"testing"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGrantService struct {
	mock.Mock
}

func (m *mockGrantService) Grant(ctx context.Context, req interfaces.GrantRequest) (*interfaces.GrantResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.GrantResult), args.Error(1)
}

func (m *mockGrantService) Revoke(ctx context.Context, grantID int64) (*entities.TemporaryGrant, error) {
	args := m.Called(ctx, grantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TemporaryGrant), args.Error(1)
}

func (m *mockGrantService) ExpireDue(ctx context.Context, now time.Time) ([]*entities.TemporaryGrant, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TemporaryGrant), args.Error(1)
}

func (m *mockGrantService) PurchaseShield(ctx context.Context, playerID int64, hours int64) (*interfaces.GrantResult, error) {
	args := m.Called(ctx, playerID, hours)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.GrantResult), args.Error(1)
}

func (m *mockGrantService) Active(ctx context.Context, roleType entities.GrantRoleType) ([]*entities.TemporaryGrant, error) {
	args := m.Called(ctx, roleType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TemporaryGrant), args.Error(1)
}

func topRankRequest(playerID, roleID int64) interface{} {
	return mock.MatchedBy(func(req interfaces.GrantRequest) bool {
		return req.PlayerID == playerID &&
			req.RoleType == entities.GrantRoleTypeTopRank &&
			req.RoleID != nil && *req.RoleID == roleID &&
			req.Duration == TopRankGrantTTL &&
			req.Refresh
	})
}

func TestRankingService_RefreshTopRoles(t *testing.T) {
	t.Parallel()

	accounts := new(testhelpers.MockAccountRepository)
	grants := new(testhelpers.MockTemporaryGrantRepository)
	configs := new(testhelpers.MockGuildConfigRepository)
	grantService := new(mockGrantService)

	cfg := entities.DefaultGuildConfig(1)
	cfg.TopRoleIDs = []int64{11, 22, 33}
	configs.On("GetOrCreate", mock.Anything).Return(cfg, nil)

	accounts.On("Top", mock.Anything, entities.LeaderboardPoints, entities.MaxTopRoles, 0).Return([]*entities.Account{
		{PlayerID: 1, Points: 50},
		{PlayerID: 2, Points: 20},
		{PlayerID: 3, Points: 0},
	}, nil)

	grantService.On("Grant", mock.Anything, topRankRequest(1, 11)).Return(&interfaces.GrantResult{}, nil).Once()
	grantService.On("Grant", mock.Anything, topRankRequest(2, 22)).Return(&interfaces.GrantResult{}, nil).Once()

	now := time.Now()
	grants.On("ListActive", mock.Anything, entities.GrantRoleTypeTopRank, now).Return([]*entities.TemporaryGrant{
		{ID: 7, PlayerID: 1, RoleType: entities.GrantRoleTypeTopRank},
		{ID: 8, PlayerID: 9, RoleType: entities.GrantRoleTypeTopRank},
	}, nil)
	grantService.On("Revoke", mock.Anything, int64(8)).Return(&entities.TemporaryGrant{ID: 8}, nil).Once()

	service := NewRankingService(accounts, grants, configs, grantService, 1)
	require.NoError(t, service.RefreshTopRoles(context.Background(), now))

	grantService.AssertExpectations(t)
	grantService.AssertNotCalled(t, "Revoke", mock.Anything, int64(7))
}

func TestRankingService_RefreshTopRolesWithoutRolesRevokesHolders(t *testing.T) {
	t.Parallel()

	accounts := new(testhelpers.MockAccountRepository)
	grants := new(testhelpers.MockTemporaryGrantRepository)
	configs := new(testhelpers.MockGuildConfigRepository)
	grantService := new(mockGrantService)

	configs.On("GetOrCreate", mock.Anything).Return(entities.DefaultGuildConfig(1), nil)
	now := time.Now()
	grants.On("ListActive", mock.Anything, entities.GrantRoleTypeTopRank, now).Return([]*entities.TemporaryGrant{
		{ID: 3, PlayerID: 4, RoleType: entities.GrantRoleTypeTopRank},
	}, nil)
	// A concurrent sweep may have removed it already
	grantService.On("Revoke", mock.Anything, int64(3)).Return(nil, ErrAlreadyResolved).Once()

	service := NewRankingService(accounts, grants, configs, grantService, 1)
	require.NoError(t, service.RefreshTopRoles(context.Background(), now))

	accounts.AssertNotCalled(t, "Top", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	grantService.AssertExpectations(t)
}

func TestRankingService_Leaderboard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "explicit page", limit: 10, offset: 20, wantLimit: 10, wantOffset: 20},
		{name: "zero limit falls back", limit: 0, offset: 0, wantLimit: 10, wantOffset: 0},
		{name: "oversized limit falls back", limit: 500, offset: 0, wantLimit: 10, wantOffset: 0},
		{name: "negative offset is clamped", limit: 5, offset: -3, wantLimit: 5, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts := new(testhelpers.MockAccountRepository)
			accounts.On("Top", mock.Anything, entities.LeaderboardGold, tt.wantLimit, tt.wantOffset).Return([]*entities.Account{
				{PlayerID: 1, GoldWins: 4},
				{PlayerID: 2, GoldWins: 1},
			}, nil)

			service := NewRankingService(accounts, nil, nil, nil, 1)
			entries, err := service.Leaderboard(context.Background(), entities.LeaderboardGold, tt.limit, tt.offset)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, tt.wantOffset+1, entries[0].Rank)
			assert.Equal(t, tt.wantOffset+2, entries[1].Rank)
			assert.Equal(t, int64(1), entries[0].Account.PlayerID)
		})
	}
}

func TestRankingService_LeaderboardRejectsUnknownMetric(t *testing.T) {
	t.Parallel()

	service := NewRankingService(new(testhelpers.MockAccountRepository), nil, nil, nil, 1)
	_, err := service.Leaderboard(context.Background(), entities.LeaderboardMetric("luck"), 10, 0)
	assert.Error(t, err)
}
