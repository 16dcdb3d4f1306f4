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

type grantMocks struct {
	grants       *testhelpers.MockTemporaryGrantRepository
	accounts     *testhelpers.MockAccountRepository
	transactions *testhelpers.MockTransactionRepository
	publisher    *testhelpers.MockEventPublisher
}

func newGrantMocks() *grantMocks {
	m := &grantMocks{
		grants:       new(testhelpers.MockTemporaryGrantRepository),
		accounts:     new(testhelpers.MockAccountRepository),
		transactions: new(testhelpers.MockTransactionRepository),
		publisher:    new(testhelpers.MockEventPublisher),
	}
	m.publisher.On("Publish", mock.Anything).Return(nil)
	m.accounts.On("GetOrCreate", mock.Anything, mock.Anything, "").
		Return(&entities.Account{PlayerID: 5, GuildID: 1}, false, nil).Maybe()
	return m
}

func (m *grantMocks) service() interfaces.GrantService {
	return NewGrantService(m.grants, m.accounts, m.transactions, m.publisher, 1)
}

func roleID(id int64) *int64 { return &id }

func TestGrantService_Grant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		current      func() *entities.TemporaryGrant
		request      interfaces.GrantRequest
		setup        func(m *grantMocks)
		wantExtended bool
		wantReplaced bool
		check        func(t *testing.T, result *interfaces.GrantResult)
	}{
		{
			name:    "no current grant creates one",
			current: func() *entities.TemporaryGrant { return nil },
			request: interfaces.GrantRequest{PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100), Duration: time.Hour},
			setup: func(m *grantMocks) {
				m.grants.On("Create", mock.Anything, mock.AnythingOfType("*entities.TemporaryGrant")).Return(nil)
			},
			check: func(t *testing.T, result *interfaces.GrantResult) {
				assert.Equal(t, 1.0, result.Grant.Multiplier)
				assert.Equal(t, int64(1), result.Grant.GuildID)
			},
		},
		{
			name: "same role adds the duration",
			current: func() *entities.TemporaryGrant {
				return &entities.TemporaryGrant{ID: 9, PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100),
					Multiplier: 1.5, GrantedAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().Add(2 * time.Hour)}
			},
			request: interfaces.GrantRequest{PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100), Multiplier: 1.2, Duration: time.Hour},
			setup: func(m *grantMocks) {
				m.grants.On("Extend", mock.Anything, int64(9), mock.Anything, 1.5).Return(nil)
			},
			wantExtended: true,
			check: func(t *testing.T, result *interfaces.GrantResult) {
				assert.WithinDuration(t, time.Now().Add(3*time.Hour), result.Grant.ExpiresAt, 5*time.Second)
			},
		},
		{
			name: "refresh never shortens a grant",
			current: func() *entities.TemporaryGrant {
				return &entities.TemporaryGrant{ID: 9, PlayerID: 5, RoleType: entities.GrantRoleTypeTopRank, RoleID: roleID(100),
					Multiplier: 1, GrantedAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().Add(time.Hour)}
			},
			request: interfaces.GrantRequest{PlayerID: 5, RoleType: entities.GrantRoleTypeTopRank, RoleID: roleID(100), Duration: 15 * time.Minute, Refresh: true},
			setup: func(m *grantMocks) {
				m.grants.On("Extend", mock.Anything, int64(9), mock.Anything, 1.0).Return(nil)
			},
			wantExtended: true,
			check: func(t *testing.T, result *interfaces.GrantResult) {
				assert.WithinDuration(t, time.Now().Add(time.Hour), result.Grant.ExpiresAt, 5*time.Second)
			},
		},
		{
			name: "different role replaces the current grant",
			current: func() *entities.TemporaryGrant {
				return &entities.TemporaryGrant{ID: 9, PlayerID: 5, RoleType: entities.GrantRoleTypeTopRank, RoleID: roleID(100),
					Multiplier: 1, GrantedAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().Add(time.Hour)}
			},
			request: interfaces.GrantRequest{PlayerID: 5, RoleType: entities.GrantRoleTypeTopRank, RoleID: roleID(200), Duration: 15 * time.Minute},
			setup: func(m *grantMocks) {
				m.grants.On("MarkRemoved", mock.Anything, int64(9), entities.RemovalReasonReplaced, mock.Anything).Return(true, nil)
				m.grants.On("Create", mock.Anything, mock.AnythingOfType("*entities.TemporaryGrant")).Return(nil)
			},
			wantReplaced: true,
			check: func(t *testing.T, result *interfaces.GrantResult) {
				assert.Equal(t, int64(200), *result.Grant.RoleID)
				assert.True(t, result.Replaced.Removed)
			},
		},
		{
			name: "stale grant is expired before a new one starts",
			current: func() *entities.TemporaryGrant {
				return &entities.TemporaryGrant{ID: 9, PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100),
					Multiplier: 1, GrantedAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Minute)}
			},
			request: interfaces.GrantRequest{PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100), Duration: time.Hour},
			setup: func(m *grantMocks) {
				m.grants.On("MarkRemoved", mock.Anything, int64(9), entities.RemovalReasonExpired, mock.Anything).Return(true, nil)
				m.grants.On("Create", mock.Anything, mock.AnythingOfType("*entities.TemporaryGrant")).Return(nil)
			},
			check: func(t *testing.T, result *interfaces.GrantResult) {
				assert.WithinDuration(t, time.Now().Add(time.Hour), result.Grant.ExpiresAt, 5*time.Second)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newGrantMocks()
			current := tt.current()
			if current == nil {
				m.grants.On("GetCurrentForUpdate", mock.Anything, tt.request.PlayerID, tt.request.RoleType).Return(nil, nil)
			} else {
				m.grants.On("GetCurrentForUpdate", mock.Anything, tt.request.PlayerID, tt.request.RoleType).Return(current, nil)
			}
			tt.setup(m)

			result, err := m.service().Grant(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExtended, result.Extended)
			assert.Equal(t, tt.wantReplaced, result.Replaced != nil)
			tt.check(t, result)
			m.grants.AssertExpectations(t)
		})
	}
}

func TestGrantService_Revoke_AlreadyRemoved(t *testing.T) {
	t.Parallel()

	m := newGrantMocks()
	grant := &entities.TemporaryGrant{ID: 9, PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100)}
	m.grants.On("GetByID", mock.Anything, int64(9)).Return(grant, nil)
	m.grants.On("MarkRemoved", mock.Anything, int64(9), entities.RemovalReasonRevoked, mock.Anything).Return(false, nil)

	_, err := m.service().Revoke(context.Background(), 9)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestGrantService_ExpireDue_PublishesRemovals(t *testing.T) {
	t.Parallel()

	m := newGrantMocks()
	now := time.Now()
	expired := []*entities.TemporaryGrant{
		{ID: 1, PlayerID: 5, RoleType: entities.GrantRoleTypeVIP, RoleID: roleID(100)},
		{ID: 2, PlayerID: 6, RoleType: entities.GrantRoleTypeShield},
	}
	m.grants.On("RemoveExpired", mock.Anything, now).Return(expired, nil)

	got, err := m.service().ExpireDue(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	m.publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestGrantService_PurchaseShield(t *testing.T) {
	t.Parallel()

	shieldUntil := time.Now().Add(30 * time.Minute)

	tests := []struct {
		name    string
		hours   int64
		account *entities.Account
		want    entities.IneligibleReason
		wantErr bool
	}{
		{name: "unsupported duration", hours: 3, account: &entities.Account{PlayerID: 5, Points: 500}, wantErr: true},
		{name: "already shielded", hours: 1, account: &entities.Account{PlayerID: 5, Points: 500, ShieldUntil: &shieldUntil}, want: entities.ReasonShieldActive},
		{name: "not enough points", hours: 6, account: &entities.Account{PlayerID: 5, Points: 29}, want: entities.ReasonInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newGrantMocks()
			m.accounts.On("GetForUpdate", mock.Anything, int64(5)).Return(tt.account, nil)

			_, err := m.service().PurchaseShield(context.Background(), 5, tt.hours)
			require.Error(t, err)
			if tt.wantErr {
				_, ok := AsIneligible(err)
				assert.False(t, ok)
				return
			}
			eligibility, ok := AsIneligible(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, eligibility.Reason)
			m.accounts.AssertNotCalled(t, "UpdateBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGrantService_PurchaseShield_ChargesAndGrants(t *testing.T) {
	t.Parallel()

	m := newGrantMocks()
	account := &entities.Account{PlayerID: 5, GuildID: 1, Points: 40, Money: 7}
	m.accounts.On("GetForUpdate", mock.Anything, int64(5)).Return(account, nil)
	m.accounts.On("UpdateBalances", mock.Anything, int64(5), int64(10), int64(7)).Return(nil)
	m.transactions.On("Record", mock.Anything, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Type == entities.TransactionTypeShieldBuy && tx.PointsDelta == -30
	})).Return(nil)
	m.grants.On("GetCurrentForUpdate", mock.Anything, int64(5), entities.GrantRoleTypeShield).Return(nil, nil)
	m.grants.On("Create", mock.Anything, mock.MatchedBy(func(g *entities.TemporaryGrant) bool {
		return g.RoleType == entities.GrantRoleTypeShield && g.RoleID == nil
	})).Return(nil)

	result, err := m.service().PurchaseShield(context.Background(), 5, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(10), account.Points)
	assert.Equal(t, entities.Delta{Points: -30}, result.Change.Applied)
	assert.WithinDuration(t, time.Now().Add(6*time.Hour), result.Grant.ExpiresAt, 5*time.Second)
}
