package testhelpers

import (
	"context"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, playerID int64) (*entities.Account, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, playerID int64) (*entities.Account, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetManyForUpdate(ctx context.Context, playerIDs []int64) ([]*entities.Account, error) {
	args := m.Called(ctx, playerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetOrCreate(ctx context.Context, playerID int64, displayName string) (*entities.Account, bool, error) {
	args := m.Called(ctx, playerID, displayName)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, playerID int64, points, money int64) error {
	args := m.Called(ctx, playerID, points, money)
	return args.Error(0)
}

func (m *MockAccountRepository) RecordDailyClaim(ctx context.Context, playerID int64, streak int64, claimedAt time.Time) error {
	args := m.Called(ctx, playerID, streak, claimedAt)
	return args.Error(0)
}

func (m *MockAccountRepository) IssueDailyQuestion(ctx context.Context, playerID, questionID int64, issuedAt time.Time) error {
	args := m.Called(ctx, playerID, questionID, issuedAt)
	return args.Error(0)
}

func (m *MockAccountRepository) RecordQuizAnswer(ctx context.Context, playerID int64, correct bool) error {
	args := m.Called(ctx, playerID, correct)
	return args.Error(0)
}

func (m *MockAccountRepository) RecordRobberyAttempt(ctx context.Context, playerID int64, at time.Time) error {
	args := m.Called(ctx, playerID, at)
	return args.Error(0)
}

func (m *MockAccountRepository) AdjustElo(ctx context.Context, playerID int64, delta int64) error {
	args := m.Called(ctx, playerID, delta)
	return args.Error(0)
}

func (m *MockAccountRepository) IncrementGoldWins(ctx context.Context, playerID int64) error {
	args := m.Called(ctx, playerID)
	return args.Error(0)
}

func (m *MockAccountRepository) ResetDailyCounters(ctx context.Context, today time.Time) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) ResetProgress(ctx context.Context, playerID int64) error {
	args := m.Called(ctx, playerID)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Top(ctx context.Context, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.Account, error) {
	args := m.Called(ctx, metric, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Summary(ctx context.Context) (int64, int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Reconcile(ctx context.Context, playerID int64) (*entities.Reconciliation, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Reconciliation), args.Error(1)
}

func (m *MockTransactionRepository) FindDrift(ctx context.Context) ([]*entities.Reconciliation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Reconciliation), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *entities.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id int64) (*entities.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Question), args.Error(1)
}

func (m *MockQuestionRepository) PickLeastUsed(ctx context.Context) (*entities.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Question), args.Error(1)
}

func (m *MockQuestionRepository) RecordUsage(ctx context.Context, id int64, correct bool) error {
	args := m.Called(ctx, id, correct)
	return args.Error(0)
}

// MockAnswerRecordRepository is a mock implementation of AnswerRecordRepository
type MockAnswerRecordRepository struct {
	mock.Mock
}

func (m *MockAnswerRecordRepository) Record(ctx context.Context, record *entities.AnswerRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnswerRecordRepository) LastAnswerAt(ctx context.Context, playerID int64, answerContext entities.AnswerContext) (*time.Time, error) {
	args := m.Called(ctx, playerID, answerContext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockAnswerRecordRepository) HasGoldenAttempt(ctx context.Context, eventID, playerID int64) (bool, error) {
	args := m.Called(ctx, eventID, playerID)
	return args.Bool(0), args.Error(1)
}

// MockGoldenEventRepository is a mock implementation of GoldenEventRepository
type MockGoldenEventRepository struct {
	mock.Mock
}

func (m *MockGoldenEventRepository) GetOpen(ctx context.Context) (*entities.GoldenEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GoldenEvent), args.Error(1)
}

func (m *MockGoldenEventRepository) ListActive(ctx context.Context) ([]*entities.GoldenEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GoldenEvent), args.Error(1)
}

func (m *MockGoldenEventRepository) GetLatestEnded(ctx context.Context) (*entities.GoldenEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GoldenEvent), args.Error(1)
}

func (m *MockGoldenEventRepository) CreatePending(ctx context.Context, jackpot int64) (*entities.GoldenEvent, error) {
	args := m.Called(ctx, jackpot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GoldenEvent), args.Error(1)
}

func (m *MockGoldenEventRepository) Activate(ctx context.Context, eventID, questionID, rewardPoints int64, startedAt, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, eventID, questionID, rewardPoints, startedAt, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockGoldenEventRepository) Claim(ctx context.Context, eventID, winnerID int64, at time.Time) (*entities.GoldenEvent, error) {
	args := m.Called(ctx, eventID, winnerID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GoldenEvent), args.Error(1)
}

func (m *MockGoldenEventRepository) ExpireDue(ctx context.Context, now time.Time) ([]*entities.GoldenEvent, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GoldenEvent), args.Error(1)
}

// MockRobberyRepository is a mock implementation of RobberyRepository
type MockRobberyRepository struct {
	mock.Mock
}

func (m *MockRobberyRepository) Create(ctx context.Context, robbery *entities.Robbery) error {
	args := m.Called(ctx, robbery)
	return args.Error(0)
}

func (m *MockRobberyRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Robbery, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Robbery), args.Error(1)
}

// MockTemporaryGrantRepository is a mock implementation of TemporaryGrantRepository
type MockTemporaryGrantRepository struct {
	mock.Mock
}

func (m *MockTemporaryGrantRepository) GetCurrentForUpdate(ctx context.Context, playerID int64, roleType entities.GrantRoleType) (*entities.TemporaryGrant, error) {
	args := m.Called(ctx, playerID, roleType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TemporaryGrant), args.Error(1)
}

func (m *MockTemporaryGrantRepository) GetByID(ctx context.Context, id int64) (*entities.TemporaryGrant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TemporaryGrant), args.Error(1)
}

func (m *MockTemporaryGrantRepository) Create(ctx context.Context, grant *entities.TemporaryGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockTemporaryGrantRepository) Extend(ctx context.Context, id int64, expiresAt time.Time, multiplier float64) error {
	args := m.Called(ctx, id, expiresAt, multiplier)
	return args.Error(0)
}

func (m *MockTemporaryGrantRepository) MarkRemoved(ctx context.Context, id int64, reason entities.RemovalReason, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTemporaryGrantRepository) RemoveExpired(ctx context.Context, now time.Time) ([]*entities.TemporaryGrant, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TemporaryGrant), args.Error(1)
}

func (m *MockTemporaryGrantRepository) ListActive(ctx context.Context, roleType entities.GrantRoleType, now time.Time) ([]*entities.TemporaryGrant, error) {
	args := m.Called(ctx, roleType, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TemporaryGrant), args.Error(1)
}

func (m *MockTemporaryGrantRepository) ListActiveByPlayer(ctx context.Context, playerID int64, now time.Time) ([]*entities.TemporaryGrant, error) {
	args := m.Called(ctx, playerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TemporaryGrant), args.Error(1)
}

func (m *MockTemporaryGrantRepository) GetMultiplier(ctx context.Context, playerID int64, now time.Time) (float64, error) {
	args := m.Called(ctx, playerID, now)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockTemporaryGrantRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockSpecialEventRepository is a mock implementation of SpecialEventRepository
type MockSpecialEventRepository struct {
	mock.Mock
}

func (m *MockSpecialEventRepository) Create(ctx context.Context, event *entities.SpecialEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSpecialEventRepository) ListActive(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SpecialEvent), args.Error(1)
}

func (m *MockSpecialEventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SpecialEvent), args.Error(1)
}

func (m *MockSpecialEventRepository) MarkAnnouncedDue(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SpecialEvent), args.Error(1)
}

func (m *MockSpecialEventRepository) EndEarly(ctx context.Context, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

// MockGuildConfigRepository is a mock implementation of GuildConfigRepository
type MockGuildConfigRepository struct {
	mock.Mock
}

func (m *MockGuildConfigRepository) GetOrCreate(ctx context.Context) (*entities.GuildConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) Update(ctx context.Context, cfg *entities.GuildConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedRandom is a deterministic RandomSource that replays queued values
type FixedRandom struct {
	Floats []float64
	Ints   []int64
}

func (r *FixedRandom) Float64() float64 {
	if len(r.Floats) == 0 {
		return 0
	}
	v := r.Floats[0]
	r.Floats = r.Floats[1:]
	return v
}

func (r *FixedRandom) Int64N(n int64) int64 {
	if len(r.Ints) == 0 {
		return 0
	}
	v := r.Ints[0]
	r.Ints = r.Ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}
