package interfaces

import (
	"context"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"
)

// Every repository except QuestionRepository and GuildRepository is scoped to the guild of the
// unit of work that created it. Methods never read or write rows of another guild.

// AccountRepository defines the interface for per-guild player accounts
type AccountRepository interface {
	// Get retrieves an account, with ShieldUntil derived from the active shield grant
	Get(ctx context.Context, playerID int64) (*entities.Account, error)

	// GetForUpdate retrieves an account and row-locks it until the transaction ends
	GetForUpdate(ctx context.Context, playerID int64) (*entities.Account, error)

	// GetManyForUpdate locks several accounts in ascending player id order
	GetManyForUpdate(ctx context.Context, playerIDs []int64) ([]*entities.Account, error)

	// GetOrCreate returns the account, creating it with zero balances on first interaction
	GetOrCreate(ctx context.Context, playerID int64, displayName string) (*entities.Account, bool, error)

	// UpdateBalances writes new balances; callers must hold the row lock and record a transaction
	UpdateBalances(ctx context.Context, playerID int64, points, money int64) error

	// RecordDailyClaim stores the new streak and claim time, closing any open daily question
	RecordDailyClaim(ctx context.Context, playerID int64, streak int64, claimedAt time.Time) error

	// IssueDailyQuestion records the daily question a player has to answer
	IssueDailyQuestion(ctx context.Context, playerID, questionID int64, issuedAt time.Time) error

	// RecordQuizAnswer increments the quiz counters
	RecordQuizAnswer(ctx context.Context, playerID int64, correct bool) error

	// RecordRobberyAttempt bumps the daily robbery counter for the UTC day of at
	RecordRobberyAttempt(ctx context.Context, playerID int64, at time.Time) error

	// AdjustElo moves the rating by delta, never below zero
	AdjustElo(ctx context.Context, playerID int64, delta int64) error

	// IncrementGoldWins adds one golden event win
	IncrementGoldWins(ctx context.Context, playerID int64) error

	// ResetDailyCounters zeroes robbery counters stamped before today
	ResetDailyCounters(ctx context.Context, today time.Time) (int64, error)

	// ResetProgress clears streaks, counters and rating; balances are reset through the ledger
	ResetProgress(ctx context.Context, playerID int64) error

	// DeleteAll removes every account of the guild, cascading to dependent rows
	DeleteAll(ctx context.Context) (int64, error)

	// Top returns accounts ordered by the metric
	Top(ctx context.Context, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.Account, error)

	// Summary returns the account count and balance totals of the guild
	Summary(ctx context.Context) (accounts, points, money int64, err error)
}

// TransactionRepository defines the append-only ledger
type TransactionRepository interface {
	// Record appends a ledger entry and fills its ID and CreatedAt
	Record(ctx context.Context, tx *entities.Transaction) error

	// GetByPlayer returns the most recent entries for a player
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Transaction, error)

	// Reconcile compares the player's balances with the ledger sums
	Reconcile(ctx context.Context, playerID int64) (*entities.Reconciliation, error)

	// FindDrift returns every account of the guild whose balances disagree with the ledger
	FindDrift(ctx context.Context) ([]*entities.Reconciliation, error)

	// Count returns the number of ledger entries in the guild
	Count(ctx context.Context) (int64, error)
}

// QuestionRepository defines the shared question pool
type QuestionRepository interface {
	// Create stores a new question
	Create(ctx context.Context, question *entities.Question) error

	// GetByID retrieves a question
	GetByID(ctx context.Context, id int64) (*entities.Question, error)

	// PickLeastUsed returns a random question among the least used ones
	PickLeastUsed(ctx context.Context) (*entities.Question, error)

	// RecordUsage increments the usage counters
	RecordUsage(ctx context.Context, id int64, correct bool) error
}

// AnswerRecordRepository defines the append-only answer history
type AnswerRecordRepository interface {
	// Record appends an answer. It returns false when the player already answered the
	// golden event referenced by the record.
	Record(ctx context.Context, record *entities.AnswerRecord) (bool, error)

	// LastAnswerAt returns when the player last answered in the given context
	LastAnswerAt(ctx context.Context, playerID int64, answerContext entities.AnswerContext) (*time.Time, error)

	// HasGoldenAttempt reports whether the player already answered the golden event
	HasGoldenAttempt(ctx context.Context, eventID, playerID int64) (bool, error)
}

// GoldenEventRepository defines golden event persistence with guarded transitions
type GoldenEventRepository interface {
	// GetOpen returns the pending or active event of the guild
	GetOpen(ctx context.Context) (*entities.GoldenEvent, error)

	// ListActive returns every row flagged active; more than one is an invariant violation
	ListActive(ctx context.Context) ([]*entities.GoldenEvent, error)

	// GetLatestEnded returns the most recently resolved event
	GetLatestEnded(ctx context.Context) (*entities.GoldenEvent, error)

	// CreatePending inserts a pending event. It returns nil when the guild already has an open event.
	CreatePending(ctx context.Context, jackpot int64) (*entities.GoldenEvent, error)

	// Activate moves a pending event to active if no event of the guild is active
	Activate(ctx context.Context, eventID, questionID, rewardPoints int64, startedAt, expiresAt time.Time) (bool, error)

	// Claim resolves an active, unexpired event in favour of the winner. It returns nil when the
	// event was already resolved.
	Claim(ctx context.Context, eventID, winnerID int64, at time.Time) (*entities.GoldenEvent, error)

	// ExpireDue moves active events past their deadline to expired and returns them
	ExpireDue(ctx context.Context, now time.Time) ([]*entities.GoldenEvent, error)
}

// RobberyRepository defines the append-only robbery log
type RobberyRepository interface {
	// Create appends a robbery outcome
	Create(ctx context.Context, robbery *entities.Robbery) error

	// GetByPlayer returns recent robberies where the player was attacker or victim
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Robbery, error)
}

// TemporaryGrantRepository defines time-boxed grant persistence
type TemporaryGrantRepository interface {
	// GetCurrentForUpdate locks the non-removed grant of a role type for a player, expired or not
	GetCurrentForUpdate(ctx context.Context, playerID int64, roleType entities.GrantRoleType) (*entities.TemporaryGrant, error)

	// GetByID retrieves a grant
	GetByID(ctx context.Context, id int64) (*entities.TemporaryGrant, error)

	// Create inserts a new grant
	Create(ctx context.Context, grant *entities.TemporaryGrant) error

	// Extend moves the expiry of a non-removed grant
	Extend(ctx context.Context, id int64, expiresAt time.Time, multiplier float64) error

	// MarkRemoved flips removed exactly once; false means it was already removed
	MarkRemoved(ctx context.Context, id int64, reason entities.RemovalReason, at time.Time) (bool, error)

	// RemoveExpired flips every due grant of the guild and returns the ones it flipped
	RemoveExpired(ctx context.Context, now time.Time) ([]*entities.TemporaryGrant, error)

	// ListActive returns active grants of a role type
	ListActive(ctx context.Context, roleType entities.GrantRoleType, now time.Time) ([]*entities.TemporaryGrant, error)

	// ListActiveByPlayer returns every active grant of a player
	ListActiveByPlayer(ctx context.Context, playerID int64, now time.Time) ([]*entities.TemporaryGrant, error)

	// GetMultiplier returns the highest active multiplier for a player, 1 when none
	GetMultiplier(ctx context.Context, playerID int64, now time.Time) (float64, error)

	// CountActive returns the number of active grants in the guild
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// SpecialEventRepository defines guild-wide timed modifiers
type SpecialEventRepository interface {
	// Create inserts a scheduled event
	Create(ctx context.Context, event *entities.SpecialEvent) error

	// ListActive returns events whose window contains now
	ListActive(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error)

	// ListUpcoming returns events that have not ended yet
	ListUpcoming(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error)

	// MarkAnnouncedDue flips announced on started, unannounced events and returns them
	MarkAnnouncedDue(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error)

	// EndEarly closes an event window at now; false if it had already ended
	EndEarly(ctx context.Context, id int64, now time.Time) (bool, error)
}

// GuildConfigRepository defines per-guild configuration access
type GuildConfigRepository interface {
	// GetOrCreate returns the guild's configuration, inserting defaults when missing
	GetOrCreate(ctx context.Context) (*entities.GuildConfig, error)

	// Update persists the configuration
	Update(ctx context.Context, cfg *entities.GuildConfig) error
}

// GuildRepository defines the guild registry. It is the only cross-guild repository.
type GuildRepository interface {
	// Ensure registers a guild if it is not known yet
	Ensure(ctx context.Context, guildID int64, name string) error

	// ListIDs returns every registered guild
	ListIDs(ctx context.Context) ([]int64, error)

	// Delete removes a guild and everything scoped to it
	Delete(ctx context.Context, guildID int64) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// RandomSource is the randomness used by reward and robbery rolls
type RandomSource interface {
	// Float64 returns a value in [0, 1)
	Float64() float64

	// Int64N returns a value in [0, n)
	Int64N(n int64) int64
}
