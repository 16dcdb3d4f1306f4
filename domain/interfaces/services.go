package interfaces

import (
	"context"
	"time"

	"quizbot/domain/entities"
)

// Services are built per unit of work; the guild comes from the repositories they receive.

// QuestionAnswer is a player's choice for a presented question. A negative Choice is a timeout.
type QuestionAnswer struct {
	QuestionID   int64
	Choice       int
	ResponseTime time.Duration
}

// BalanceChange describes one applied ledger entry
type BalanceChange struct {
	Account     *entities.Account // state after the change
	Requested   entities.Delta
	Applied     entities.Delta
	Transaction *entities.Transaction // nil when the applied delta was zero
}

// AccountService defines the interface for account lookups
type AccountService interface {
	// GetOrCreate returns the player's account, creating it on first interaction
	GetOrCreate(ctx context.Context, playerID int64, displayName string) (*entities.Account, error)

	// Profile assembles a player's account with grants and recent ledger entries
	Profile(ctx context.Context, playerID int64) (*PlayerProfile, error)
}

// PlayerProfile is the read model for a player's economy state
type PlayerProfile struct {
	Account            *entities.Account
	ActiveGrants       []*entities.TemporaryGrant
	RecentTransactions []*entities.Transaction
	Multiplier         float64
}

// LedgerService defines ledger-level operations
type LedgerService interface {
	// Apply applies a delta to an account, clamping at zero and recording the applied amount
	Apply(ctx context.Context, playerID int64, txType entities.TransactionType, requested entities.Delta, description string) (*BalanceChange, error)

	// Reconcile compares one account with its ledger
	Reconcile(ctx context.Context, playerID int64) (*entities.Reconciliation, error)

	// Audit returns every drifted account of the guild
	Audit(ctx context.Context) ([]*entities.Reconciliation, error)
}

// DailyResult is the outcome of a daily claim
type DailyResult struct {
	Correct    bool // false when the question was missed or timed out
	TimedOut   bool
	Reward     int64
	Streak     int64
	Multiplier float64
	Change     *BalanceChange
}

// DailyService defines the interface for daily claims
type DailyService interface {
	// Check reports whether the player may claim now
	Check(ctx context.Context, playerID int64) (entities.Eligibility, error)

	// Issue opens the daily question, or re-shows the one still open.
	// An open question past its window is forfeited instead.
	Issue(ctx context.Context, playerID int64, displayName string) (*DailyChallenge, error)

	// Claim answers the open daily question
	Claim(ctx context.Context, playerID int64, displayName string, answer QuestionAnswer) (*DailyResult, error)
}

// DailyChallenge is the daily question a player has to answer before the window closes
type DailyChallenge struct {
	Question  *entities.Question
	ExpiresAt time.Time
	Forfeited *DailyResult // set instead of Question when the previous one timed out
}

// QuizResult is the outcome of a quiz answer
type QuizResult struct {
	Correct      bool
	CorrectIndex int
	PointsEarned int64
	MoneyEarned  int64
	MysteryBonus int64
	Change       *BalanceChange
	GoldenEvent  *entities.GoldenEvent // set when the answer started a golden event
}

// QuizService defines the interface for regular quizzes
type QuizService interface {
	// NextQuestion checks the cooldown and picks a question
	NextQuestion(ctx context.Context, playerID int64, displayName string) (*entities.Question, error)

	// Answer resolves a quiz answer
	Answer(ctx context.Context, playerID int64, displayName string, answer QuestionAnswer) (*QuizResult, error)
}

// RobberyAttempt carries the resolution input of a robbery
type RobberyAttempt struct {
	AttackerID int64
	VictimID   int64
	Answer     QuestionAnswer
}

// RobberyResult is the outcome of a resolved robbery
type RobberyResult struct {
	Robbery        *entities.Robbery
	AttackerChange *BalanceChange
	VictimChange   *BalanceChange // nil on failure
}

// RobberyService defines the interface for the robbery engine
type RobberyService interface {
	// Check evaluates every robbery gate without side effects
	Check(ctx context.Context, attackerID, victimID int64) (entities.Eligibility, error)

	// Start pre-checks the robbery and picks the question the attacker must answer
	Start(ctx context.Context, attackerID, victimID int64) (*entities.Question, error)

	// Attempt resolves the robbery on locked accounts
	Attempt(ctx context.Context, attempt RobberyAttempt) (*RobberyResult, error)

	// History returns the player's recent robberies
	History(ctx context.Context, playerID int64, limit int) ([]*entities.Robbery, error)
}

// GoldenAnswerResult is the outcome of a golden event answer
type GoldenAnswerResult struct {
	Event   *entities.GoldenEvent
	Correct bool
	Won     bool
	Change  *BalanceChange
}

// GoldenEventService defines the golden event state machine
type GoldenEventService interface {
	// Current returns the open event of the guild, failing if the single-active invariant is broken
	Current(ctx context.Context) (*entities.GoldenEvent, error)

	// Propose creates a pending event carrying the last expired reward as jackpot.
	// It returns nil when an event is already open.
	Propose(ctx context.Context) (*entities.GoldenEvent, error)

	// Activate moves a pending event to active. It returns nil if another event won the slot.
	Activate(ctx context.Context, eventID int64, now time.Time) (*entities.GoldenEvent, error)

	// MaybeStart rolls the scheduling chance and starts an event when it hits
	MaybeStart(ctx context.Context, now time.Time) (*entities.GoldenEvent, error)

	// TryTriggerFromQuiz rolls gold_quiz_chance and starts an event when it hits
	TryTriggerFromQuiz(ctx context.Context, now time.Time) (*entities.GoldenEvent, error)

	// Answer submits a player's answer to the active event
	Answer(ctx context.Context, playerID int64, displayName string, choice int, responseTime time.Duration) (*GoldenAnswerResult, error)

	// ExpireDue expires active events past their deadline
	ExpireDue(ctx context.Context, now time.Time) ([]*entities.GoldenEvent, error)
}

// GrantRequest describes a temporary grant
type GrantRequest struct {
	PlayerID   int64
	RoleType   entities.GrantRoleType
	RoleID     *int64
	Multiplier float64
	Duration   time.Duration
	Refresh    bool // set the expiry to now+Duration instead of adding Duration to an active grant
}

// GrantResult reports what a grant operation did
type GrantResult struct {
	Grant    *entities.TemporaryGrant
	Extended bool
	Replaced *entities.TemporaryGrant // previous grant that was removed as replaced
	Change   *BalanceChange          // shield purchases only
}

// GrantService defines the temporary grant lifecycle
type GrantService interface {
	// Grant creates, extends or replaces the player's grant of a role type
	Grant(ctx context.Context, req GrantRequest) (*GrantResult, error)

	// Revoke removes a grant explicitly
	Revoke(ctx context.Context, grantID int64) (*entities.TemporaryGrant, error)

	// ExpireDue removes every grant past its expiry
	ExpireDue(ctx context.Context, now time.Time) ([]*entities.TemporaryGrant, error)

	// PurchaseShield buys a robbery shield with points
	PurchaseShield(ctx context.Context, playerID int64, hours int64) (*GrantResult, error)

	// Active returns the active grants of a role type
	Active(ctx context.Context, roleType entities.GrantRoleType) ([]*entities.TemporaryGrant, error)
}

// SpecialEventService defines guild-wide timed modifiers
type SpecialEventService interface {
	// Schedule creates a new special event
	Schedule(ctx context.Context, eventType entities.SpecialEventType, startsAt, endsAt time.Time, createdBy *int64) (*entities.SpecialEvent, error)

	// Cancel ends an event at the current instant
	Cancel(ctx context.Context, eventID int64) error

	// Modifiers folds the active events into a modifier set
	Modifiers(ctx context.Context, now time.Time) (entities.ActiveModifiers, error)

	// Upcoming lists events that have not ended
	Upcoming(ctx context.Context) ([]*entities.SpecialEvent, error)

	// AnnounceDue marks started events as announced, at most once each
	AnnounceDue(ctx context.Context, now time.Time) ([]*entities.SpecialEvent, error)
}

// RankingService defines leaderboards and top-rank role recomputation
type RankingService interface {
	// Leaderboard returns ranked accounts for a metric
	Leaderboard(ctx context.Context, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.LeaderboardEntry, error)

	// RefreshTopRoles grants the configured top roles to the current top players
	RefreshTopRoles(ctx context.Context, now time.Time) error
}

// GuildConfigService defines configuration changes
type GuildConfigService interface {
	// Get returns the guild configuration, with defaults on first use
	Get(ctx context.Context) (*entities.GuildConfig, error)

	// SetParam validates and stores one numeric parameter, returning its display form
	SetParam(ctx context.Context, name, value string) (string, error)

	// SetChannel routes one channel kind; nil clears it
	SetChannel(ctx context.Context, kind entities.ChannelKind, channelID *int64) error

	// SetTopRoles binds the roles handed to the top ranked players
	SetTopRoles(ctx context.Context, roleIDs []int64) error

	// SetLocale changes the guild's locale
	SetLocale(ctx context.Context, locale string) error
}

// AdminService defines operator actions
type AdminService interface {
	// Give applies an admin delta to one currency
	Give(ctx context.Context, playerID int64, delta entities.Delta, actorID int64) (*BalanceChange, error)

	// ResetPlayer zeroes a player's balances through the ledger and clears progress counters
	ResetPlayer(ctx context.Context, playerID int64, actorID int64) (*BalanceChange, error)

	// ResetGuild deletes every account of the guild
	ResetGuild(ctx context.Context) (int64, error)

	// Status summarises the guild's economy
	Status(ctx context.Context) (*entities.GuildStatus, error)
}
