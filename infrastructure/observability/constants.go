package observability

// Metric name prefixes
const (
	MetricPrefix = "quizbot"
)

// Metric names
const (
	// Ledger metrics
	LedgerTransactionsTotal = MetricPrefix + ".ledger.transactions_total"
	LedgerDriftAccounts     = MetricPrefix + ".ledger.drift_accounts"

	// Golden event metrics
	GoldenEventsTotal = MetricPrefix + ".golden.events_total"

	// Robbery metrics
	RobberiesTotal = MetricPrefix + ".robbery.attempts_total"

	// Grant metrics
	GrantsRemovedTotal = MetricPrefix + ".grants.removed_total"

	// Worker metrics
	SweepDuration = MetricPrefix + ".worker.sweep_duration"

	// Transaction retry metrics
	TransactionRetriesTotal = MetricPrefix + ".database.transaction_retries_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
	LabelWorker    = "worker"
	LabelReason    = "reason"
	LabelOperation = "operation"
)

// Golden event outcomes
const (
	GoldenOutcomeStarted = "started"
	GoldenOutcomeWon     = "won"
	GoldenOutcomeExpired = "expired"
)

// Robbery outcomes
const (
	RobberyOutcomeSuccess = "success"
	RobberyOutcomeFailure = "failure"
)
