package application

import (
	"context"

	"quizbot/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes the events published inside it
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Guild returns the guild the unit of work is scoped to
	Guild() int64

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	TransactionRepository() interfaces.TransactionRepository
	QuestionRepository() interfaces.QuestionRepository
	AnswerRecordRepository() interfaces.AnswerRecordRepository
	GoldenEventRepository() interfaces.GoldenEventRepository
	RobberyRepository() interfaces.RobberyRepository
	TemporaryGrantRepository() interfaces.TemporaryGrantRepository
	SpecialEventRepository() interfaces.SpecialEventRepository
	GuildConfigRepository() interfaces.GuildConfigRepository
	GuildRepository() interfaces.GuildRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}
