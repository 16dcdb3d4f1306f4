package infrastructure

import (
	"quizbot/application"
	"quizbot/database"
	"quizbot/domain/interfaces"
	"quizbot/repository"
)

// UnitOfWorkFactory implements application.UnitOfWorkFactory. Each unit of work gets its own
// transactional publisher that flushes into eventPublisher after commit.
type UnitOfWorkFactory struct {
	repoFactory    *repository.UnitOfWorkFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// CreateForGuild creates a new UnitOfWork with a transactional event publisher
func (f *UnitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	return f.repoFactory.CreateForGuildWithPublisher(guildID, NewNATSTransactionalPublisher(f.eventPublisher))
}
