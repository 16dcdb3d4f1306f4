package repository

import (
	"context"
	"errors"
	"fmt"

	"quizbot/application"
	"quizbot/database"
	"quizbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements application.UnitOfWork on a single pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	guildID                int64
	transactionalPublisher interfaces.TransactionalEventPublisher
	accountRepo            interfaces.AccountRepository
	transactionRepo        interfaces.TransactionRepository
	questionRepo           interfaces.QuestionRepository
	answerRepo             interfaces.AnswerRecordRepository
	goldenRepo             interfaces.GoldenEventRepository
	robberyRepo            interfaces.RobberyRepository
	grantRepo              interfaces.TemporaryGrantRepository
	specialEventRepo       interfaces.SpecialEventRepository
	guildConfigRepo        interfaces.GuildConfigRepository
	guildRepo              interfaces.GuildRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db: db,
	}
}

// UnitOfWorkFactory builds guild-scoped units of work over one pool
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateForGuildWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *UnitOfWorkFactory) CreateForGuildWithPublisher(guildID int64, transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		guildID:                guildID,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = NewAccountRepository(tx, u.guildID)
	u.transactionRepo = NewTransactionRepository(tx, u.guildID)
	u.questionRepo = NewQuestionRepository(tx) // Questions are shared by every guild
	u.answerRepo = NewAnswerRecordRepository(tx, u.guildID)
	u.goldenRepo = NewGoldenEventRepository(tx, u.guildID)
	u.robberyRepo = NewRobberyRepository(tx, u.guildID)
	u.grantRepo = NewTemporaryGrantRepository(tx, u.guildID)
	u.specialEventRepo = NewSpecialEventRepository(tx, u.guildID)
	u.guildConfigRepo = NewGuildConfigRepository(tx, u.guildID)
	u.guildRepo = NewGuildRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		if u.transactionalPublisher != nil {
			u.transactionalPublisher.Discard()
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Events are best-effort once the transaction is durable
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithFields(log.Fields{
				"guild_id": u.guildID,
				"error":    err,
			}).Warn("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// Guild returns the guild this unit of work is scoped to
func (u *unitOfWork) Guild() int64 {
	return u.guildID
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// TransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionRepository() interfaces.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// QuestionRepository returns the question repository for this unit of work
func (u *unitOfWork) QuestionRepository() interfaces.QuestionRepository {
	if u.questionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.questionRepo
}

// AnswerRecordRepository returns the answer history repository for this unit of work
func (u *unitOfWork) AnswerRecordRepository() interfaces.AnswerRecordRepository {
	if u.answerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.answerRepo
}

// GoldenEventRepository returns the golden event repository for this unit of work
func (u *unitOfWork) GoldenEventRepository() interfaces.GoldenEventRepository {
	if u.goldenRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.goldenRepo
}

// RobberyRepository returns the robbery repository for this unit of work
func (u *unitOfWork) RobberyRepository() interfaces.RobberyRepository {
	if u.robberyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.robberyRepo
}

// TemporaryGrantRepository returns the grant repository for this unit of work
func (u *unitOfWork) TemporaryGrantRepository() interfaces.TemporaryGrantRepository {
	if u.grantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.grantRepo
}

// SpecialEventRepository returns the special event repository for this unit of work
func (u *unitOfWork) SpecialEventRepository() interfaces.SpecialEventRepository {
	if u.specialEventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.specialEventRepo
}

// GuildConfigRepository returns the guild config repository for this unit of work
func (u *unitOfWork) GuildConfigRepository() interfaces.GuildConfigRepository {
	if u.guildConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildConfigRepo
}

// GuildRepository returns the guild registry for this unit of work
func (u *unitOfWork) GuildRepository() interfaces.GuildRepository {
	if u.guildRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
