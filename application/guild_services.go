package application

import (
	"quizbot/domain/interfaces"
	"quizbot/domain/services"
)

// guildServices builds domain services over the repositories of one unit of work
type guildServices struct {
	uow         UnitOfWork
	guildConfig interfaces.GuildConfigRepository
	random      interfaces.RandomSource
}

func newGuildServices(uow UnitOfWork, cache GuildConfigCache, random interfaces.RandomSource) *guildServices {
	guildConfig := uow.GuildConfigRepository()
	if cache != nil {
		guildConfig = cache.Wrap(guildConfig, uow.Guild())
	}
	return &guildServices{uow: uow, guildConfig: guildConfig, random: random}
}

func (g *guildServices) Account() interfaces.AccountService {
	return services.NewAccountService(
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.TemporaryGrantRepository(),
		g.uow.EventBus(),
	)
}

func (g *guildServices) Ledger() interfaces.LedgerService {
	return services.NewLedgerService(g.uow.AccountRepository(), g.uow.TransactionRepository(), g.uow.EventBus())
}

func (g *guildServices) Daily() interfaces.DailyService {
	return services.NewDailyService(
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.QuestionRepository(),
		g.uow.AnswerRecordRepository(),
		g.uow.TemporaryGrantRepository(),
		g.uow.SpecialEventRepository(),
		g.guildConfig,
		g.uow.EventBus(),
	)
}

func (g *guildServices) Golden() interfaces.GoldenEventService {
	return services.NewGoldenEventService(
		g.uow.GoldenEventRepository(),
		g.uow.QuestionRepository(),
		g.uow.AnswerRecordRepository(),
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.SpecialEventRepository(),
		g.guildConfig,
		g.uow.EventBus(),
		g.random,
		g.uow.Guild(),
	)
}

func (g *guildServices) Quiz() interfaces.QuizService {
	return services.NewQuizService(
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.QuestionRepository(),
		g.uow.AnswerRecordRepository(),
		g.uow.TemporaryGrantRepository(),
		g.uow.SpecialEventRepository(),
		g.guildConfig,
		g.Golden(),
		g.uow.EventBus(),
		g.random,
	)
}

func (g *guildServices) Robbery() interfaces.RobberyService {
	return services.NewRobberyService(
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.RobberyRepository(),
		g.uow.QuestionRepository(),
		g.uow.AnswerRecordRepository(),
		g.uow.SpecialEventRepository(),
		g.guildConfig,
		g.uow.EventBus(),
		g.random,
		g.uow.Guild(),
	)
}

func (g *guildServices) Grants() interfaces.GrantService {
	return services.NewGrantService(
		g.uow.TemporaryGrantRepository(),
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.EventBus(),
		g.uow.Guild(),
	)
}

func (g *guildServices) Ranking() interfaces.RankingService {
	return services.NewRankingService(
		g.uow.AccountRepository(),
		g.uow.TemporaryGrantRepository(),
		g.guildConfig,
		g.Grants(),
		g.uow.Guild(),
	)
}

func (g *guildServices) SpecialEvents() interfaces.SpecialEventService {
	return services.NewSpecialEventService(g.uow.SpecialEventRepository(), g.uow.Guild())
}

func (g *guildServices) GuildConfig() interfaces.GuildConfigService {
	return services.NewGuildConfigService(g.guildConfig)
}

func (g *guildServices) Admin() interfaces.AdminService {
	return services.NewAdminService(
		g.uow.AccountRepository(),
		g.uow.TransactionRepository(),
		g.uow.TemporaryGrantRepository(),
		g.uow.GoldenEventRepository(),
		g.uow.SpecialEventRepository(),
		g.uow.EventBus(),
		g.uow.Guild(),
	)
}
