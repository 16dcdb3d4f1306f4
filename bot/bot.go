package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"quizbot/application/dto"
	"quizbot/domain/entities"
	"quizbot/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token string
}

// Economy is the inbound surface the bot drives
type Economy interface {
	RegisterGuild(ctx context.Context, guildID int64, name string) error
	RemoveGuild(ctx context.Context, guildID int64) error

	ClaimDaily(ctx context.Context, guildID, playerID int64, displayName string, answer dto.DailyAnswer) (*interfaces.DailyResult, error)
	DailyQuestion(ctx context.Context, guildID, playerID int64, displayName string) (*dto.DailyChallenge, error)
	NextQuizQuestion(ctx context.Context, guildID, playerID int64, displayName string) (*dto.QuizChallenge, error)
	AnswerQuiz(ctx context.Context, guildID, playerID int64, displayName string, questionID int64, choice int, latency time.Duration) (*interfaces.QuizResult, error)
	StartRobbery(ctx context.Context, guildID, attackerID, victimID int64) (*dto.RobberyChallenge, error)
	AttemptRobbery(ctx context.Context, guildID, attackerID, victimID, questionID int64, choice int, latency time.Duration) (*interfaces.RobberyResult, error)
	GoldenChallenge(ctx context.Context, guildID int64) (*dto.GoldenChallenge, error)
	AnswerGolden(ctx context.Context, guildID, playerID int64, displayName string, choice int, latency time.Duration) (*interfaces.GoldenAnswerResult, error)
	PurchaseShield(ctx context.Context, guildID, playerID int64, hours int64) (*interfaces.GrantResult, error)

	Leaderboard(ctx context.Context, guildID int64, metric entities.LeaderboardMetric, limit, offset int) ([]*entities.LeaderboardEntry, error)
	PlayerProfile(ctx context.Context, guildID, playerID int64) (*interfaces.PlayerProfile, error)
	RobberyHistory(ctx context.Context, guildID, playerID int64, limit int) ([]*entities.Robbery, error)

	ApplyAdminDelta(ctx context.Context, guildID, playerID int64, currency dto.Currency, amount int64, actorID int64) (*entities.Transaction, error)
	ResetPlayer(ctx context.Context, guildID, playerID, actorID int64) (*interfaces.BalanceChange, error)
	ResetGuild(ctx context.Context, guildID int64) (int64, error)
	ScheduleSpecialEvent(ctx context.Context, guildID int64, eventType entities.SpecialEventType, startsAt, endsAt time.Time, createdBy *int64) (*entities.SpecialEvent, error)
	CancelSpecialEvent(ctx context.Context, guildID, eventID int64) error
	SpecialEvents(ctx context.Context, guildID int64) ([]*entities.SpecialEvent, error)
	SetGuildParam(ctx context.Context, guildID int64, name, value string) (string, error)
	SetChannels(ctx context.Context, guildID int64, routing dto.ChannelRouting) error
	SetTopRoles(ctx context.Context, guildID int64, roleIDs []int64) error
	SetLocale(ctx context.Context, guildID int64, locale string) error
	Reconcile(ctx context.Context, guildID, playerID int64) (*entities.Reconciliation, error)
	GuildStatus(ctx context.Context, guildID int64) (*entities.GuildStatus, error)
}

// Bot owns the Discord session
type Bot struct {
	config  Config
	session *discordgo.Session
	economy Economy
}

// NewSession creates a Discord session without opening it
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return dg, nil
}

// New wires the handlers, opens the session and registers the slash commands
func New(config Config, session *discordgo.Session, economy Economy) (*Bot, error) {
	bot := &Bot{
		config:  config,
		session: session,
		economy: economy,
	}

	session.AddHandler(bot.handleGuildCreate)
	session.AddHandler(bot.handleGuildDelete)
	session.AddHandler(bot.handleCommands)
	session.AddHandler(bot.handleComponents)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		session.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithField("user", session.State.User.Username).Info("Discord bot connected")
	return bot, nil
}

// Close closes the Discord session
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Invalid guild ID %s: %v", g.ID, err)
		return
	}
	if err := b.economy.RegisterGuild(context.Background(), guildID, g.Name); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to register guild")
		return
	}
	log.WithFields(log.Fields{
		"guild_id": guildID,
		"name":     g.Name,
	}).Info("Guild registered")
}

func (b *Bot) handleGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Outages also fire GuildDelete; only a real removal drops the data
	if g.Unavailable {
		return
	}
	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Invalid guild ID %s: %v", g.ID, err)
		return
	}
	if err := b.economy.RemoveGuild(context.Background(), guildID); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to remove guild")
		return
	}
	log.WithField("guild_id", guildID).Info("Guild removed")
}
