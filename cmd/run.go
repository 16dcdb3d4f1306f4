package cmd

import (
	"context"
	"fmt"
	"time"

	"quizbot/application"
	"quizbot/bot"
	"quizbot/config"
	"quizbot/database"
	"quizbot/domain/utils"
	"quizbot/infrastructure"
	"quizbot/infrastructure/cache"
	"quizbot/infrastructure/lock"
	"quizbot/infrastructure/observability"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting quizbot...")

	// Load configuration
	cfg := config.Get()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), database.Options{
		MaxConns:    cfg.DatabaseMaxConns,
		LockTimeout: cfg.LockTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize NATS. A nil client keeps events in-process.
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServerList())
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
	} else {
		log.Warn("NATS disabled, domain events stay in-process")
	}
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		log.WithError(err).Warn("Failed to ensure domain event stream")
	}

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Initialize Redis backed leases and config cache
	var (
		redisClient *redis.Client
		configCache application.GuildConfigCache
		locker      application.SweepLocker = application.NewLocalLocker()
	)
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable, falling back to in-process leases without config cache")
			redisClient.Close()
			redisClient = nil
		} else {
			configCache = cache.NewGuildConfigCache(redisClient, cfg.GuildConfigTTL)
			locker = &redisSweepLocker{locker: lock.NewRedisLocker(redisClient, "quizbot:sweep:")}
			log.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
		}
	}

	// Initialize services
	random := utils.NewRandomSource()
	economy := application.NewEconomyService(uowFactory, configCache, random, cfg.TransactionRetries)
	sweeper := application.NewSweepWorker(uowFactory, locker, configCache, random, cfg.TransactionRetries)

	// Initialize Discord
	log.Info("Initializing Discord bot...")
	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord session: %w", err)
	}
	outbound := application.NewOutboundHandler(bot.NewRoleManager(session), bot.NewAnnouncer(session), economy)
	application.RegisterApplicationSubscriptions(eventPublisher, outbound)

	discordBot, err := bot.New(bot.Config{Token: cfg.DiscordToken}, session, economy)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	stopSweeps := sweeper.Start(ctx, application.SweepIntervalsFromConfig(cfg))

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")
	stopSweeps()

	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis client")
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
