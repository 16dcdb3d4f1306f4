package services

import (
	"context"
	"fmt"
	"slices"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// SupportedLocales are the locales announcements can be rendered in
var SupportedLocales = []string{"es", "en"}

type guildConfigService struct {
	guildConfigRepo interfaces.GuildConfigRepository
}

// NewGuildConfigService creates a new guild configuration service
func NewGuildConfigService(guildConfigRepo interfaces.GuildConfigRepository) interfaces.GuildConfigService {
	return &guildConfigService{guildConfigRepo: guildConfigRepo}
}

func (s *guildConfigService) Get(ctx context.Context) (*entities.GuildConfig, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	return cfg, nil
}

func (s *guildConfigService) SetParam(ctx context.Context, name, value string) (string, error) {
	return s.update(ctx, func(cfg *entities.GuildConfig) (string, error) {
		return cfg.SetParam(name, value)
	})
}

func (s *guildConfigService) SetChannel(ctx context.Context, kind entities.ChannelKind, channelID *int64) error {
	_, err := s.update(ctx, func(cfg *entities.GuildConfig) (string, error) {
		switch kind {
		case entities.ChannelKindQuiz:
			cfg.QuizChannelID = channelID
		case entities.ChannelKindGold:
			cfg.GoldChannelID = channelID
		case entities.ChannelKindLog:
			cfg.LogChannelID = channelID
		case entities.ChannelKindAnnounce:
			cfg.AnnounceChannelID = channelID
		default:
			return "", fmt.Errorf("unknown channel kind %q", kind)
		}
		return "", nil
	})
	return err
}

func (s *guildConfigService) SetTopRoles(ctx context.Context, roleIDs []int64) error {
	_, err := s.update(ctx, func(cfg *entities.GuildConfig) (string, error) {
		cfg.TopRoleIDs = slices.Clone(roleIDs)
		return "", nil
	})
	return err
}

func (s *guildConfigService) SetLocale(ctx context.Context, locale string) error {
	if !slices.Contains(SupportedLocales, locale) {
		return invalidInput(fmt.Errorf("unsupported locale %q", locale))
	}
	_, err := s.update(ctx, func(cfg *entities.GuildConfig) (string, error) {
		cfg.Locale = locale
		return "", nil
	})
	return err
}

// update applies a mutation, validates the whole configuration and persists it
func (s *guildConfigService) update(ctx context.Context, mutate func(cfg *entities.GuildConfig) (string, error)) (string, error) {
	cfg, err := s.guildConfigRepo.GetOrCreate(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get guild config: %w", err)
	}

	display, err := mutate(cfg)
	if err != nil {
		return "", invalidInput(err)
	}
	if err := cfg.Validate(); err != nil {
		return "", invalidInput(err)
	}
	if err := s.guildConfigRepo.Update(ctx, cfg); err != nil {
		return "", fmt.Errorf("failed to update guild config: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID": cfg.GuildID,
		"display": display,
	}).Info("Guild config updated")
	return display, nil
}
