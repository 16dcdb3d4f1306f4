package application

import (
	"context"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/events"
	"quizbot/domain/interfaces"
	"quizbot/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// GuildConfigLookup reads the configuration of a guild
type GuildConfigLookup interface {
	GuildConfig(ctx context.Context, guildID int64) (*entities.GuildConfig, error)
}

// OutboundHandler turns committed domain events into role changes and channel announcements
type OutboundHandler struct {
	roles     RoleManager
	announcer Announcer
	configs   GuildConfigLookup
}

// NewOutboundHandler creates the outbound handler. Either sink may be nil.
func NewOutboundHandler(roles RoleManager, announcer Announcer, configs GuildConfigLookup) *OutboundHandler {
	return &OutboundHandler{
		roles:     roles,
		announcer: announcer,
		configs:   configs,
	}
}

// RegisterApplicationSubscriptions wires the outbound handler and the metric recorders
func RegisterApplicationSubscriptions(subscriber interfaces.EventSubscriber, handler *OutboundHandler) {
	subscriber.Subscribe(events.EventTypeBalanceChange, recordMetrics)
	subscriber.Subscribe(events.EventTypeGoldenEventStarted, recordMetrics)
	subscriber.Subscribe(events.EventTypeGoldenEventWon, recordMetrics)
	subscriber.Subscribe(events.EventTypeGoldenEventExpired, recordMetrics)
	subscriber.Subscribe(events.EventTypeRobberyResolved, recordMetrics)
	subscriber.Subscribe(events.EventTypeRoleRevoked, recordMetrics)

	if handler == nil {
		return
	}
	subscriber.Subscribe(events.EventTypeRoleGranted, handler.HandleRoleGranted)
	subscriber.Subscribe(events.EventTypeRoleRevoked, handler.HandleRoleRevoked)
	subscriber.Subscribe(events.EventTypeGoldenEventStarted, handler.HandleGoldenEvent)
	subscriber.Subscribe(events.EventTypeGoldenEventWon, handler.HandleGoldenEvent)
	subscriber.Subscribe(events.EventTypeGoldenEventExpired, handler.HandleGoldenEvent)
	subscriber.Subscribe(events.EventTypeRobberyResolved, handler.HandleRobberyResolved)
	subscriber.Subscribe(events.EventTypeSpecialEventStarted, handler.HandleSpecialEventStarted)
}

func recordMetrics(ctx context.Context, event events.Event) error {
	metrics := observability.GetMetrics()
	switch e := event.(type) {
	case events.BalanceChangeEvent:
		metrics.RecordLedgerTransaction(string(e.TransactionType))
	case events.GoldenEventStartedEvent:
		metrics.RecordGoldenEvent("started")
	case events.GoldenEventWonEvent:
		metrics.RecordGoldenEvent("won")
	case events.GoldenEventExpiredEvent:
		metrics.RecordGoldenEvent("expired")
	case events.RobberyResolvedEvent:
		metrics.RecordRobbery(e.Success)
	case events.RoleRevokedEvent:
		metrics.RecordGrantRemoved(string(e.RoleType), string(e.Reason))
	}
	return nil
}

// HandleRoleGranted adds the granted role on the chat platform
func (h *OutboundHandler) HandleRoleGranted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RoleGrantedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if h.roles == nil || e.RoleID == 0 {
		return nil
	}
	if err := h.roles.AddRole(ctx, e.GuildID, e.PlayerID, e.RoleID); err != nil {
		return fmt.Errorf("failed to add role %d to %d: %w", e.RoleID, e.PlayerID, err)
	}
	return nil
}

// HandleRoleRevoked removes the role of a grant that ended
func (h *OutboundHandler) HandleRoleRevoked(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RoleRevokedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if h.roles == nil || e.RoleID == 0 {
		return nil
	}
	if err := h.roles.RemoveRole(ctx, e.GuildID, e.PlayerID, e.RoleID); err != nil {
		return fmt.Errorf("failed to remove role %d from %d: %w", e.RoleID, e.PlayerID, err)
	}
	return nil
}

// HandleGoldenEvent announces golden event transitions in the gold channel
func (h *OutboundHandler) HandleGoldenEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.GoldenEventStartedEvent:
		return h.announce(ctx, e.GuildID, entities.ChannelKindGold, func(locale string) string {
			return renderMessage(locale, msgGoldenStarted, e.RewardPoints, e.Jackpot, e.ExpiresAt.UTC().Format("15:04:05 MST"))
		})
	case events.GoldenEventWonEvent:
		return h.announce(ctx, e.GuildID, entities.ChannelKindGold, func(locale string) string {
			return renderMessage(locale, msgGoldenWon, e.WinnerID, e.RewardPoints)
		})
	case events.GoldenEventExpiredEvent:
		return h.announce(ctx, e.GuildID, entities.ChannelKindGold, func(locale string) string {
			return renderMessage(locale, msgGoldenExpired, e.CarriedJackpot)
		})
	}
	return fmt.Errorf("unexpected event type %T", event)
}

// HandleRobberyResolved posts the robbery outcome to the log channel
func (h *OutboundHandler) HandleRobberyResolved(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RobberyResolvedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return h.announce(ctx, e.GuildID, entities.ChannelKindLog, func(locale string) string {
		if e.Success {
			return renderMessage(locale, msgRobberySuccess, e.AttackerID, e.VictimID, e.MoneyStolen)
		}
		return renderMessage(locale, msgRobberyFailed, e.AttackerID, e.VictimID)
	})
}

// HandleSpecialEventStarted announces a special event in the announce channel
func (h *OutboundHandler) HandleSpecialEventStarted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SpecialEventStartedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return h.announce(ctx, e.GuildID, entities.ChannelKindAnnounce, func(locale string) string {
		return renderMessage(locale, msgSpecialStarted, e.EventType, e.EndsAt.UTC().Format(time.DateTime+" MST"))
	})
}

func (h *OutboundHandler) announce(ctx context.Context, guildID int64, kind entities.ChannelKind, render func(locale string) string) error {
	if h.announcer == nil || h.configs == nil {
		return nil
	}
	cfg, err := h.configs.GuildConfig(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild config: %w", err)
	}
	channelID, ok := cfg.ChannelFor(kind)
	if !ok {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"kind":     kind,
		}).Debug("No channel configured for announcement")
		return nil
	}
	return h.announcer.Announce(ctx, channelID, render(cfg.Locale))
}
