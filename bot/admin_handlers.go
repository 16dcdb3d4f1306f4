package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizbot/application/dto"
	"quizbot/bot/common"
	"quizbot/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (b *Bot) handleEconomy(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, sub string, opts options) {
	switch sub {
	case "give":
		b.handleGive(ctx, s, i, ic, opts)
	case "reset-player":
		playerID, ok := opts.userID(s, "user")
		if !ok {
			common.RespondWithError(s, i, "Pick a player to reset")
			return
		}
		if _, err := b.economy.ResetPlayer(ctx, ic.guildID, playerID, ic.userID); err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("<@%d> was reset", playerID), true)
	case "reset-guild":
		if opt, ok := opts["confirm"]; !ok || !opt.BoolValue() {
			common.RespondWithError(s, i, "Reset cancelled")
			return
		}
		removed, err := b.economy.ResetGuild(ctx, ic.guildID)
		if err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("Removed %d accounts", removed), true)
	case "set":
		value, err := b.economy.SetGuildParam(ctx, ic.guildID, opts["param"].StringValue(), opts["value"].StringValue())
		if err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		common.RespondWithSuccess(s, i, fmt.Sprintf("`%s` is now `%s`", opts["param"].StringValue(), value), true)
	case "channel":
		b.handleChannel(ctx, s, i, ic, opts)
	case "top-roles":
		b.handleTopRoles(ctx, s, i, ic, opts)
	case "locale":
		if err := b.economy.SetLocale(ctx, ic.guildID, opts["locale"].StringValue()); err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		common.RespondWithSuccess(s, i, "Language updated", true)
	case "event":
		b.handleScheduleEvent(ctx, s, i, ic, opts)
	case "cancel-event":
		if err := b.economy.CancelSpecialEvent(ctx, ic.guildID, opts["id"].IntValue()); err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		common.RespondWithSuccess(s, i, "Event cancelled", true)
	case "status":
		b.handleStatus(ctx, s, i, ic)
	case "reconcile":
		b.handleReconcile(ctx, s, i, ic, opts)
	}
}

func (b *Bot) handleGive(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	playerID, ok := opts.userID(s, "user")
	if !ok {
		common.RespondWithError(s, i, "Pick a player")
		return
	}
	currency := dto.Currency(opts["currency"].StringValue())
	if !currency.IsValid() {
		common.RespondWithError(s, i, "Unknown currency")
		return
	}

	tx, err := b.economy.ApplyAdminDelta(ctx, ic.guildID, playerID, currency, opts["amount"].IntValue(), ic.userID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}

	applied := tx.PointsDelta
	if currency == dto.CurrencyMoney {
		applied = tx.MoneyDelta
	}
	log.WithFields(log.Fields{
		"guild_id":  ic.guildID,
		"player_id": playerID,
		"actor_id":  ic.userID,
		"currency":  currency,
		"applied":   applied,
	}).Info("Admin balance adjustment")
	common.RespondWithSuccess(s, i, fmt.Sprintf("<@%d> %s %s", playerID, common.FormatSigned(applied), currency), true)
}

func (b *Bot) handleChannel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	var channelID int64
	if id, ok := opts.snowflake("channel"); ok {
		channelID = id
	}

	var routing dto.ChannelRouting
	switch entities.ChannelKind(opts["kind"].StringValue()) {
	case entities.ChannelKindQuiz:
		routing.Quiz = &channelID
	case entities.ChannelKindGold:
		routing.Gold = &channelID
	case entities.ChannelKindLog:
		routing.Log = &channelID
	case entities.ChannelKindAnnounce:
		routing.Announce = &channelID
	default:
		common.RespondWithError(s, i, "Unknown channel kind")
		return
	}

	if err := b.economy.SetChannels(ctx, ic.guildID, routing); err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	if channelID == 0 {
		common.RespondWithSuccess(s, i, "Channel cleared", true)
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Announcements routed to <#%d>", channelID), true)
}

func (b *Bot) handleTopRoles(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	var roleIDs []int64
	for _, name := range []string{"first", "second", "third"} {
		id, ok := opts.snowflake(name)
		if !ok {
			break
		}
		roleIDs = append(roleIDs, id)
	}
	if err := b.economy.SetTopRoles(ctx, ic.guildID, roleIDs); err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("%d top roles configured", len(roleIDs)), true)
}

func (b *Bot) handleScheduleEvent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	minutes := opts["minutes"].IntValue()
	if minutes <= 0 {
		common.RespondWithError(s, i, "Duration must be positive")
		return
	}
	startsAt := time.Now()
	if opt, ok := opts["starts_in"]; ok && opt.IntValue() > 0 {
		startsAt = startsAt.Add(time.Duration(opt.IntValue()) * time.Minute)
	}
	endsAt := startsAt.Add(time.Duration(minutes) * time.Minute)

	actorID := ic.userID
	event, err := b.economy.ScheduleSpecialEvent(ctx, ic.guildID,
		entities.SpecialEventType(opts["type"].StringValue()), startsAt, endsAt, &actorID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("Event `#%d` **%s** scheduled %s → %s", event.ID, event.EventType,
		common.FormatDiscordTimestamp(event.StartsAt, "f"), common.FormatDiscordTimestamp(event.EndsAt, "f")), true)
}

func (b *Bot) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext) {
	status, err := b.economy.GuildStatus(ctx, ic.guildID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}

	golden := "none"
	if e := status.ActiveGoldenEvent; e != nil {
		golden = fmt.Sprintf("#%d %s (%s points)", e.ID, e.Status, common.FormatBalance(e.RewardPoints))
	}
	embed := &discordgo.MessageEmbed{
		Title: "📊 Economy status",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Accounts", Value: common.FormatBalance(status.Accounts), Inline: true},
			{Name: "Points in circulation", Value: common.FormatBalance(status.TotalPoints), Inline: true},
			{Name: "Coins in circulation", Value: common.FormatBalance(status.TotalMoney), Inline: true},
			{Name: "Ledger entries", Value: common.FormatBalance(status.TransactionsLogged), Inline: true},
			{Name: "Active grants", Value: common.FormatBalance(status.ActiveGrants), Inline: true},
			{Name: "Active special events", Value: common.FormatBalance(status.ActiveSpecials), Inline: true},
			{Name: "Golden event", Value: golden},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to status: %v", err)
	}
}

func (b *Bot) handleReconcile(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	playerID, ok := opts.userID(s, "user")
	if !ok {
		common.RespondWithError(s, i, "Pick a player")
		return
	}
	rec, err := b.economy.Reconcile(ctx, ic.guildID, playerID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	common.RespondWithMessage(s, i, reconciliationReport(rec), true)
}

func reconciliationReport(rec *entities.Reconciliation) string {
	var b strings.Builder
	if rec.IsConsistent() {
		fmt.Fprintf(&b, "✅ <@%d> matches the ledger\n", rec.PlayerID)
	} else {
		fmt.Fprintf(&b, "⚠️ <@%d> drifted from the ledger\n", rec.PlayerID)
	}
	fmt.Fprintf(&b, "Points: %s (ledger %s)\n", common.FormatBalance(rec.Points), common.FormatBalance(rec.LedgerPoints))
	fmt.Fprintf(&b, "Coins: %s (ledger %s)", common.FormatBalance(rec.Money), common.FormatBalance(rec.LedgerMoney))
	return b.String()
}
