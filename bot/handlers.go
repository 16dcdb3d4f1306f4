package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quizbot/application/dto"
	"quizbot/bot/common"
	"quizbot/domain/entities"
	"quizbot/domain/interfaces"
	"quizbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	colorQuiz    = 0x3498db
	colorGold    = 0xf1c40f
	colorSuccess = 0x2ecc71
	colorFailure = 0xe74c3c
	colorInfo    = 0x95a5a6

	leaderboardPageSize = 10
	commandTimeout      = 10 * time.Second
)

// interactionContext carries the ids every handler needs
type interactionContext struct {
	guildID     int64
	userID      int64
	displayName string
}

func newInteractionContext(i *discordgo.InteractionCreate) (*interactionContext, error) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return nil, fmt.Errorf("interaction outside a guild")
	}
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid guild ID: %w", err)
	}
	userID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return &interactionContext{
		guildID:     guildID,
		userID:      userID,
		displayName: i.Member.DisplayName(),
	}, nil
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) userID(s *discordgo.Session, name string) (int64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(opt.UserValue(s).ID, 10, 64)
	return id, err == nil
}

func (o options) snowflake(name string) (int64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	raw, ok := opt.Value.(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

// handleCommands routes slash commands
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ic, err := newInteractionContext(i)
	if err != nil {
		common.RespondWithError(s, i, "This command only works inside a server")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	opts := optionsOf(data.Options)

	switch data.Name {
	case "daily":
		b.handleDaily(ctx, s, i, ic)
	case "quiz":
		b.handleQuiz(ctx, s, i, ic)
	case "rob":
		b.handleRob(ctx, s, i, ic, opts)
	case "gold":
		b.handleGold(ctx, s, i, ic)
	case "shield":
		b.handleShield(ctx, s, i, ic, opts)
	case "top":
		b.handleTop(ctx, s, i, ic, opts)
	case "profile":
		b.handleProfile(ctx, s, i, ic, opts)
	case "robberies":
		b.handleRobberies(ctx, s, i, ic, opts)
	case "events":
		b.handleEvents(ctx, s, i, ic)
	case "economy":
		if len(data.Options) == 0 {
			return
		}
		sub := data.Options[0]
		b.handleEconomy(ctx, s, i, ic, sub.Name, optionsOf(sub.Options))
	}
}

func (b *Bot) handleDaily(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext) {
	challenge, err := b.economy.DailyQuestion(ctx, ic.guildID, ic.userID, ic.displayName)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	if challenge.Forfeited != nil {
		if err := common.RespondWithEmbed(s, i, dailyEmbed(challenge.Forfeited), nil, true); err != nil {
			log.Errorf("Error responding to forfeited daily: %v", err)
		}
		return
	}

	template := answerButton{Action: actionDaily, RefID: challenge.Question.ID, Issued: time.Now()}
	embed := questionEmbed("📅 Daily question", challenge.Question, colorQuiz)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Answer within %d seconds. A wrong answer forfeits today's reward.", int(services.DailyAnswerWindow.Seconds())),
	}
	if err := common.RespondWithEmbed(s, i, embed, answerButtons(template, len(challenge.Question.Options)), true); err != nil {
		log.Errorf("Error responding to daily question: %v", err)
	}
}

func dailyEmbed(result *interfaces.DailyResult) *discordgo.MessageEmbed {
	switch {
	case result.TimedOut:
		return &discordgo.MessageEmbed{
			Title:       "📅 Daily claim lost",
			Description: "Time ran out. Your streak was reset and today's claim is used up.",
			Color:       colorFailure,
		}
	case !result.Correct:
		return &discordgo.MessageEmbed{
			Title:       "📅 Daily claim lost",
			Description: "Wrong answer. Your streak was reset and today's claim is used up.",
			Color:       colorFailure,
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "📅 Daily reward",
		Description: fmt.Sprintf("You received **%s** points and coins. Streak: **%d** 🔥", common.FormatBalance(result.Reward), result.Streak),
		Color:       colorSuccess,
	}
}

func (b *Bot) handleQuiz(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext) {
	challenge, err := b.economy.NextQuizQuestion(ctx, ic.guildID, ic.userID, ic.displayName)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	template := answerButton{Action: actionQuiz, RefID: challenge.Question.ID, Issued: time.Now()}
	embed := questionEmbed("❓ Quiz", challenge.Question, colorQuiz)
	if err := common.RespondWithEmbed(s, i, embed, answerButtons(template, len(challenge.Question.Options)), true); err != nil {
		log.Errorf("Error responding to quiz: %v", err)
	}
}

func (b *Bot) handleRob(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	victimID, ok := opts.userID(s, "user")
	if !ok {
		common.RespondWithError(s, i, "Pick a player to rob")
		return
	}
	challenge, err := b.economy.StartRobbery(ctx, ic.guildID, ic.userID, victimID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	template := answerButton{Action: actionRob, TargetID: victimID, RefID: challenge.Question.ID, Issued: time.Now()}
	embed := questionEmbed("🦹 Robbery", challenge.Question, colorFailure)
	embed.Description = fmt.Sprintf("Answer correctly to rob <@%d>.\n\n%s", victimID, embed.Description)
	if err := common.RespondWithEmbed(s, i, embed, answerButtons(template, len(challenge.Question.Options)), true); err != nil {
		log.Errorf("Error responding to robbery: %v", err)
	}
}

func (b *Bot) handleGold(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext) {
	challenge, err := b.economy.GoldenChallenge(ctx, ic.guildID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	if challenge == nil {
		common.RespondWithMessage(s, i, "There is no active golden question right now.", true)
		return
	}
	template := answerButton{Action: actionGold, RefID: challenge.EventID, Issued: time.Now()}
	embed := questionEmbed("🌟 Golden question", challenge.Question, colorGold)
	embed.Description = fmt.Sprintf("Worth **%s** points. Closes %s.\n\n%s",
		common.FormatBalance(challenge.RewardPoints), common.FormatDiscordTimestamp(challenge.ExpiresAt, "R"), embed.Description)
	if err := common.RespondWithEmbed(s, i, embed, answerButtons(template, len(challenge.Question.Options)), true); err != nil {
		log.Errorf("Error responding to golden question: %v", err)
	}
}

func (b *Bot) handleShield(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	opt, ok := opts["hours"]
	if !ok {
		common.RespondWithError(s, i, "Pick a shield duration")
		return
	}
	result, err := b.economy.PurchaseShield(ctx, ic.guildID, ic.userID, opt.IntValue())
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	common.RespondWithSuccess(s, i, fmt.Sprintf("🛡️ Shield active until %s", common.FormatDiscordTimestamp(result.Grant.ExpiresAt, "f")), true)
}

func (b *Bot) handleTop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	metric := entities.LeaderboardPoints
	if opt, ok := opts["metric"]; ok {
		metric = entities.LeaderboardMetric(opt.StringValue())
	}
	page := 1
	if opt, ok := opts["page"]; ok && opt.IntValue() > 1 {
		page = int(opt.IntValue())
	}

	entries, err := b.economy.Leaderboard(ctx, ic.guildID, metric, leaderboardPageSize, (page-1)*leaderboardPageSize)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	if err := common.RespondWithEmbed(s, i, leaderboardEmbed(metric, page, entries), nil, false); err != nil {
		log.Errorf("Error responding to leaderboard: %v", err)
	}
}

func leaderboardEmbed(metric entities.LeaderboardMetric, page int, entries []*entities.LeaderboardEntry) *discordgo.MessageEmbed {
	var body strings.Builder
	if len(entries) == 0 {
		body.WriteString("Nobody here yet.")
	}
	for _, entry := range entries {
		a := entry.Account
		var value string
		switch metric {
		case entities.LeaderboardMoney:
			value = common.FormatBalance(a.Money) + " coins"
		case entities.LeaderboardElo:
			value = fmt.Sprintf("%d elo", a.Elo)
		case entities.LeaderboardStreak:
			value = fmt.Sprintf("%d days", a.DailyStreak)
		case entities.LeaderboardGold:
			value = fmt.Sprintf("%d wins", a.GoldWins)
		case entities.LeaderboardAccuracy:
			value = fmt.Sprintf("%.1f%%", a.Accuracy())
		default:
			value = common.FormatBalance(a.Points) + " points"
		}
		fmt.Fprintf(&body, "**%d.** <@%d> · %s\n", entry.Rank, a.PlayerID, value)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 Leaderboard · %s", metric),
		Description: body.String(),
		Color:       colorGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d", page)},
	}
}

func (b *Bot) handleProfile(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	playerID := ic.userID
	if id, ok := opts.userID(s, "user"); ok {
		playerID = id
	}
	profile, err := b.economy.PlayerProfile(ctx, ic.guildID, playerID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	if profile == nil || profile.Account == nil {
		common.RespondWithMessage(s, i, "That player has not played yet.", true)
		return
	}

	a := profile.Account
	fields := []*discordgo.MessageEmbedField{
		{Name: "Points", Value: common.FormatBalance(a.Points), Inline: true},
		{Name: "Coins", Value: common.FormatBalance(a.Money), Inline: true},
		{Name: "Elo", Value: strconv.FormatInt(a.Elo, 10), Inline: true},
		{Name: "Streak", Value: fmt.Sprintf("%d 🔥", a.DailyStreak), Inline: true},
		{Name: "Golden wins", Value: strconv.FormatInt(a.GoldWins, 10), Inline: true},
		{Name: "Accuracy", Value: fmt.Sprintf("%.1f%% of %d", a.Accuracy(), a.TotalQuizzes), Inline: true},
	}
	if profile.Multiplier > 1 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Multiplier", Value: fmt.Sprintf("x%.2f", profile.Multiplier), Inline: true})
	}
	if a.ShieldUntil != nil && a.ShieldUntil.After(time.Now()) {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Shield", Value: "until " + common.FormatDiscordTimestamp(*a.ShieldUntil, "f"), Inline: true})
	}

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("👤 %s", a.DisplayName),
		Color:  colorInfo,
		Fields: fields,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to profile: %v", err)
	}
}

func (b *Bot) handleRobberies(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext, opts options) {
	playerID := ic.userID
	if id, ok := opts.userID(s, "user"); ok {
		playerID = id
	}
	history, err := b.economy.RobberyHistory(ctx, ic.guildID, playerID, 0)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}

	var body strings.Builder
	if len(history) == 0 {
		body.WriteString("No robberies yet.")
	}
	for _, r := range history {
		outcome := "❌ failed"
		if r.Success {
			outcome = fmt.Sprintf("💰 took %s", common.FormatBalance(r.MoneyStolen))
		}
		fmt.Fprintf(&body, "%s <@%d> → <@%d> %s\n", common.FormatDiscordTimestamp(r.CreatedAt, "R"), r.AttackerID, r.VictimID, outcome)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🦹 Recent robberies",
		Description: body.String(),
		Color:       colorInfo,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to robbery history: %v", err)
	}
}

func (b *Bot) handleEvents(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, ic *interactionContext) {
	upcoming, err := b.economy.SpecialEvents(ctx, ic.guildID)
	if err != nil {
		common.RespondWithError(s, i, userMessage(err))
		return
	}
	var body strings.Builder
	if len(upcoming) == 0 {
		body.WriteString("No special events scheduled.")
	}
	for _, e := range upcoming {
		fmt.Fprintf(&body, "`#%d` **%s** %s → %s\n", e.ID, e.EventType,
			common.FormatDiscordTimestamp(e.StartsAt, "f"), common.FormatDiscordTimestamp(e.EndsAt, "f"))
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🎉 Special events",
		Description: body.String(),
		Color:       colorInfo,
	}
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to events: %v", err)
	}
}

// handleComponents resolves answer buttons
func (b *Bot) handleComponents(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	button, err := decodeAnswerButton(i.MessageComponentData().CustomID)
	if err != nil {
		return
	}
	ic, err := newInteractionContext(i)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	latency := button.Latency(time.Now())
	var embed *discordgo.MessageEmbed

	switch button.Action {
	case actionQuiz:
		result, err := b.economy.AnswerQuiz(ctx, ic.guildID, ic.userID, ic.displayName, button.RefID, button.Choice, latency)
		if err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		embed = quizResultEmbed(result.Correct, result.CorrectIndex, result.PointsEarned, result.MysteryBonus)

	case actionDaily:
		result, err := b.economy.ClaimDaily(ctx, ic.guildID, ic.userID, ic.displayName, dto.DailyAnswer{
			QuestionID: button.RefID,
			Choice:     button.Choice,
			Latency:    latency,
		})
		if err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		embed = dailyEmbed(result)

	case actionRob:
		result, err := b.economy.AttemptRobbery(ctx, ic.guildID, ic.userID, button.TargetID, button.RefID, button.Choice, latency)
		if err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		embed = robberyResultEmbed(result.Robbery)

	case actionGold:
		result, err := b.economy.AnswerGolden(ctx, ic.guildID, ic.userID, ic.displayName, button.Choice, latency)
		if err != nil {
			common.RespondWithError(s, i, userMessage(err))
			return
		}
		embed = goldenResultEmbed(result.Correct, result.Won, result.Event)
	}

	if err := common.UpdateWithEmbed(s, i, embed); err != nil {
		log.Errorf("Error updating answer message: %v", err)
	}
}

func quizResultEmbed(correct bool, correctIndex int, points, bonus int64) *discordgo.MessageEmbed {
	if !correct {
		answer := strconv.Itoa(correctIndex + 1)
		if correctIndex >= 0 && correctIndex < len(optionLabels) {
			answer = optionLabels[correctIndex]
		}
		return &discordgo.MessageEmbed{
			Title:       "❌ Wrong answer",
			Description: fmt.Sprintf("The correct answer was **%s**.", answer),
			Color:       colorFailure,
		}
	}
	description := fmt.Sprintf("You earned **%s** points and coins.", common.FormatBalance(points))
	if bonus > 0 {
		description += fmt.Sprintf("\n🎁 Mystery box: **+%s** coins!", common.FormatBalance(bonus))
	}
	return &discordgo.MessageEmbed{
		Title:       "✅ Correct!",
		Description: description,
		Color:       colorSuccess,
	}
}

func robberyResultEmbed(r *entities.Robbery) *discordgo.MessageEmbed {
	if r.Success {
		return &discordgo.MessageEmbed{
			Title:       "💰 Robbery succeeded",
			Description: fmt.Sprintf("You took **%s** coins from <@%d>.", common.FormatBalance(r.MoneyStolen), r.VictimID),
			Color:       colorSuccess,
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "🚓 Robbery failed",
		Description: fmt.Sprintf("You were caught trying to rob <@%d> and paid **%s** coins.", r.VictimID, common.FormatBalance(-r.MoneyStolen)),
		Color:       colorFailure,
	}
}

func goldenResultEmbed(correct, won bool, event *entities.GoldenEvent) *discordgo.MessageEmbed {
	switch {
	case won:
		return &discordgo.MessageEmbed{
			Title:       "🏆 You won the golden question!",
			Description: fmt.Sprintf("**%s** points are yours.", common.FormatBalance(event.RewardPoints)),
			Color:       colorGold,
		}
	case correct:
		return &discordgo.MessageEmbed{
			Title:       "⏱️ Correct, but too late",
			Description: "Someone else answered first.",
			Color:       colorInfo,
		}
	default:
		return &discordgo.MessageEmbed{
			Title:       "❌ Wrong answer",
			Description: "Better luck next time.",
			Color:       colorFailure,
		}
	}
}
