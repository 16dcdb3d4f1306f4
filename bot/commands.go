package bot

import (
	"fmt"

	"quizbot/domain/entities"
	"quizbot/domain/services"

	"github.com/bwmarrin/discordgo"
)

var adminPermissions int64 = discordgo.PermissionManageGuild

func choice(name string) *discordgo.ApplicationCommandOptionChoice {
	return &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name}
}

func leaderboardChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		choice(string(entities.LeaderboardPoints)),
		choice(string(entities.LeaderboardMoney)),
		choice(string(entities.LeaderboardElo)),
		choice(string(entities.LeaderboardStreak)),
		choice(string(entities.LeaderboardGold)),
		choice(string(entities.LeaderboardAccuracy)),
	}
}

func shieldChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(services.ShieldPresetHours))
	for i, hours := range services.ShieldPresetHours {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%dh (%d points)", hours, hours*services.ShieldPointsPerHour),
			Value: hours,
		}
	}
	return choices
}

func specialEventChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		choice(string(entities.SpecialEventDoublePoints)),
		choice(string(entities.SpecialEventFreeRobbery)),
		choice(string(entities.SpecialEventTripleGold)),
		choice(string(entities.SpecialEventSpeedQuiz)),
		choice(string(entities.SpecialEventMysteryBox)),
	}
}

func channelKindChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		choice(string(entities.ChannelKindQuiz)),
		choice(string(entities.ChannelKindGold)),
		choice(string(entities.ChannelKindLog)),
		choice(string(entities.ChannelKindAnnounce)),
	}
}

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "daily",
			Description: "Answer the daily question to claim your reward",
		},
		{
			Name:        "quiz",
			Description: "Answer a quiz question for points and coins",
		},
		{
			Name:        "rob",
			Description: "Try to rob another player",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "Player to rob", true),
			},
		},
		{
			Name:        "gold",
			Description: "Show the active golden question",
		},
		{
			Name:        "shield",
			Description: "Buy protection against robberies",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "hours",
					Description: "Shield duration",
					Required:    true,
					Choices:     shieldChoices(),
				},
			},
		},
		{
			Name:        "top",
			Description: "Show the leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "metric",
					Description: "Ranking metric (defaults to points)",
					Choices:     leaderboardChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Leaderboard page",
				},
			},
		},
		{
			Name:        "profile",
			Description: "Show a player's economy profile",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "Player to inspect (defaults to you)", false),
			},
		},
		{
			Name:        "robberies",
			Description: "Show recent robberies of a player",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("user", "Player to inspect (defaults to you)", false),
			},
		},
		{
			Name:        "events",
			Description: "List running and upcoming special events",
		},
		{
			Name:                     "economy",
			Description:              "Administer the guild economy",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "give",
					Description: "Add or remove points or coins",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user", "Player to adjust", true),
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "currency",
							Description: "Balance to adjust",
							Required:    true,
							Choices:     []*discordgo.ApplicationCommandOptionChoice{choice("points"), choice("money")},
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "amount",
							Description: "Signed amount",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset-player",
					Description: "Zero a player's balances and progress",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user", "Player to reset", true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset-guild",
					Description: "Delete every account of this server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "confirm",
							Description: "Confirm the reset",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Change an economy parameter",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "param",
							Description: "Parameter name",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "value",
							Description: "New value",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Route announcements of a kind to a channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "kind",
							Description: "Announcement kind",
							Required:    true,
							Choices:     channelKindChoices(),
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Target channel (leave empty to clear)",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "top-roles",
					Description: "Set the roles handed to the top 3 players",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionRole, Name: "first", Description: "Role for rank 1"},
						{Type: discordgo.ApplicationCommandOptionRole, Name: "second", Description: "Role for rank 2"},
						{Type: discordgo.ApplicationCommandOptionRole, Name: "third", Description: "Role for rank 3"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "locale",
					Description: "Change the announcement language",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "locale",
							Description: "Language",
							Required:    true,
							Choices:     []*discordgo.ApplicationCommandOptionChoice{choice("es"), choice("en")},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "event",
					Description: "Schedule a special event",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "type",
							Description: "Event type",
							Required:    true,
							Choices:     specialEventChoices(),
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "minutes",
							Description: "How long the event runs",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "starts_in",
							Description: "Minutes until the event starts (defaults to now)",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "cancel-event",
					Description: "End a special event now",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Event ID",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Summarise the server economy",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reconcile",
					Description: "Check a player's balances against the ledger",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user", "Player to check", true),
					},
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
