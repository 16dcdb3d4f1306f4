package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// RoleManager adds and removes guild member roles
type RoleManager struct {
	session *discordgo.Session
}

// NewRoleManager creates a role manager on an open session
func NewRoleManager(session *discordgo.Session) *RoleManager {
	return &RoleManager{session: session}
}

// AddRole gives the player a role
func (m *RoleManager) AddRole(ctx context.Context, guildID, playerID, roleID int64) error {
	err := m.session.GuildMemberRoleAdd(
		strconv.FormatInt(guildID, 10),
		strconv.FormatInt(playerID, 10),
		strconv.FormatInt(roleID, 10),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	log.WithFields(log.Fields{
		"guild_id":  guildID,
		"player_id": playerID,
		"role_id":   roleID,
	}).Debug("Added role")
	return nil
}

// RemoveRole takes a role away from the player
func (m *RoleManager) RemoveRole(ctx context.Context, guildID, playerID, roleID int64) error {
	err := m.session.GuildMemberRoleRemove(
		strconv.FormatInt(guildID, 10),
		strconv.FormatInt(playerID, 10),
		strconv.FormatInt(roleID, 10),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	log.WithFields(log.Fields{
		"guild_id":  guildID,
		"player_id": playerID,
		"role_id":   roleID,
	}).Debug("Removed role")
	return nil
}

// Announcer posts plain messages to channels
type Announcer struct {
	session *discordgo.Session
}

// NewAnnouncer creates an announcer on an open session
func NewAnnouncer(session *discordgo.Session) *Announcer {
	return &Announcer{session: session}
}

// Announce sends message to the channel
func (a *Announcer) Announce(ctx context.Context, channelID int64, message string) error {
	if _, err := a.session.ChannelMessageSend(strconv.FormatInt(channelID, 10), message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %d: %w", channelID, err)
	}
	return nil
}
