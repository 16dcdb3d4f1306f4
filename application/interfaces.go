package application

import (
	"context"
	"time"

	"quizbot/domain/interfaces"
)

// RoleManager applies role instructions on the chat platform
type RoleManager interface {
	// AddRole gives the player a role
	AddRole(ctx context.Context, guildID, playerID, roleID int64) error

	// RemoveRole takes a role away from the player
	RemoveRole(ctx context.Context, guildID, playerID, roleID int64) error
}

// Announcer posts a message to a chat channel
type Announcer interface {
	Announce(ctx context.Context, channelID int64, message string) error
}

// GuildConfigCache is a read-through cache in front of guild configuration
type GuildConfigCache interface {
	// Wrap returns a repository that reads through the cache
	Wrap(repo interfaces.GuildConfigRepository, guildID int64) interfaces.GuildConfigRepository

	// Invalidate drops the cached configuration of a guild
	Invalidate(ctx context.Context, guildID int64) error
}

// Lease is a held sweep lock
type Lease interface {
	Release(ctx context.Context) error
}

// SweepLocker hands out short leases so only one process sweeps a guild at a time.
// TryAcquire returns nil when another holder owns the lease.
type SweepLocker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}
