package entities

import "time"

// GrantRoleType identifies the kind of time-boxed effect a grant carries
type GrantRoleType string

const (
	GrantRoleTypeVIP        GrantRoleType = "vip"
	GrantRoleTypeMultiplier GrantRoleType = "multiplier"
	GrantRoleTypeTopRank    GrantRoleType = "top_rank"
	GrantRoleTypeShield     GrantRoleType = "shield"
)

// IsValid reports whether the role type is known
func (t GrantRoleType) IsValid() bool {
	switch t {
	case GrantRoleTypeVIP, GrantRoleTypeMultiplier, GrantRoleTypeTopRank, GrantRoleTypeShield:
		return true
	}
	return false
}

// RemovalReason records how a grant left the active set
type RemovalReason string

const (
	RemovalReasonExpired  RemovalReason = "expired"
	RemovalReasonRevoked  RemovalReason = "revoked"
	RemovalReasonReplaced RemovalReason = "replaced"
)

// TemporaryGrant is a time-boxed role or effect bound to a player in a guild
type TemporaryGrant struct {
	ID            int64          `db:"id"`
	PlayerID      int64          `db:"player_id"`
	GuildID       int64          `db:"guild_id"`
	RoleType      GrantRoleType  `db:"role_type"`
	RoleID        *int64         `db:"role_id"` // Chat platform role, nil for shields
	Multiplier    float64        `db:"multiplier"`
	GrantedAt     time.Time      `db:"granted_at"`
	ExpiresAt     time.Time      `db:"expires_at"`
	Removed       bool           `db:"removed"`
	RemovedAt     *time.Time     `db:"removed_at"`
	RemovalReason *RemovalReason `db:"removal_reason"`
}

// IsActiveAt reports whether the grant is in effect at the given time
func (g *TemporaryGrant) IsActiveAt(now time.Time) bool {
	return !g.Removed && !now.Before(g.GrantedAt) && now.Before(g.ExpiresAt)
}

// IsDueForExpiry reports whether the sweep must remove this grant
func (g *TemporaryGrant) IsDueForExpiry(now time.Time) bool {
	return !g.Removed && !now.Before(g.ExpiresAt)
}

// HasPlatformRole reports whether removing the grant requires a chat platform action
func (g *TemporaryGrant) HasPlatformRole() bool {
	return g.RoleID != nil && *g.RoleID > 0
}

// SameRole reports whether the grant targets the given platform role
func (g *TemporaryGrant) SameRole(roleID *int64) bool {
	if g.RoleID == nil || roleID == nil {
		return g.RoleID == nil && roleID == nil
	}
	return *g.RoleID == *roleID
}

// Remaining returns how long the grant stays active after now
func (g *TemporaryGrant) Remaining(now time.Time) time.Duration {
	if !g.IsActiveAt(now) {
		return 0
	}
	return g.ExpiresAt.Sub(now)
}
