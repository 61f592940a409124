// Package discord defines the normalized entity types the cache stores.
// These are deliberately narrower than the raw gateway payloads: only the
// fields the application reads back are kept, which keeps cached values
// small and the wire format stable.
package discord

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Guild is the cached representation of a Discord guild. Channel and role
// memberships are tracked in separate index sets rather than on the record
// itself, so the record stays small under churn.
type Guild struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID          snowflake.ID
	Name        string
	OwnerID     snowflake.ID
	Features    []string
	MemberCount int32
}

// UnavailableGuild marks a guild that is offline due to a Discord outage.
// It is a tombstone: the guild's substructure stays cached until a real
// guild delete arrives.
type UnavailableGuild struct {
	ID          snowflake.ID
	Unavailable bool
}

// GatewayGuild is the guild-create payload shape: the guild itself plus all
// embedded entities delivered with it.
type GatewayGuild struct {
	Guild

	Unavailable bool
	Channels    []Channel
	Roles       []Role
	Members     []Member
}

// ChannelType mirrors the Discord channel type enumeration.
type ChannelType uint8

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
)

const (
	ChannelTypeGuildNewsThread ChannelType = iota + 10
	ChannelTypeGuildPublicThread
	ChannelTypeGuildPrivateThread
	ChannelTypeGuildStageVoice
	ChannelTypeGuildForum ChannelType = 15
)

// OverwriteType distinguishes role overwrites from member overwrites.
type OverwriteType uint8

const (
	OverwriteTypeRole OverwriteType = iota
	OverwriteTypeMember
)

// Overwrite is a single permission overwrite on a channel.
type Overwrite struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID    snowflake.ID
	Type  OverwriteType
	Allow uint64
	Deny  uint64
}

// Channel is the cached representation of a guild channel, thread, or DM
// channel. GuildID is nil for DM channels; the guild association is part of
// the cache key, so a channel moving between guilds is a delete plus a
// recreate, never a mutation.
type Channel struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID         snowflake.ID
	GuildID    *snowflake.ID
	Name       string
	Type       ChannelType
	Overwrites []Overwrite
}

// User is the guild-independent identity record. Members reference users but
// do not own them.
type User struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID            snowflake.ID
	Username      string
	Discriminator string
	Avatar        string
	Bot           bool
}

// Member is a user's presence in one guild, keyed by (guild, user). The user
// record is embedded so a member fetch never needs a second lookup.
type Member struct {
	_msgpack struct{} `msgpack:",as_array"`

	User     User
	Nick     string
	RoleIDs  []snowflake.ID
	JoinedAt time.Time
	Flags    uint64
}

// PartialMember carries the member fields a non-authoritative payload may
// include. Nil fields mean "unchanged", not "cleared".
type PartialMember struct {
	Nick     *string
	RoleIDs  []snowflake.ID
	JoinedAt *time.Time
	Flags    *uint64
}

// Role is the cached representation of a guild role, keyed by (guild, role).
type Role struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID          snowflake.ID
	Name        string
	Color       uint32
	Permissions uint64
	Position    int32
}
