// Package gateway defines the closed set of decoded gateway events the cache
// consumes. Wire decoding (JSON/ETF framing, compression, sharding) is the
// gateway client's concern; by the time an event reaches this package it is
// already a typed value.
package gateway

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/beatbot/statecache/internal/discord"
)

// EventType names a gateway dispatch event using Discord's wire identifiers.
type EventType string

const (
	EventTypeReady              EventType = "READY"
	EventTypeChannelCreate      EventType = "CHANNEL_CREATE"
	EventTypeChannelUpdate      EventType = "CHANNEL_UPDATE"
	EventTypeChannelDelete      EventType = "CHANNEL_DELETE"
	EventTypeThreadCreate       EventType = "THREAD_CREATE"
	EventTypeThreadUpdate       EventType = "THREAD_UPDATE"
	EventTypeThreadDelete       EventType = "THREAD_DELETE"
	EventTypeThreadListSync     EventType = "THREAD_LIST_SYNC"
	EventTypeGuildCreate        EventType = "GUILD_CREATE"
	EventTypeGuildUpdate        EventType = "GUILD_UPDATE"
	EventTypeGuildDelete        EventType = "GUILD_DELETE"
	EventTypeGuildMemberAdd     EventType = "GUILD_MEMBER_ADD"
	EventTypeGuildMemberUpdate  EventType = "GUILD_MEMBER_UPDATE"
	EventTypeGuildMemberRemove  EventType = "GUILD_MEMBER_REMOVE"
	EventTypeGuildMembersChunk  EventType = "GUILD_MEMBERS_CHUNK"
	EventTypeGuildRoleCreate    EventType = "GUILD_ROLE_CREATE"
	EventTypeGuildRoleUpdate    EventType = "GUILD_ROLE_UPDATE"
	EventTypeGuildRoleDelete    EventType = "GUILD_ROLE_DELETE"
	EventTypeMessageCreate      EventType = "MESSAGE_CREATE"
	EventTypeMessageUpdate      EventType = "MESSAGE_UPDATE"
	EventTypeMessageDelete      EventType = "MESSAGE_DELETE"
	EventTypeInteractionCreate  EventType = "INTERACTION_CREATE"
	EventTypeUserUpdate         EventType = "USER_UPDATE"
	EventTypeTypingStart        EventType = "TYPING_START"
	EventTypeMessageReactionAdd EventType = "MESSAGE_REACTION_ADD"
)

// Event is implemented by every decoded gateway event. The set of
// implementations is closed; the dispatcher switches over concrete types and
// routes anything it does not recognize to the no-change branch.
type Event interface {
	EventType() EventType
}

// EventReady is the session bootstrap payload.
type EventReady struct {
	User    discord.User
	Guilds  []discord.UnavailableGuild
	ShardID int
}

func (EventReady) EventType() EventType { return EventTypeReady }

// EventChannelCreate carries a newly created channel.
type EventChannelCreate struct {
	Channel discord.Channel
}

func (EventChannelCreate) EventType() EventType { return EventTypeChannelCreate }

// EventChannelUpdate carries the full updated channel.
type EventChannelUpdate struct {
	Channel discord.Channel
}

func (EventChannelUpdate) EventType() EventType { return EventTypeChannelUpdate }

// EventChannelDelete carries the deleted channel.
type EventChannelDelete struct {
	Channel discord.Channel
}

func (EventChannelDelete) EventType() EventType { return EventTypeChannelDelete }

// EventThreadCreate carries a newly created thread, cached as a channel.
type EventThreadCreate struct {
	Channel discord.Channel
}

func (EventThreadCreate) EventType() EventType { return EventTypeThreadCreate }

// EventThreadUpdate carries the full updated thread.
type EventThreadUpdate struct {
	Channel discord.Channel
}

func (EventThreadUpdate) EventType() EventType { return EventTypeThreadUpdate }

// EventThreadDelete identifies a deleted thread.
type EventThreadDelete struct {
	GuildID snowflake.ID
	ID      snowflake.ID
}

func (EventThreadDelete) EventType() EventType { return EventTypeThreadDelete }

// EventThreadListSync delivers the active threads of a guild in bulk.
type EventThreadListSync struct {
	GuildID snowflake.ID
	Threads []discord.Channel
}

func (EventThreadListSync) EventType() EventType { return EventTypeThreadListSync }

// EventGuildCreate carries a guild plus all entities embedded in the
// creation payload.
type EventGuildCreate struct {
	Guild discord.GatewayGuild
}

func (EventGuildCreate) EventType() EventType { return EventTypeGuildCreate }

// EventGuildUpdate carries the mutable guild properties. The payload does
// not include members or channels, so it is applied as a partial update.
type EventGuildUpdate struct {
	Guild discord.Guild
}

func (EventGuildUpdate) EventType() EventType { return EventTypeGuildUpdate }

// EventGuildDelete signals either a real removal or an outage. Unavailable
// set means the guild went offline and will come back.
type EventGuildDelete struct {
	ID          snowflake.ID
	Unavailable bool
}

func (EventGuildDelete) EventType() EventType { return EventTypeGuildDelete }

// EventGuildMemberAdd carries a complete member record.
type EventGuildMemberAdd struct {
	GuildID snowflake.ID
	Member  discord.Member
}

func (EventGuildMemberAdd) EventType() EventType { return EventTypeGuildMemberAdd }

// EventGuildMemberUpdate carries a complete, authoritative member record.
type EventGuildMemberUpdate struct {
	GuildID snowflake.ID
	Member  discord.Member
}

func (EventGuildMemberUpdate) EventType() EventType { return EventTypeGuildMemberUpdate }

// EventGuildMemberRemove signals a member leaving a guild.
type EventGuildMemberRemove struct {
	GuildID snowflake.ID
	User    discord.User
}

func (EventGuildMemberRemove) EventType() EventType { return EventTypeGuildMemberRemove }

// EventGuildMembersChunk delivers a batch of members in response to a
// request-guild-members call.
type EventGuildMembersChunk struct {
	GuildID snowflake.ID
	Members []discord.Member
}

func (EventGuildMembersChunk) EventType() EventType { return EventTypeGuildMembersChunk }

// EventGuildRoleCreate carries a newly created role.
type EventGuildRoleCreate struct {
	GuildID snowflake.ID
	Role    discord.Role
}

func (EventGuildRoleCreate) EventType() EventType { return EventTypeGuildRoleCreate }

// EventGuildRoleUpdate carries the full updated role.
type EventGuildRoleUpdate struct {
	GuildID snowflake.ID
	Role    discord.Role
}

func (EventGuildRoleUpdate) EventType() EventType { return EventTypeGuildRoleUpdate }

// EventGuildRoleDelete identifies a deleted role.
type EventGuildRoleDelete struct {
	GuildID snowflake.ID
	RoleID  snowflake.ID
}

func (EventGuildRoleDelete) EventType() EventType { return EventTypeGuildRoleDelete }

// EventMessageCreate carries the author identity embedded in a message.
// Only the user and optional partial member are relevant to the cache; the
// message content itself is not cached.
type EventMessageCreate struct {
	ChannelID snowflake.ID
	GuildID   *snowflake.ID
	Author    discord.User
	Member    *discord.PartialMember
}

func (EventMessageCreate) EventType() EventType { return EventTypeMessageCreate }

// EventMessageUpdate mirrors EventMessageCreate. Edits from webhooks and
// embeds-only updates may omit the author entirely.
type EventMessageUpdate struct {
	ChannelID snowflake.ID
	GuildID   *snowflake.ID
	Author    *discord.User
	Member    *discord.PartialMember
}

func (EventMessageUpdate) EventType() EventType { return EventTypeMessageUpdate }

// EventMessageDelete is ignored by the cache.
type EventMessageDelete struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

func (EventMessageDelete) EventType() EventType { return EventTypeMessageDelete }

// EventInteractionCreate carries the invoking user. In guilds the user
// arrives wrapped in a partial member; in DMs only the bare user is present.
type EventInteractionCreate struct {
	GuildID *snowflake.ID
	User    *discord.User
	Member  *discord.PartialMember
}

func (EventInteractionCreate) EventType() EventType { return EventTypeInteractionCreate }

// EventUserUpdate carries the bot's own updated identity.
type EventUserUpdate struct {
	User discord.User
}

func (EventUserUpdate) EventType() EventType { return EventTypeUserUpdate }

// EventTypingStart is ignored by the cache.
type EventTypingStart struct {
	ChannelID snowflake.ID
	UserID    snowflake.ID
}

func (EventTypingStart) EventType() EventType { return EventTypeTypingStart }
