package cache

import "github.com/disgoorg/snowflake/v2"

// Cache keys are a fixed ASCII prefix per entity kind followed by
// ':'-separated decimal ID components. Prefixes do not overlap and the
// separator never appears in a rendered ID, so no two distinct descriptors
// produce the same key.
const (
	keyPrefixCurrentUser = "CURRENT_USER"
	keyPrefixChannel     = "CHANNEL"
	keyPrefixGuild       = "GUILD"
	keyPrefixMember      = "MEMBER"
	keyPrefixRole        = "ROLE"
	keyPrefixUser        = "USER"
	keyPrefixResumeData  = "RESUME_DATA"
	keyPrefixOther       = "OTHER"
)

// Index set keys. The backing store has no secondary indexes, so entity ids
// are tracked in sets maintained alongside every primary write.
const (
	keyGuildIDs            = "GUILD_IDS"
	keyUnavailableGuildIDs = "UNAVAILABLE_GUILD_IDS"
	keyChannelIDs          = "CHANNEL_IDS"
	keyUserIDs             = "USER_IDS"
	keyGuildChannelIDs     = "GUILD_CHANNEL_IDS"
	keyGuildRoleIDs        = "GUILD_ROLE_IDS"
	keyGuildMemberIDs      = "GUILD_MEMBER_IDS"
)

// KeyCurrentUser returns the key of the bot's own identity record.
func KeyCurrentUser() string { return keyPrefixCurrentUser }

// KeyGuild returns the key of a guild record.
func KeyGuild(guildID snowflake.ID) string {
	return keyPrefixGuild + ":" + guildID.String()
}

// KeyChannel returns the key of a channel record. DM channels have no guild
// and omit the guild segment entirely rather than leaving it empty, so
// "CHANNEL:123" and "CHANNEL:45:123" address different channels.
func KeyChannel(guildID *snowflake.ID, channelID snowflake.ID) string {
	if guildID == nil {
		return keyPrefixChannel + ":" + channelID.String()
	}

	return keyPrefixChannel + ":" + guildID.String() + ":" + channelID.String()
}

// KeyMember returns the key of a member record, composite over guild and
// user.
func KeyMember(guildID, userID snowflake.ID) string {
	return keyPrefixMember + ":" + guildID.String() + ":" + userID.String()
}

// KeyRole returns the key of a role record, composite over guild and role.
func KeyRole(guildID, roleID snowflake.ID) string {
	return keyPrefixRole + ":" + guildID.String() + ":" + roleID.String()
}

// KeyUser returns the key of a global user record.
func KeyUser(userID snowflake.ID) string {
	return keyPrefixUser + ":" + userID.String()
}

// KeyResumeData returns the key holding shard resume sessions.
func KeyResumeData() string { return keyPrefixResumeData }

// KeyOther returns a namespaced key for auxiliary state such as cold resume
// chunks. The prefix keeps opaque keys out of the entity keyspace.
func KeyOther(name string) string {
	return keyPrefixOther + ":" + name
}

// KeyGuildIDs returns the global set of available guild ids.
func KeyGuildIDs() string { return keyGuildIDs }

// KeyUnavailableGuildIDs returns the global set of guild ids currently
// marked unavailable.
func KeyUnavailableGuildIDs() string { return keyUnavailableGuildIDs }

// KeyChannelIDs returns the global set of all cached channel ids.
func KeyChannelIDs() string { return keyChannelIDs }

// KeyUserIDs returns the global set of all cached user ids.
func KeyUserIDs() string { return keyUserIDs }

// KeyGuildChannelIDs returns the set of channel ids belonging to one guild.
func KeyGuildChannelIDs(guildID snowflake.ID) string {
	return keyGuildChannelIDs + ":" + guildID.String()
}

// KeyGuildRoleIDs returns the set of role ids belonging to one guild.
func KeyGuildRoleIDs(guildID snowflake.ID) string {
	return keyGuildRoleIDs + ":" + guildID.String()
}

// KeyGuildMemberIDs returns the set of user ids that are members of one
// guild.
func KeyGuildMemberIDs(guildID snowflake.ID) string {
	return keyGuildMemberIDs + ":" + guildID.String()
}
