package cache

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
)

// StoreGuild writes a guild-create payload: the guild record itself plus
// every channel, role, and member embedded in it, returning the aggregated
// summary. A guild arriving this way is available by definition, so its id
// is moved out of the unavailable set if it was parked there.
func (c *Client) StoreGuild(ctx context.Context, payload *discord.GatewayGuild) (ChangeSummary, error) {
	var summary ChangeSummary

	buf, err := c.codec.Encode(KindGuild, &payload.Guild)
	if err != nil {
		return summary, err
	}

	if err := c.setBinary(ctx, KeyGuild(payload.ID), buf); err != nil {
		return summary, fmt.Errorf("store guild %s: %w", payload.ID, err)
	}

	added, err := c.sAdd(ctx, KeyGuildIDs(), payload.ID.String())
	if err != nil {
		return summary, fmt.Errorf("index guild %s: %w", payload.ID, err)
	}

	recovered, err := c.sRem(ctx, KeyUnavailableGuildIDs(), payload.ID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex unavailable guild %s: %w", payload.ID, err)
	}

	summary.Guilds = added
	summary.UnavailableGuilds = -recovered

	for i := range payload.Channels {
		channel := payload.Channels[i]
		if channel.GuildID == nil {
			guildID := payload.ID
			channel.GuildID = &guildID
		}

		channelSummary, err := c.StoreChannel(ctx, &channel)
		if err != nil {
			return summary, err
		}

		summary.Merge(channelSummary)
	}

	for i := range payload.Roles {
		roleSummary, err := c.StoreRole(ctx, payload.ID, &payload.Roles[i])
		if err != nil {
			return summary, err
		}

		summary.Merge(roleSummary)
	}

	memberSummary, err := c.StoreMembers(ctx, payload.ID, payload.Members)
	if err != nil {
		return summary, err
	}

	summary.Merge(memberSummary)

	return summary, nil
}

// CachePartialGuild applies a guild-update payload, which carries the guild
// properties but none of the substructure or the member count. Fields the
// payload cannot know are preserved from the existing record.
func (c *Client) CachePartialGuild(ctx context.Context, guild *discord.Guild) (ChangeSummary, error) {
	var summary ChangeSummary

	merged := *guild

	existing, err := c.FetchGuild(ctx, guild.ID)
	if err != nil {
		return summary, err
	}

	if existing != nil {
		if merged.MemberCount == 0 {
			merged.MemberCount = existing.MemberCount
		}

		if merged.Features == nil {
			merged.Features = existing.Features
		}
	}

	buf, err := c.codec.Encode(KindGuild, &merged)
	if err != nil {
		return summary, err
	}

	if err := c.setBinary(ctx, KeyGuild(merged.ID), buf); err != nil {
		return summary, fmt.Errorf("store guild %s: %w", merged.ID, err)
	}

	added, err := c.sAdd(ctx, KeyGuildIDs(), merged.ID.String())
	if err != nil {
		return summary, fmt.Errorf("index guild %s: %w", merged.ID, err)
	}

	summary.Guilds = added

	return summary, nil
}

// CacheUnavailableGuild moves a guild id from the available to the
// unavailable set. The guild's record and substructure stay cached; an
// outage is transient and the guild-create that follows it will refresh
// everything anyway.
func (c *Client) CacheUnavailableGuild(ctx context.Context, guildID snowflake.ID) (ChangeSummary, error) {
	var summary ChangeSummary

	added, err := c.sAdd(ctx, KeyUnavailableGuildIDs(), guildID.String())
	if err != nil {
		return summary, fmt.Errorf("index unavailable guild %s: %w", guildID, err)
	}

	removed, err := c.sRem(ctx, KeyGuildIDs(), guildID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex guild %s: %w", guildID, err)
	}

	summary.UnavailableGuilds = added
	summary.Guilds = -removed

	return summary, nil
}

// FetchGuild reads a guild record, returning nil on a miss or an
// undecodable buffer.
func (c *Client) FetchGuild(ctx context.Context, guildID snowflake.ID) (*discord.Guild, error) {
	data, ok, err := c.getBinary(ctx, KeyGuild(guildID))
	if err != nil {
		return nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
	}

	if !ok {
		return nil, nil
	}

	var guild discord.Guild
	if err := c.codec.Decode(KindGuild, data, &guild); err != nil {
		c.logger.Warn("Discarding undecodable cached guild",
			zap.String("guildID", guildID.String()),
			zap.Error(err))
		return nil, nil
	}

	return &guild, nil
}

// DeleteGuild removes a guild and cascades over its members, roles, and
// channels via the guild's index sets, then drops the sets themselves and
// the guild's entries in the global sets. The store has no transactions; a
// crash mid-cascade can leave orphaned children, which the next full
// guild-create self-heals.
func (c *Client) DeleteGuild(ctx context.Context, guildID snowflake.ID) (ChangeSummary, error) {
	var summary ChangeSummary

	channelIDs, err := c.sMembers(ctx, KeyGuildChannelIDs(guildID))
	if err != nil {
		return summary, fmt.Errorf("enumerate channels of guild %s: %w", guildID, err)
	}

	roleIDs, err := c.sMembers(ctx, KeyGuildRoleIDs(guildID))
	if err != nil {
		return summary, fmt.Errorf("enumerate roles of guild %s: %w", guildID, err)
	}

	memberIDs, err := c.sMembers(ctx, KeyGuildMemberIDs(guildID))
	if err != nil {
		return summary, fmt.Errorf("enumerate members of guild %s: %w", guildID, err)
	}

	keys := make([]string, 0, len(channelIDs)+len(roleIDs)+len(memberIDs)+4)

	for _, raw := range channelIDs {
		id, err := snowflake.Parse(raw)
		if err != nil {
			c.logger.Warn("Skipping malformed channel id in guild index",
				zap.String("guildID", guildID.String()),
				zap.String("raw", raw))
			continue
		}

		keys = append(keys, KeyChannel(&guildID, id))
	}

	for _, raw := range roleIDs {
		id, err := snowflake.Parse(raw)
		if err != nil {
			continue
		}

		keys = append(keys, KeyRole(guildID, id))
	}

	for _, raw := range memberIDs {
		id, err := snowflake.Parse(raw)
		if err != nil {
			continue
		}

		keys = append(keys, KeyMember(guildID, id))
	}

	keys = append(keys,
		KeyGuild(guildID),
		KeyGuildChannelIDs(guildID),
		KeyGuildRoleIDs(guildID),
		KeyGuildMemberIDs(guildID))

	if _, err := c.del(ctx, keys...); err != nil {
		return summary, fmt.Errorf("delete guild %s: %w", guildID, err)
	}

	removedChannels, err := c.sRem(ctx, KeyChannelIDs(), channelIDs...)
	if err != nil {
		return summary, fmt.Errorf("unindex channels of guild %s: %w", guildID, err)
	}

	removedAvailable, err := c.sRem(ctx, KeyGuildIDs(), guildID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex guild %s: %w", guildID, err)
	}

	removedUnavailable, err := c.sRem(ctx, KeyUnavailableGuildIDs(), guildID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex unavailable guild %s: %w", guildID, err)
	}

	summary.Guilds = -removedAvailable
	summary.UnavailableGuilds = -removedUnavailable
	summary.Channels = -removedChannels
	summary.Roles = -int64(len(roleIDs))
	summary.Members = -int64(len(memberIDs))

	return summary, nil
}

// GuildChannelIDs enumerates the cached channel ids of one guild.
func (c *Client) GuildChannelIDs(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	return c.indexIDs(ctx, KeyGuildChannelIDs(guildID))
}

// GuildRoleIDs enumerates the cached role ids of one guild.
func (c *Client) GuildRoleIDs(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	return c.indexIDs(ctx, KeyGuildRoleIDs(guildID))
}

// GuildMemberIDs enumerates the cached member user ids of one guild.
func (c *Client) GuildMemberIDs(ctx context.Context, guildID snowflake.ID) ([]snowflake.ID, error) {
	return c.indexIDs(ctx, KeyGuildMemberIDs(guildID))
}

// GuildIDs enumerates all available guild ids.
func (c *Client) GuildIDs(ctx context.Context) ([]snowflake.ID, error) {
	return c.indexIDs(ctx, KeyGuildIDs())
}

// UnavailableGuildIDs enumerates all guild ids currently marked unavailable.
func (c *Client) UnavailableGuildIDs(ctx context.Context) ([]snowflake.ID, error) {
	return c.indexIDs(ctx, KeyUnavailableGuildIDs())
}

func (c *Client) indexIDs(ctx context.Context, key string) ([]snowflake.ID, error) {
	raw, err := c.sMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", key, err)
	}

	ids := make([]snowflake.ID, 0, len(raw))

	for _, member := range raw {
		id, err := snowflake.Parse(member)
		if err != nil {
			c.logger.Warn("Skipping malformed id in index set",
				zap.String("key", key),
				zap.String("raw", member))
			continue
		}

		ids = append(ids, id)
	}

	return ids, nil
}
