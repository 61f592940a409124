package cache

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
)

// StoreChannel writes a channel record and registers its id in the global
// channel set and, for guild channels, the owning guild's channel set. The
// summary reports one new channel when the id was not cached before.
func (c *Client) StoreChannel(ctx context.Context, channel *discord.Channel) (ChangeSummary, error) {
	var summary ChangeSummary

	buf, err := c.codec.Encode(KindChannel, channel)
	if err != nil {
		return summary, err
	}

	if err := c.setBinary(ctx, KeyChannel(channel.GuildID, channel.ID), buf); err != nil {
		return summary, fmt.Errorf("store channel %s: %w", channel.ID, err)
	}

	added, err := c.sAdd(ctx, KeyChannelIDs(), channel.ID.String())
	if err != nil {
		return summary, fmt.Errorf("index channel %s: %w", channel.ID, err)
	}

	if channel.GuildID != nil {
		if _, err := c.sAdd(ctx, KeyGuildChannelIDs(*channel.GuildID), channel.ID.String()); err != nil {
			return summary, fmt.Errorf("index channel %s in guild %s: %w", channel.ID, *channel.GuildID, err)
		}
	}

	summary.Channels = added

	return summary, nil
}

// FetchChannel reads a channel record. Misses and undecodable buffers both
// return nil without an error; the latter is logged since it usually means a
// stale wire format.
func (c *Client) FetchChannel(ctx context.Context, guildID *snowflake.ID, channelID snowflake.ID) (*discord.Channel, error) {
	data, ok, err := c.getBinary(ctx, KeyChannel(guildID, channelID))
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}

	if !ok {
		return nil, nil
	}

	var channel discord.Channel
	if err := c.codec.Decode(KindChannel, data, &channel); err != nil {
		c.logger.Warn("Discarding undecodable cached channel",
			zap.String("channelID", channelID.String()),
			zap.Error(err))
		return nil, nil
	}

	return &channel, nil
}

// DeleteChannel removes a channel record and its index entries. Deleting a
// channel that was never cached is not an error and yields a zero summary.
func (c *Client) DeleteChannel(ctx context.Context, guildID *snowflake.ID, channelID snowflake.ID) (ChangeSummary, error) {
	var summary ChangeSummary

	if _, err := c.del(ctx, KeyChannel(guildID, channelID)); err != nil {
		return summary, fmt.Errorf("delete channel %s: %w", channelID, err)
	}

	removed, err := c.sRem(ctx, KeyChannelIDs(), channelID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex channel %s: %w", channelID, err)
	}

	if guildID != nil {
		if _, err := c.sRem(ctx, KeyGuildChannelIDs(*guildID), channelID.String()); err != nil {
			return summary, fmt.Errorf("unindex channel %s in guild %s: %w", channelID, *guildID, err)
		}
	}

	summary.Channels = -removed

	return summary, nil
}
