package cache

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
)

// StoreMember writes a member record as-is, replacing any previous record
// for the same (guild, user) pair. Only call this with authoritative
// payloads such as member-add or member-update events; partial payloads go
// through CachePartialMember so they cannot clobber fields they do not
// carry. The embedded user is cached alongside.
func (c *Client) StoreMember(ctx context.Context, guildID snowflake.ID, member *discord.Member) (ChangeSummary, error) {
	var summary ChangeSummary

	buf, err := c.codec.Encode(KindMember, member)
	if err != nil {
		return summary, err
	}

	userID := member.User.ID

	if err := c.setBinary(ctx, KeyMember(guildID, userID), buf); err != nil {
		return summary, fmt.Errorf("store member %s in guild %s: %w", userID, guildID, err)
	}

	added, err := c.sAdd(ctx, KeyGuildMemberIDs(guildID), userID.String())
	if err != nil {
		return summary, fmt.Errorf("index member %s in guild %s: %w", userID, guildID, err)
	}

	summary.Members = added

	userSummary, err := c.CacheUser(ctx, &member.User)
	if err != nil {
		return summary, err
	}

	summary.Merge(userSummary)

	return summary, nil
}

// StoreMembers writes a batch of members, as delivered by a member chunk,
// and returns the aggregated summary.
func (c *Client) StoreMembers(ctx context.Context, guildID snowflake.ID, members []discord.Member) (ChangeSummary, error) {
	var summary ChangeSummary

	for i := range members {
		memberSummary, err := c.StoreMember(ctx, guildID, &members[i])
		if err != nil {
			return summary, err
		}

		summary.Merge(memberSummary)
	}

	return summary, nil
}

// CachePartialMember merges a non-authoritative member payload over the
// existing record. Only the fields present in the payload are applied;
// absent fields keep their cached values. When no record exists yet a
// minimal one is created from the supplied user and whatever fields the
// payload carries.
func (c *Client) CachePartialMember(ctx context.Context, guildID snowflake.ID, partial *discord.PartialMember, user *discord.User) (ChangeSummary, error) {
	existing, err := c.FetchMember(ctx, guildID, user.ID)
	if err != nil {
		return ChangeSummary{}, err
	}

	merged := discord.Member{User: *user}
	if existing != nil {
		merged = *existing
		merged.User = *user
	}

	if partial != nil {
		if partial.Nick != nil {
			merged.Nick = *partial.Nick
		}

		if partial.RoleIDs != nil {
			merged.RoleIDs = partial.RoleIDs
		}

		if partial.JoinedAt != nil {
			merged.JoinedAt = *partial.JoinedAt
		}

		if partial.Flags != nil {
			merged.Flags = *partial.Flags
		}
	}

	return c.StoreMember(ctx, guildID, &merged)
}

// FetchMember reads a member record, returning nil on a miss or an
// undecodable buffer.
func (c *Client) FetchMember(ctx context.Context, guildID, userID snowflake.ID) (*discord.Member, error) {
	data, ok, err := c.getBinary(ctx, KeyMember(guildID, userID))
	if err != nil {
		return nil, fmt.Errorf("fetch member %s in guild %s: %w", userID, guildID, err)
	}

	if !ok {
		return nil, nil
	}

	var member discord.Member
	if err := c.codec.Decode(KindMember, data, &member); err != nil {
		c.logger.Warn("Discarding undecodable cached member",
			zap.String("guildID", guildID.String()),
			zap.String("userID", userID.String()),
			zap.Error(err))
		return nil, nil
	}

	return &member, nil
}

// DeleteMember removes a member record and its index entry. The global user
// record is kept since users are guild-independent. Deleting an unknown
// member yields a zero summary.
func (c *Client) DeleteMember(ctx context.Context, guildID, userID snowflake.ID) (ChangeSummary, error) {
	var summary ChangeSummary

	if _, err := c.del(ctx, KeyMember(guildID, userID)); err != nil {
		return summary, fmt.Errorf("delete member %s in guild %s: %w", userID, guildID, err)
	}

	removed, err := c.sRem(ctx, KeyGuildMemberIDs(guildID), userID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex member %s in guild %s: %w", userID, guildID, err)
	}

	summary.Members = -removed

	return summary, nil
}
