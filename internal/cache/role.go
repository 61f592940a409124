package cache

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
)

// StoreRole writes a role record and registers its id in the guild's role
// set. The summary reports one new role when the id was not cached before.
func (c *Client) StoreRole(ctx context.Context, guildID snowflake.ID, role *discord.Role) (ChangeSummary, error) {
	var summary ChangeSummary

	buf, err := c.codec.Encode(KindRole, role)
	if err != nil {
		return summary, err
	}

	if err := c.setBinary(ctx, KeyRole(guildID, role.ID), buf); err != nil {
		return summary, fmt.Errorf("store role %s: %w", role.ID, err)
	}

	added, err := c.sAdd(ctx, KeyGuildRoleIDs(guildID), role.ID.String())
	if err != nil {
		return summary, fmt.Errorf("index role %s in guild %s: %w", role.ID, guildID, err)
	}

	summary.Roles = added

	return summary, nil
}

// FetchRole reads a role record, returning nil on a miss or an undecodable
// buffer.
func (c *Client) FetchRole(ctx context.Context, guildID, roleID snowflake.ID) (*discord.Role, error) {
	data, ok, err := c.getBinary(ctx, KeyRole(guildID, roleID))
	if err != nil {
		return nil, fmt.Errorf("fetch role %s: %w", roleID, err)
	}

	if !ok {
		return nil, nil
	}

	var role discord.Role
	if err := c.codec.Decode(KindRole, data, &role); err != nil {
		c.logger.Warn("Discarding undecodable cached role",
			zap.String("roleID", roleID.String()),
			zap.Error(err))
		return nil, nil
	}

	return &role, nil
}

// DeleteRole removes a role record and its index entry. Deleting an unknown
// role yields a zero summary.
func (c *Client) DeleteRole(ctx context.Context, guildID, roleID snowflake.ID) (ChangeSummary, error) {
	var summary ChangeSummary

	if _, err := c.del(ctx, KeyRole(guildID, roleID)); err != nil {
		return summary, fmt.Errorf("delete role %s: %w", roleID, err)
	}

	removed, err := c.sRem(ctx, KeyGuildRoleIDs(guildID), roleID.String())
	if err != nil {
		return summary, fmt.Errorf("unindex role %s in guild %s: %w", roleID, guildID, err)
	}

	summary.Roles = -removed

	return summary, nil
}
