package cache

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
)

// CacheUser writes a global user record and registers its id in the user
// set. The summary reports one new user when the id was not cached before.
func (c *Client) CacheUser(ctx context.Context, user *discord.User) (ChangeSummary, error) {
	var summary ChangeSummary

	buf, err := c.codec.Encode(KindUser, user)
	if err != nil {
		return summary, err
	}

	if err := c.setBinary(ctx, KeyUser(user.ID), buf); err != nil {
		return summary, fmt.Errorf("store user %s: %w", user.ID, err)
	}

	added, err := c.sAdd(ctx, KeyUserIDs(), user.ID.String())
	if err != nil {
		return summary, fmt.Errorf("index user %s: %w", user.ID, err)
	}

	summary.Users = added

	return summary, nil
}

// FetchUser reads a global user record, returning nil on a miss or an
// undecodable buffer.
func (c *Client) FetchUser(ctx context.Context, userID snowflake.ID) (*discord.User, error) {
	data, ok, err := c.getBinary(ctx, KeyUser(userID))
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}

	if !ok {
		return nil, nil
	}

	var user discord.User
	if err := c.codec.Decode(KindUser, data, &user); err != nil {
		c.logger.Warn("Discarding undecodable cached user",
			zap.String("userID", userID.String()),
			zap.Error(err))
		return nil, nil
	}

	return &user, nil
}

// CacheCurrentUser replaces the bot's own identity record wholesale. The
// current user is a singleton and does not participate in change summaries.
func (c *Client) CacheCurrentUser(ctx context.Context, user *discord.User) error {
	buf, err := c.codec.Encode(KindCurrentUser, user)
	if err != nil {
		return err
	}

	if err := c.setBinary(ctx, KeyCurrentUser(), buf); err != nil {
		return fmt.Errorf("store current user: %w", err)
	}

	return nil
}

// FetchCurrentUser reads the bot's own identity record, returning nil before
// the first ready event has been cached.
func (c *Client) FetchCurrentUser(ctx context.Context) (*discord.User, error) {
	data, ok, err := c.getBinary(ctx, KeyCurrentUser())
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	if !ok {
		return nil, nil
	}

	var user discord.User
	if err := c.codec.Decode(KindCurrentUser, data, &user); err != nil {
		c.logger.Warn("Discarding undecodable cached current user", zap.Error(err))
		return nil, nil
	}

	return &user, nil
}
