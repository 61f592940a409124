// Package cache maintains a queryable snapshot of Discord state in Redis,
// fed by decoded gateway events and read concurrently by the rest of the
// application.
package cache

import (
	"context"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Client executes entity store operations against the backing Redis
// database. All methods are safe for concurrent use; rueidis bounds and
// reuses the underlying connections.
type Client struct {
	redis  rueidis.Client
	codec  *Codec
	cold   ColdResumeOptions
	logger *zap.Logger
}

// NewClient creates a cache client on top of an established Redis client.
func NewClient(redisClient rueidis.Client, codec *Codec, cold ColdResumeOptions, logger *zap.Logger) *Client {
	return &Client{
		redis:  redisClient,
		codec:  codec,
		cold:   cold.withDefaults(),
		logger: logger.Named("cache"),
	}
}

// setBinary writes a raw value under a key.
func (c *Client) setBinary(ctx context.Context, key string, value []byte) error {
	cmd := c.redis.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	return c.redis.Do(ctx, cmd).Error()
}

// getBinary reads a raw value. A missing key is reported as ok=false with no
// error.
func (c *Client) getBinary(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := c.redis.B().Get().Key(key).Build()

	data, err := c.redis.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return data, true, nil
}

// del removes keys and returns how many existed.
func (c *Client) del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	cmd := c.redis.B().Del().Key(keys...).Build()

	return c.redis.Do(ctx, cmd).AsInt64()
}

// sAdd inserts members into a set and returns how many were newly added.
// The return value is what distinguishes a net-new entity from an overwrite
// without a second round trip.
func (c *Client) sAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}

	cmd := c.redis.B().Sadd().Key(key).Member(members...).Build()

	return c.redis.Do(ctx, cmd).AsInt64()
}

// sRem removes members from a set and returns how many were present.
func (c *Client) sRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}

	cmd := c.redis.B().Srem().Key(key).Member(members...).Build()

	return c.redis.Do(ctx, cmd).AsInt64()
}

// sCard returns a set's cardinality.
func (c *Client) sCard(ctx context.Context, key string) (int64, error) {
	cmd := c.redis.B().Scard().Key(key).Build()

	return c.redis.Do(ctx, cmd).AsInt64()
}

// sCardSum pipelines SCARD over a batch of keys and returns the summed
// cardinality.
func (c *Client) sCardSum(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	cmds := make(rueidis.Commands, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, c.redis.B().Scard().Key(key).Build())
	}

	var total int64

	for _, resp := range c.redis.DoMulti(ctx, cmds...) {
		count, err := resp.AsInt64()
		if err != nil {
			return 0, err
		}

		total += count
	}

	return total, nil
}

// sMembers returns all members of a set.
func (c *Client) sMembers(ctx context.Context, key string) ([]string, error) {
	cmd := c.redis.B().Smembers().Key(key).Build()

	return c.redis.Do(ctx, cmd).AsStrSlice()
}
